package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbooks/finbooks/internal/apperrors"
	"github.com/finbooks/finbooks/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
)

type memApplicationRepository struct {
	store *Store
}

var _ portsrepo.ApplicationRepositoryWithTx = (*memApplicationRepository)(nil)

func (r *memApplicationRepository) FindApplicationByID(ctx context.Context, applicationID string) (*domain.Application, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.findApplicationLocked(applicationID)
}

func (r *memApplicationRepository) ListApplicationsBySource(ctx context.Context, sourceType domain.ApplicationSourceType, sourceID string) ([]domain.Application, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	applications := []domain.Application{}
	for _, application := range r.store.applications {
		if application.SourceType == sourceType && application.SourceID == sourceID {
			applications = append(applications, application)
		}
	}
	sortApplications(applications)
	return applications, nil
}

func (r *memApplicationRepository) ListApplicationsByTarget(ctx context.Context, targetDocumentID string) ([]domain.Application, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	applications := []domain.Application{}
	for _, application := range r.store.applications {
		if application.TargetDocumentID == targetDocumentID {
			applications = append(applications, application)
		}
	}
	sortApplications(applications)
	return applications, nil
}

func sortApplications(applications []domain.Application) {
	sort.Slice(applications, func(i, j int) bool {
		if !applications[i].ApplicationDate.Equal(applications[j].ApplicationDate) {
			return applications[i].ApplicationDate.Before(applications[j].ApplicationDate)
		}
		return applications[i].ApplicationID < applications[j].ApplicationID
	})
}

func (r *memApplicationRepository) WithinTx(ctx context.Context, fn func(txRepo portsrepo.ApplicationTxRepository) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snap := r.store.snapshot()
	if err := fn(&memApplicationTxRepository{store: r.store}); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

// memApplicationTxRepository runs with the store lock already held by WithinTx.
type memApplicationTxRepository struct {
	store *Store
}

var _ portsrepo.ApplicationTxRepository = (*memApplicationTxRepository)(nil)

func (r *memApplicationTxRepository) FindPaymentForUpdate(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return r.store.findPaymentLocked(paymentID)
}

func (r *memApplicationTxRepository) FindDocumentForUpdate(ctx context.Context, documentID string) (*domain.Document, error) {
	return r.store.findDocumentLocked(documentID)
}

func (r *memApplicationTxRepository) FindApplicationByID(ctx context.Context, applicationID string) (*domain.Application, error) {
	return r.store.findApplicationLocked(applicationID)
}

func (r *memApplicationTxRepository) SumApplicationsFromSource(ctx context.Context, sourceType domain.ApplicationSourceType, sourceID string, excludeApplicationID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for id, application := range r.store.applications {
		if id == excludeApplicationID {
			continue
		}
		if application.SourceType == sourceType && application.SourceID == sourceID {
			sum = sum.Add(application.Amount)
		}
	}
	return sum, nil
}

func (r *memApplicationTxRepository) SumApplicationsToTarget(ctx context.Context, targetDocumentID string, excludeApplicationID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for id, application := range r.store.applications {
		if id == excludeApplicationID {
			continue
		}
		if application.TargetDocumentID == targetDocumentID {
			sum = sum.Add(application.Amount)
		}
	}
	return sum, nil
}

func (r *memApplicationTxRepository) InsertApplication(ctx context.Context, application domain.Application) error {
	if _, ok := r.store.applications[application.ApplicationID]; ok {
		return apperrors.ErrDuplicate
	}
	r.store.applications[application.ApplicationID] = application
	return nil
}

func (r *memApplicationTxRepository) UpdateApplication(ctx context.Context, application domain.Application) error {
	if _, ok := r.store.applications[application.ApplicationID]; !ok {
		return apperrors.ErrNotFound
	}
	r.store.applications[application.ApplicationID] = application
	return nil
}

func (r *memApplicationTxRepository) DeleteApplication(ctx context.Context, applicationID string) error {
	if _, ok := r.store.applications[applicationID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.store.applications, applicationID)
	return nil
}

func (r *memApplicationTxRepository) SetPaymentAmountLeft(ctx context.Context, paymentID string, amountLeft decimal.Decimal, userID string, now time.Time) error {
	payment, ok := r.store.payments[paymentID]
	if !ok {
		return apperrors.ErrNotFound
	}
	payment.AmountLeft = amountLeft
	payment.Touch(now, userID)
	r.store.payments[paymentID] = payment
	return nil
}

func (r *memApplicationTxRepository) SetDocumentDue(ctx context.Context, documentID string, dueAmount decimal.Decimal, userID string, now time.Time) error {
	document, ok := r.store.documents[documentID]
	if !ok {
		return apperrors.ErrNotFound
	}
	document.DueAmount = dueAmount
	document.Touch(now, userID)
	r.store.documents[documentID] = document
	return nil
}

func (s *Store) findApplicationLocked(applicationID string) (*domain.Application, error) {
	application, ok := s.applications[applicationID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &application, nil
}
