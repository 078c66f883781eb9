package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/finbooks/finbooks/internal/apperrors"
	"github.com/finbooks/finbooks/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
)

type memPaymentRepository struct {
	store *Store
}

var _ portsrepo.PaymentRepositoryFacade = (*memPaymentRepository)(nil)

func (r *memPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.findPaymentLocked(paymentID)
}

func (r *memPaymentRepository) ListPaymentsByCustomer(ctx context.Context, tenantID string, customerID string) ([]domain.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	payments := []domain.Payment{}
	for _, payment := range r.store.payments {
		if payment.TenantID == tenantID && payment.CustomerID == customerID {
			payments = append(payments, payment)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		if !payments[i].PaymentDate.Equal(payments[j].PaymentDate) {
			return payments[i].PaymentDate.Before(payments[j].PaymentDate)
		}
		return payments[i].PaymentID < payments[j].PaymentID
	})
	return payments, nil
}

func (r *memPaymentRepository) CreatePayment(ctx context.Context, payment domain.Payment, fiscalYear int) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// Reject before drawing, so a failed create burns no number.
	if _, ok := r.store.payments[payment.PaymentID]; ok {
		return 0, fmt.Errorf("%w: payment %s", apperrors.ErrDuplicate, payment.PaymentID)
	}
	payment.Number = r.store.nextNumberLocked(payment.TenantID, domain.PaymentSequenceType, fiscalYear)
	r.store.payments[payment.PaymentID] = payment
	return payment.Number, nil
}

func (s *Store) findPaymentLocked(paymentID string) (*domain.Payment, error) {
	payment, ok := s.payments[paymentID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &payment, nil
}
