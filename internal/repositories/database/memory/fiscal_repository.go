package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/finbooks/finbooks/internal/apperrors"
	"github.com/finbooks/finbooks/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
)

type memFiscalRepository struct {
	store *Store
}

var _ portsrepo.FiscalRepositoryFacade = (*memFiscalRepository)(nil)

func (r *memFiscalRepository) FindSetupByTenant(ctx context.Context, tenantID string) (*domain.FiscalYearSetup, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	setup, ok := r.store.setups[tenantID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &setup, nil
}

func (r *memFiscalRepository) FindPeriodCovering(ctx context.Context, tenantID string, date time.Time) (*domain.FiscalPeriod, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, period := range r.store.periods {
		if period.TenantID == tenantID && period.Covers(date) {
			p := period
			return &p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memFiscalRepository) FindPeriod(ctx context.Context, tenantID string, fiscalYear int, periodNumber int) (*domain.FiscalPeriod, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, period := range r.store.periods {
		if period.TenantID == tenantID && period.FiscalYear == fiscalYear && period.PeriodNumber == periodNumber {
			p := period
			return &p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memFiscalRepository) ListPeriods(ctx context.Context, tenantID string, fiscalYear int) ([]domain.FiscalPeriod, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	periods := []domain.FiscalPeriod{}
	for _, period := range r.store.periods {
		if period.TenantID == tenantID && period.FiscalYear == fiscalYear {
			periods = append(periods, period)
		}
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].PeriodNumber < periods[j].PeriodNumber })
	return periods, nil
}

func (r *memFiscalRepository) SaveSetup(ctx context.Context, setup domain.FiscalYearSetup) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.setups[setup.TenantID] = setup
	return nil
}

func (r *memFiscalRepository) SavePeriod(ctx context.Context, period domain.FiscalPeriod) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.periods {
		if existing.TenantID == period.TenantID && existing.FiscalYear == period.FiscalYear && existing.PeriodNumber == period.PeriodNumber {
			return fmt.Errorf("%w: period %d of FY%d", apperrors.ErrDuplicate, period.PeriodNumber, period.FiscalYear)
		}
	}
	r.store.periods[period.FiscalPeriodID] = period
	return nil
}

func (r *memFiscalRepository) UpdatePeriod(ctx context.Context, period domain.FiscalPeriod) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.periods[period.FiscalPeriodID]; !ok {
		return apperrors.ErrNotFound
	}
	r.store.periods[period.FiscalPeriodID] = period
	return nil
}

func (r *memFiscalRepository) CloseExpiredPeriods(ctx context.Context, now time.Time, userID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	closed := 0
	for id, period := range r.store.periods {
		if !period.EndDate.Before(now) {
			continue
		}
		if !(period.OpenGL || period.OpenBank || period.OpenReceivables || period.OpenPayables) {
			continue
		}
		period.OpenGL = false
		period.OpenBank = false
		period.OpenReceivables = false
		period.OpenPayables = false
		period.Touch(now, userID)
		r.store.periods[id] = period
		closed++
	}
	return closed, nil
}

func (r *memFiscalRepository) DeletePeriodsFrom(ctx context.Context, tenantID string, boundary time.Time) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	deleted := 0
	for id, period := range r.store.periods {
		if period.TenantID == tenantID && !period.StartDate.Before(boundary) {
			delete(r.store.periods, id)
			deleted++
		}
	}
	return deleted, nil
}
