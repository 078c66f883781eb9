package services

import (
	"context"
	"time"

	"github.com/finbooks/finbooks/internal/core/domain"
	"github.com/finbooks/finbooks/internal/dto"
)

// FiscalSvcFacade maps dates onto fiscal years and periods and gates postings.
type FiscalSvcFacade interface {
	// SetFiscalYearStart changes the tenant's fiscal start date, deleting
	// periods that fall outside the new calendar (destructive resync).
	SetFiscalYearStart(ctx context.Context, tenantID string, req dto.SetFiscalYearStartRequest, userID string) error

	// FiscalYearFor returns the fiscal-year label covering the date. The label
	// is the calendar year in which the fiscal year ends.
	FiscalYearFor(ctx context.Context, tenantID string, date time.Time) (int, error)

	// PeriodFor returns the period covering the date, or nil when none exists.
	PeriodFor(ctx context.Context, tenantID string, date time.Time) (*domain.FiscalPeriod, error)

	// GetOrCreatePeriod lazily creates the period covering the date, opened on
	// all four modules. When onlyCurrentMonth is true, dates outside the current
	// month are rejected.
	GetOrCreatePeriod(ctx context.Context, tenantID string, date time.Time, onlyCurrentMonth bool, userID string) (*domain.FiscalPeriod, error)

	// EnsurePeriodsForYear back/forward-fills all twelve periods of one fiscal year.
	EnsurePeriodsForYear(ctx context.Context, tenantID string, fiscalYear int, userID string) ([]domain.FiscalPeriod, error)

	// AssertOpen fails with a period-closed error when no period covers the date
	// or the module's gate is closed.
	AssertOpen(ctx context.Context, tenantID string, date time.Time, module domain.Module) error

	// SetModuleOpen explicitly opens or closes one module gate of one period.
	SetModuleOpen(ctx context.Context, tenantID string, fiscalYear int, periodNumber int, module domain.Module, open bool, userID string) (*domain.FiscalPeriod, error)

	// CloseExpiredPeriods closes every period whose end date has passed and is
	// still open. Idempotent; exposed to the scheduled job runner.
	CloseExpiredPeriods(ctx context.Context, userID string) (int, error)
}
