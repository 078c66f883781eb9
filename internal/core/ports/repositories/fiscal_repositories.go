package repositories

import (
	"context"
	"time"

	"github.com/finbooks/finbooks/internal/core/domain"
)

// FiscalReader defines read operations for fiscal-calendar data.
type FiscalReader interface {
	// FindSetupByTenant retrieves the tenant's fiscal-year setup.
	FindSetupByTenant(ctx context.Context, tenantID string) (*domain.FiscalYearSetup, error)

	// FindPeriodCovering retrieves the period containing the given date, or
	// apperrors.ErrNotFound when none does.
	FindPeriodCovering(ctx context.Context, tenantID string, date time.Time) (*domain.FiscalPeriod, error)

	// FindPeriod retrieves one period by fiscal year and period number.
	FindPeriod(ctx context.Context, tenantID string, fiscalYear int, periodNumber int) (*domain.FiscalPeriod, error)

	// ListPeriods retrieves all periods of one fiscal year, ordered by number.
	ListPeriods(ctx context.Context, tenantID string, fiscalYear int) ([]domain.FiscalPeriod, error)
}

// FiscalWriter defines write operations for fiscal-calendar data.
type FiscalWriter interface {
	// SaveSetup persists or replaces the tenant's fiscal-year setup.
	SaveSetup(ctx context.Context, setup domain.FiscalYearSetup) error

	// SavePeriod persists a new period. Fails with apperrors.ErrDuplicate when
	// the (tenant, fiscalYear, periodNumber) slot is already taken.
	SavePeriod(ctx context.Context, period domain.FiscalPeriod) error

	// UpdatePeriod persists the period's module gates.
	UpdatePeriod(ctx context.Context, period domain.FiscalPeriod) error

	// CloseExpiredPeriods closes every module gate of any period whose end date
	// is before now and that is still open on any module. It returns the number
	// of periods touched and is safe to run repeatedly.
	CloseExpiredPeriods(ctx context.Context, now time.Time, userID string) (int, error)

	// DeletePeriodsFrom removes all of the tenant's periods whose start date is
	// on or after the boundary. Used by the destructive fiscal-start resync.
	DeletePeriodsFrom(ctx context.Context, tenantID string, boundary time.Time) (int, error)
}

// FiscalRepositoryFacade combines all fiscal-calendar repository interfaces.
type FiscalRepositoryFacade interface {
	FiscalReader
	FiscalWriter
}
