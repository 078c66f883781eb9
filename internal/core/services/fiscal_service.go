package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finbooks/finbooks/internal/apperrors"
	"github.com/finbooks/finbooks/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
	portssvc "github.com/finbooks/finbooks/internal/core/ports/services"
	"github.com/finbooks/finbooks/internal/dto"
	"github.com/finbooks/finbooks/internal/platform/logging"
)

var (
	ErrPeriodNotAllowed = errors.New("period auto-creation is restricted to the current month")
	ErrNoFiscalSetup    = errors.New("tenant has no fiscal year setup")
)

// fiscalService maps dates onto fiscal years and periods and owns the
// open/closed gates per module.
type fiscalService struct {
	fiscalRepo portsrepo.FiscalRepositoryFacade
	clock      portssvc.Clock
}

// NewFiscalService creates a new FiscalSvcFacade.
func NewFiscalService(fiscalRepo portsrepo.FiscalRepositoryFacade, clock portssvc.Clock) portssvc.FiscalSvcFacade {
	return &fiscalService{fiscalRepo: fiscalRepo, clock: clock}
}

var _ portssvc.FiscalSvcFacade = (*fiscalService)(nil)

// dateOnly normalizes a timestamp to a UTC calendar date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *fiscalService) setupFor(ctx context.Context, tenantID string) (*domain.FiscalYearSetup, error) {
	setup, err := s.fiscalRepo.FindSetupByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: tenant %s", ErrNoFiscalSetup, tenantID)
		}
		return nil, fmt.Errorf("failed to load fiscal setup for tenant %s: %w", tenantID, err)
	}
	return setup, nil
}

// startYearFor returns the calendar year in which the fiscal year containing
// date begins.
func startYearFor(setup domain.FiscalYearSetup, date time.Time) int {
	d := dateOnly(date)
	if d.Before(setup.StartDateFor(d.Year())) {
		return d.Year() - 1
	}
	return d.Year()
}

// labelFor converts a fiscal start year into the fiscal-year label: the
// calendar year in which the fiscal year ends. A May-2024..Apr-2025 year is
// labeled 2025; a calendar-aligned year keeps its own label.
func labelFor(setup domain.FiscalYearSetup, startYear int) int {
	if setup.StartsJanuaryFirst() {
		return startYear
	}
	return startYear + 1
}

// startYearOf inverts labelFor.
func startYearOf(setup domain.FiscalYearSetup, label int) int {
	if setup.StartsJanuaryFirst() {
		return label
	}
	return label - 1
}

// buildPeriod computes the in-memory period with the given number of the
// fiscal year beginning in startYear. Period 1 begins on the fiscal start date.
func buildPeriod(setup domain.FiscalYearSetup, tenantID string, startYear, periodNumber int) domain.FiscalPeriod {
	anchor := setup.StartDateFor(startYear)
	start := anchor.AddDate(0, periodNumber-1, 0)
	end := anchor.AddDate(0, periodNumber, 0).AddDate(0, 0, -1)
	return domain.FiscalPeriod{
		TenantID:        tenantID,
		FiscalYear:      labelFor(setup, startYear),
		PeriodNumber:    periodNumber,
		StartDate:       start,
		EndDate:         end,
		OpenGL:          true,
		OpenBank:        true,
		OpenReceivables: true,
		OpenPayables:    true,
	}
}

// periodNumberFor locates the period of the fiscal year that covers date.
func periodNumberFor(setup domain.FiscalYearSetup, startYear int, date time.Time) (int, bool) {
	d := dateOnly(date)
	for n := 1; n <= 12; n++ {
		p := buildPeriod(setup, "", startYear, n)
		if !d.Before(p.StartDate) && !d.After(p.EndDate) {
			return n, true
		}
	}
	return 0, false
}

func (s *fiscalService) FiscalYearFor(ctx context.Context, tenantID string, date time.Time) (int, error) {
	setup, err := s.setupFor(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	return labelFor(*setup, startYearFor(*setup, date)), nil
}

func (s *fiscalService) PeriodFor(ctx context.Context, tenantID string, date time.Time) (*domain.FiscalPeriod, error) {
	period, err := s.fiscalRepo.FindPeriodCovering(ctx, tenantID, dateOnly(date))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find period for tenant %s: %w", tenantID, err)
	}
	return period, nil
}

func (s *fiscalService) GetOrCreatePeriod(ctx context.Context, tenantID string, date time.Time, onlyCurrentMonth bool, userID string) (*domain.FiscalPeriod, error) {
	logger := logging.GetLoggerFromCtx(ctx)
	d := dateOnly(date)

	if existing, err := s.PeriodFor(ctx, tenantID, d); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	if onlyCurrentMonth {
		now := dateOnly(s.clock.Now())
		if d.Year() != now.Year() || d.Month() != now.Month() {
			return nil, fmt.Errorf("%w: date %s", ErrPeriodNotAllowed, d.Format("2006-01-02"))
		}
	}

	setup, err := s.setupFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	startYear := startYearFor(*setup, d)
	number, ok := periodNumberFor(*setup, startYear, d)
	if !ok {
		return nil, fmt.Errorf("%w: date %s falls outside fiscal year starting %d", apperrors.ErrInternal, d.Format("2006-01-02"), startYear)
	}

	now := s.clock.Now()
	period := buildPeriod(*setup, tenantID, startYear, number)
	period.FiscalPeriodID = uuid.NewString()
	period.AuditFields = domain.NewAudit(now, userID)

	if err := s.fiscalRepo.SavePeriod(ctx, period); err != nil {
		// A concurrent caller may have created the same slot; fall back to a read.
		if errors.Is(err, apperrors.ErrDuplicate) {
			return s.fiscalRepo.FindPeriodCovering(ctx, tenantID, d)
		}
		return nil, fmt.Errorf("failed to save period %d/%d for tenant %s: %w", period.FiscalYear, number, tenantID, err)
	}

	logger.Info("Fiscal period created",
		slog.String("tenant_id", tenantID),
		slog.Int("fiscal_year", period.FiscalYear),
		slog.Int("period_number", number))
	return &period, nil
}

func (s *fiscalService) EnsurePeriodsForYear(ctx context.Context, tenantID string, fiscalYear int, userID string) ([]domain.FiscalPeriod, error) {
	setup, err := s.setupFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	startYear := startYearOf(*setup, fiscalYear)
	for n := 1; n <= 12; n++ {
		period := buildPeriod(*setup, tenantID, startYear, n)
		period.FiscalPeriodID = uuid.NewString()
		period.AuditFields = domain.NewAudit(now, userID)
		if err := s.fiscalRepo.SavePeriod(ctx, period); err != nil && !errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("failed to fill period %d/%d for tenant %s: %w", fiscalYear, n, tenantID, err)
		}
	}
	return s.fiscalRepo.ListPeriods(ctx, tenantID, fiscalYear)
}

func (s *fiscalService) AssertOpen(ctx context.Context, tenantID string, date time.Time, module domain.Module) error {
	d := dateOnly(date)
	period, err := s.fiscalRepo.FindPeriodCovering(ctx, tenantID, d)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: no fiscal period covers %s", apperrors.ErrPeriodClosed, d.Format("2006-01-02"))
		}
		return fmt.Errorf("failed to resolve period for %s: %w", d.Format("2006-01-02"), err)
	}
	if !period.IsOpen(module) {
		return fmt.Errorf("%w: period %d/%d is closed for module %s", apperrors.ErrPeriodClosed, period.FiscalYear, period.PeriodNumber, module)
	}
	return nil
}

func (s *fiscalService) SetModuleOpen(ctx context.Context, tenantID string, fiscalYear int, periodNumber int, module domain.Module, open bool, userID string) (*domain.FiscalPeriod, error) {
	period, err := s.fiscalRepo.FindPeriod(ctx, tenantID, fiscalYear, periodNumber)
	if err != nil {
		return nil, err
	}
	if err := period.SetOpen(module, open); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	now := s.clock.Now()
	period.Touch(now, userID)
	if err := s.fiscalRepo.UpdatePeriod(ctx, *period); err != nil {
		return nil, fmt.Errorf("failed to update period gates: %w", err)
	}
	return period, nil
}

func (s *fiscalService) CloseExpiredPeriods(ctx context.Context, userID string) (int, error) {
	logger := logging.GetLoggerFromCtx(ctx)
	closed, err := s.fiscalRepo.CloseExpiredPeriods(ctx, dateOnly(s.clock.Now()), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to close expired periods: %w", err)
	}
	if closed > 0 {
		logger.Info("Expired fiscal periods closed", slog.Int("count", closed))
	}
	return closed, nil
}

func (s *fiscalService) SetFiscalYearStart(ctx context.Context, tenantID string, req dto.SetFiscalYearStartRequest, userID string) error {
	logger := logging.GetLoggerFromCtx(ctx)
	if err := dto.Validate(req); err != nil {
		return err
	}

	now := s.clock.Now()
	newSetup := domain.FiscalYearSetup{
		TenantID:   tenantID,
		StartMonth: time.Month(req.StartMonth),
		StartDay:   req.StartDay,
		AuditFields: domain.NewAudit(now, userID),
	}

	old, err := s.fiscalRepo.FindSetupByTenant(ctx, tenantID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to load existing fiscal setup: %w", err)
	}

	if err := s.fiscalRepo.SaveSetup(ctx, newSetup); err != nil {
		return fmt.Errorf("failed to save fiscal setup for tenant %s: %w", tenantID, err)
	}

	// Destructive resync: drop periods from the old current fiscal year onward;
	// history before the boundary is preserved, the rest regenerates lazily.
	if old != nil && (old.StartMonth != newSetup.StartMonth || old.StartDay != newSetup.StartDay) {
		boundary := old.StartDateFor(startYearFor(*old, s.clock.Now()))
		deleted, err := s.fiscalRepo.DeletePeriodsFrom(ctx, tenantID, boundary)
		if err != nil {
			return fmt.Errorf("failed to resync periods after fiscal start change: %w", err)
		}
		logger.Info("Fiscal start changed, periods resynced",
			slog.String("tenant_id", tenantID),
			slog.Int("deleted_periods", deleted))
	}
	return nil
}
