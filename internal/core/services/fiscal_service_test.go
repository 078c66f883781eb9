package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/finbooks/finbooks/internal/apperrors"
	"github.com/finbooks/finbooks/internal/core/domain"
	"github.com/finbooks/finbooks/internal/core/services"
	"github.com/finbooks/finbooks/internal/dto"
)

type FiscalServiceTestSuite struct {
	suite.Suite
	env *testEnv
}

func (s *FiscalServiceTestSuite) SetupTest() {
	s.env = newTestEnv(s.T())
}

func (s *FiscalServiceTestSuite) TestFiscalYearFor_MayStart() {
	// The label is the calendar year the fiscal year ends in.
	year, err := s.env.container.Fiscal.FiscalYearFor(s.env.ctx, s.env.tenantID, time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Equal(2024, year)

	year, err = s.env.container.Fiscal.FiscalYearFor(s.env.ctx, s.env.tenantID, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Equal(2025, year)
}

func (s *FiscalServiceTestSuite) TestFiscalYearFor_CalendarAligned() {
	err := s.env.container.Fiscal.SetFiscalYearStart(s.env.ctx, s.env.tenantID, dto.SetFiscalYearStartRequest{
		StartMonth: 1,
		StartDay:   1,
	}, s.env.userID)
	s.Require().NoError(err)

	year, err := s.env.container.Fiscal.FiscalYearFor(s.env.ctx, s.env.tenantID, time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Equal(2024, year)
}

func (s *FiscalServiceTestSuite) TestFiscalYearFor_NoSetup() {
	_, err := s.env.container.Fiscal.FiscalYearFor(s.env.ctx, "unknown-tenant", s.env.clock.Now())
	s.Require().Error(err)
	s.ErrorIs(err, services.ErrNoFiscalSetup)
}

func (s *FiscalServiceTestSuite) TestGetOrCreatePeriod_CurrentMonth() {
	date := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)

	period, err := s.env.container.Fiscal.GetOrCreatePeriod(s.env.ctx, s.env.tenantID, date, true, s.env.userID)
	s.Require().NoError(err)
	s.Equal(2026, period.FiscalYear)
	s.Equal(2, period.PeriodNumber)
	s.True(period.OpenGL)
	s.True(period.OpenBank)
	s.True(period.OpenReceivables)
	s.True(period.OpenPayables)

	again, err := s.env.container.Fiscal.GetOrCreatePeriod(s.env.ctx, s.env.tenantID, date, true, s.env.userID)
	s.Require().NoError(err)
	s.Equal(period.FiscalPeriodID, again.FiscalPeriodID)
}

func (s *FiscalServiceTestSuite) TestGetOrCreatePeriod_OutsideCurrentMonthRejected() {
	date := time.Date(2025, time.July, 10, 0, 0, 0, 0, time.UTC)

	_, err := s.env.container.Fiscal.GetOrCreatePeriod(s.env.ctx, s.env.tenantID, date, true, s.env.userID)
	s.Require().Error(err)
	s.ErrorIs(err, services.ErrPeriodNotAllowed)

	// Without the restriction the period is created normally.
	period, err := s.env.container.Fiscal.GetOrCreatePeriod(s.env.ctx, s.env.tenantID, date, false, s.env.userID)
	s.Require().NoError(err)
	s.Equal(3, period.PeriodNumber)
}

func (s *FiscalServiceTestSuite) TestEnsurePeriodsForYear() {
	periods, err := s.env.container.Fiscal.EnsurePeriodsForYear(s.env.ctx, s.env.tenantID, 2026, s.env.userID)
	s.Require().NoError(err)
	s.Require().Len(periods, 12)

	s.Equal(time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC), periods[0].StartDate)
	s.Equal(time.Date(2026, time.April, 30, 0, 0, 0, 0, time.UTC), periods[11].EndDate)

	// Consecutive periods tile the year with no gap or overlap.
	for i := 1; i < len(periods); i++ {
		s.Equal(periods[i-1].EndDate.AddDate(0, 0, 1), periods[i].StartDate)
	}

	// Idempotent: a second fill keeps the same period identities.
	again, err := s.env.container.Fiscal.EnsurePeriodsForYear(s.env.ctx, s.env.tenantID, 2026, s.env.userID)
	s.Require().NoError(err)
	s.Equal(periods[0].FiscalPeriodID, again[0].FiscalPeriodID)
}

func (s *FiscalServiceTestSuite) TestAssertOpen_NoPeriod() {
	err := s.env.container.Fiscal.AssertOpen(s.env.ctx, s.env.tenantID, s.env.clock.Now(), domain.ModuleGeneralLedger)
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrPeriodClosed)
}

func (s *FiscalServiceTestSuite) TestSetModuleOpen_GatesAreIndependent() {
	date := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	period, err := s.env.container.Fiscal.GetOrCreatePeriod(s.env.ctx, s.env.tenantID, date, true, s.env.userID)
	s.Require().NoError(err)

	_, err = s.env.container.Fiscal.SetModuleOpen(s.env.ctx, s.env.tenantID, period.FiscalYear, period.PeriodNumber, domain.ModuleGeneralLedger, false, s.env.userID)
	s.Require().NoError(err)

	err = s.env.container.Fiscal.AssertOpen(s.env.ctx, s.env.tenantID, date, domain.ModuleGeneralLedger)
	s.ErrorIs(err, apperrors.ErrPeriodClosed)

	err = s.env.container.Fiscal.AssertOpen(s.env.ctx, s.env.tenantID, date, domain.ModuleBank)
	s.NoError(err)
}

func (s *FiscalServiceTestSuite) TestCloseExpiredPeriods() {
	// Fiscal year 2025 ran May 2024 through April 2025, entirely in the past.
	_, err := s.env.container.Fiscal.EnsurePeriodsForYear(s.env.ctx, s.env.tenantID, 2025, s.env.userID)
	s.Require().NoError(err)

	closed, err := s.env.container.Fiscal.CloseExpiredPeriods(s.env.ctx, s.env.userID)
	s.Require().NoError(err)
	s.Equal(12, closed)

	err = s.env.container.Fiscal.AssertOpen(s.env.ctx, s.env.tenantID, time.Date(2024, time.December, 10, 0, 0, 0, 0, time.UTC), domain.ModuleGeneralLedger)
	s.ErrorIs(err, apperrors.ErrPeriodClosed)

	// Idempotent: nothing left to close.
	closed, err = s.env.container.Fiscal.CloseExpiredPeriods(s.env.ctx, s.env.userID)
	s.Require().NoError(err)
	s.Equal(0, closed)
}

func (s *FiscalServiceTestSuite) TestSetFiscalYearStart_DestructiveResync() {
	_, err := s.env.container.Fiscal.EnsurePeriodsForYear(s.env.ctx, s.env.tenantID, 2025, s.env.userID)
	s.Require().NoError(err)
	_, err = s.env.container.Fiscal.EnsurePeriodsForYear(s.env.ctx, s.env.tenantID, 2026, s.env.userID)
	s.Require().NoError(err)

	err = s.env.container.Fiscal.SetFiscalYearStart(s.env.ctx, s.env.tenantID, dto.SetFiscalYearStartRequest{
		StartMonth: 2,
		StartDay:   1,
	}, s.env.userID)
	s.Require().NoError(err)

	// Periods from the old current fiscal year onward are dropped.
	period, err := s.env.container.Fiscal.PeriodFor(s.env.ctx, s.env.tenantID, time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Nil(period)

	// History before the boundary survives.
	period, err = s.env.container.Fiscal.PeriodFor(s.env.ctx, s.env.tenantID, time.Date(2024, time.December, 10, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.NotNil(period)
}

func TestFiscalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FiscalServiceTestSuite))
}
