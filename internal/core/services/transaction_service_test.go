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

type TransactionServiceTestSuite struct {
	suite.Suite
	env        *testEnv
	fiscalDate time.Time
	cash       *domain.Account
	revenue    *domain.Account
}

func (s *TransactionServiceTestSuite) SetupTest() {
	s.env = newTestEnv(s.T())
	s.fiscalDate = time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)

	def := s.env.seedSingleSegment(s.T(), 4)
	s.cash = s.env.seedAccount(s.T(), def.SegmentDefinitionID, "1000", domain.Asset, true)
	s.revenue = s.env.seedAccount(s.T(), def.SegmentDefinitionID, "4000", domain.Revenue, true)
}

func (s *TransactionServiceTestSuite) createTransaction(amount string) *domain.TransactionHeader {
	header, err := s.env.container.Transactions.CreateTransaction(s.env.ctx, s.env.tenantID, dto.CreateTransactionRequest{
		FiscalDate:  s.fiscalDate,
		Type:        domain.Manual,
		Description: "Cash sale",
		Lines: []dto.CreateTransactionLineRequest{
			{AccountID: s.cash.AccountID, Debit: dec(amount)},
			{AccountID: s.revenue.AccountID, Credit: dec(amount)},
		},
	}, s.env.userID)
	s.Require().NoError(err)
	return header
}

func (s *TransactionServiceTestSuite) TestCreateTransaction_Balanced() {
	header := s.createTransaction("100.00")

	s.Equal("2026-MAN-1", header.TransactionID)
	s.Equal(2026, header.FiscalYear)
	s.Equal(int64(1), header.Number)
	s.True(header.Balanced)
	s.False(header.Posted)
	s.Require().Len(header.Lines, 2)

	// The period for the current month was created lazily.
	period, err := s.env.container.Fiscal.PeriodFor(s.env.ctx, s.env.tenantID, s.fiscalDate)
	s.Require().NoError(err)
	s.Require().NotNil(period)
	s.Equal(2, period.PeriodNumber)
}

func (s *TransactionServiceTestSuite) TestCreateTransaction_UnbalancedRejected() {
	_, err := s.env.container.Transactions.CreateTransaction(s.env.ctx, s.env.tenantID, dto.CreateTransactionRequest{
		FiscalDate:  s.fiscalDate,
		Type:        domain.Manual,
		Description: "Off by a fraction",
		Lines: []dto.CreateTransactionLineRequest{
			{AccountID: s.cash.AccountID, Debit: dec("100.00")},
			{AccountID: s.revenue.AccountID, Credit: dec("100.001")},
		},
	}, s.env.userID)
	s.Require().Error(err)
	s.ErrorIs(err, services.ErrUnbalanced)

	// Nothing persisted and no sequence number burned.
	headers, _, err := s.env.container.Transactions.ListTransactions(s.env.ctx, s.env.tenantID, dto.ListParams{})
	s.Require().NoError(err)
	s.Empty(headers)

	header := s.createTransaction("100.00")
	s.Equal(int64(1), header.Number)
}

func (s *TransactionServiceTestSuite) TestCreateTransaction_LineShape() {
	// Both sides set on one line.
	_, err := s.env.container.Transactions.CreateTransaction(s.env.ctx, s.env.tenantID, dto.CreateTransactionRequest{
		FiscalDate:  s.fiscalDate,
		Type:        domain.Manual,
		Description: "Both sides",
		Lines: []dto.CreateTransactionLineRequest{
			{AccountID: s.cash.AccountID, Debit: dec("50"), Credit: dec("50")},
			{AccountID: s.revenue.AccountID, Credit: dec("0")},
		},
	}, s.env.userID)
	s.ErrorIs(err, services.ErrLineShape)

	// Negative amount.
	_, err = s.env.container.Transactions.CreateTransaction(s.env.ctx, s.env.tenantID, dto.CreateTransactionRequest{
		FiscalDate:  s.fiscalDate,
		Type:        domain.Manual,
		Description: "Negative",
		Lines: []dto.CreateTransactionLineRequest{
			{AccountID: s.cash.AccountID, Debit: dec("-50")},
			{AccountID: s.revenue.AccountID, Credit: dec("-50")},
		},
	}, s.env.userID)
	s.ErrorIs(err, services.ErrLineShape)
}

func (s *TransactionServiceTestSuite) TestCreateTransaction_PeriodClosed() {
	period, err := s.env.container.Fiscal.GetOrCreatePeriod(s.env.ctx, s.env.tenantID, s.fiscalDate, true, s.env.userID)
	s.Require().NoError(err)
	_, err = s.env.container.Fiscal.SetModuleOpen(s.env.ctx, s.env.tenantID, period.FiscalYear, period.PeriodNumber, domain.ModuleGeneralLedger, false, s.env.userID)
	s.Require().NoError(err)

	_, err = s.env.container.Transactions.CreateTransaction(s.env.ctx, s.env.tenantID, dto.CreateTransactionRequest{
		FiscalDate:  s.fiscalDate,
		Type:        domain.Manual,
		Description: "Gated",
		Lines: []dto.CreateTransactionLineRequest{
			{AccountID: s.cash.AccountID, Debit: dec("10")},
			{AccountID: s.revenue.AccountID, Credit: dec("10")},
		},
	}, s.env.userID)
	s.ErrorIs(err, apperrors.ErrPeriodClosed)
}

func (s *TransactionServiceTestSuite) TestCreateTransaction_ManualEntryRestricted() {
	def, err := s.env.container.Accounts.ListSegmentDefinitions(s.env.ctx, s.env.tenantID)
	s.Require().NoError(err)
	restricted := s.env.seedAccount(s.T(), def[0].SegmentDefinitionID, "2100", domain.Liability, false)

	_, err = s.env.container.Transactions.CreateTransaction(s.env.ctx, s.env.tenantID, dto.CreateTransactionRequest{
		FiscalDate:  s.fiscalDate,
		Type:        domain.Manual,
		Description: "Control account",
		Lines: []dto.CreateTransactionLineRequest{
			{AccountID: s.cash.AccountID, Debit: dec("10")},
			{AccountID: restricted.AccountID, Credit: dec("10")},
		},
	}, s.env.userID)
	s.ErrorIs(err, services.ErrManualEntryRestricted)

	// The same account is fine on a non-manual transaction.
	header, err := s.env.container.Transactions.CreateTransaction(s.env.ctx, s.env.tenantID, dto.CreateTransactionRequest{
		FiscalDate:  s.fiscalDate,
		Type:        domain.Receivable,
		Description: "Subledger posting",
		Lines: []dto.CreateTransactionLineRequest{
			{AccountID: s.cash.AccountID, Debit: dec("10")},
			{AccountID: restricted.AccountID, Credit: dec("10")},
		},
	}, s.env.userID)
	s.Require().NoError(err)
	s.Equal("2026-RCV-1", header.TransactionID)
}

func (s *TransactionServiceTestSuite) TestCreateTransaction_InactiveAccount() {
	err := s.env.container.Accounts.DeactivateAccount(s.env.ctx, s.env.tenantID, s.revenue.AccountID, s.env.userID)
	s.Require().NoError(err)

	_, err = s.env.container.Transactions.CreateTransaction(s.env.ctx, s.env.tenantID, dto.CreateTransactionRequest{
		FiscalDate:  s.fiscalDate,
		Type:        domain.Manual,
		Description: "Dead account",
		Lines: []dto.CreateTransactionLineRequest{
			{AccountID: s.cash.AccountID, Debit: dec("10")},
			{AccountID: s.revenue.AccountID, Credit: dec("10")},
		},
	}, s.env.userID)
	s.ErrorIs(err, services.ErrInactiveAccount)
}

func (s *TransactionServiceTestSuite) TestPostTransaction() {
	header := s.createTransaction("100.00")

	posted, err := s.env.container.Transactions.PostTransaction(s.env.ctx, s.env.tenantID, header.TransactionID, s.env.userID)
	s.Require().NoError(err)
	s.True(posted.Posted)

	_, err = s.env.container.Transactions.PostTransaction(s.env.ctx, s.env.tenantID, header.TransactionID, s.env.userID)
	s.ErrorIs(err, services.ErrAlreadyPosted)
}

func (s *TransactionServiceTestSuite) TestReverseTransaction() {
	header := s.createTransaction("250.00")

	// An unposted transaction cannot be reversed.
	_, err := s.env.container.Transactions.ReverseTransaction(s.env.ctx, s.env.tenantID, header.TransactionID, nil, s.env.userID)
	s.ErrorIs(err, services.ErrNotPosted)

	_, err = s.env.container.Transactions.PostTransaction(s.env.ctx, s.env.tenantID, header.TransactionID, s.env.userID)
	s.Require().NoError(err)

	reversal, err := s.env.container.Transactions.ReverseTransaction(s.env.ctx, s.env.tenantID, header.TransactionID, nil, s.env.userID)
	s.Require().NoError(err)
	s.True(reversal.Posted)
	s.Equal("2026-MAN-2", reversal.TransactionID)
	s.Require().NotNil(reversal.ReversesTransactionID)
	s.Equal(header.TransactionID, *reversal.ReversesTransactionID)

	// Every line mirrored with debit and credit swapped.
	s.Require().Len(reversal.Lines, 2)
	for i, line := range reversal.Lines {
		s.Equal(header.Lines[i].AccountID, line.AccountID)
		s.True(header.Lines[i].Debit.Equal(line.Credit))
		s.True(header.Lines[i].Credit.Equal(line.Debit))
	}

	original, err := s.env.container.Transactions.GetTransaction(s.env.ctx, s.env.tenantID, header.TransactionID)
	s.Require().NoError(err)
	s.Require().NotNil(original.ReversedByTransactionID)
	s.Equal(reversal.TransactionID, *original.ReversedByTransactionID)

	_, err = s.env.container.Transactions.ReverseTransaction(s.env.ctx, s.env.tenantID, header.TransactionID, nil, s.env.userID)
	s.ErrorIs(err, services.ErrAlreadyReversed)
}

func (s *TransactionServiceTestSuite) TestReverseTransaction_DefaultsToToday() {
	header := s.createTransaction("80.00")
	_, err := s.env.container.Transactions.PostTransaction(s.env.ctx, s.env.tenantID, header.TransactionID, s.env.userID)
	s.Require().NoError(err)

	// A month later, a reversal without a date lands on today, not on the
	// original's fiscal date.
	s.env.clock.now = time.Date(2025, time.July, 10, 12, 0, 0, 0, time.UTC)

	reversal, err := s.env.container.Transactions.ReverseTransaction(s.env.ctx, s.env.tenantID, header.TransactionID, nil, s.env.userID)
	s.Require().NoError(err)
	s.True(reversal.FiscalDate.Equal(s.env.clock.now))
	s.Equal(2026, reversal.FiscalYear)

	period, err := s.env.container.Fiscal.PeriodFor(s.env.ctx, s.env.tenantID, reversal.FiscalDate)
	s.Require().NoError(err)
	s.Equal(3, period.PeriodNumber)
}

func (s *TransactionServiceTestSuite) TestReverseTransaction_SuppliedDate() {
	header := s.createTransaction("80.00")
	_, err := s.env.container.Transactions.PostTransaction(s.env.ctx, s.env.tenantID, header.TransactionID, s.env.userID)
	s.Require().NoError(err)

	date := time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC)
	reversal, err := s.env.container.Transactions.ReverseTransaction(s.env.ctx, s.env.tenantID, header.TransactionID, &date, s.env.userID)
	s.Require().NoError(err)
	s.True(reversal.FiscalDate.Equal(date))
}

func (s *TransactionServiceTestSuite) TestTrialBalance() {
	first := s.createTransaction("100.00")
	_, err := s.env.container.Transactions.PostTransaction(s.env.ctx, s.env.tenantID, first.TransactionID, s.env.userID)
	s.Require().NoError(err)

	// A second, unposted transaction must not show up under postedOnly.
	s.createTransaction("40.00")

	from := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)

	rows, err := s.env.container.Transactions.TrialBalance(s.env.ctx, s.env.tenantID, from, to, true)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)

	byAccount := map[string]domain.TrialBalanceRow{}
	for _, row := range rows {
		byAccount[row.AccountID] = row
	}
	s.True(byAccount[s.cash.AccountID].Balance.Equal(dec("100.00")))
	s.True(byAccount[s.revenue.AccountID].Balance.Equal(dec("100.00")))

	// Without the filter both transactions aggregate.
	rows, err = s.env.container.Transactions.TrialBalance(s.env.ctx, s.env.tenantID, from, to, false)
	s.Require().NoError(err)
	byAccount = map[string]domain.TrialBalanceRow{}
	for _, row := range rows {
		byAccount[row.AccountID] = row
	}
	s.True(byAccount[s.cash.AccountID].Debits.Equal(dec("140.00")))
	s.True(byAccount[s.revenue.AccountID].Credits.Equal(dec("140.00")))
}

func (s *TransactionServiceTestSuite) TestTrialBalance_InvalidRange() {
	from := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	_, err := s.env.container.Transactions.TrialBalance(s.env.ctx, s.env.tenantID, from, to, true)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *TransactionServiceTestSuite) TestListLinesByAccount() {
	s.createTransaction("100.00")
	s.createTransaction("60.00")

	lines, _, err := s.env.container.Transactions.ListLinesByAccount(s.env.ctx, s.env.tenantID, s.cash.AccountID, dto.ListParams{})
	s.Require().NoError(err)
	s.Len(lines, 2)

	_, _, err = s.env.container.Transactions.ListLinesByAccount(s.env.ctx, s.env.tenantID, "missing", dto.ListParams{})
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func TestTransactionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TransactionServiceTestSuite))
}
