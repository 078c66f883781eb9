package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finbooks/finbooks/internal/apperrors"
	"github.com/finbooks/finbooks/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
	portssvc "github.com/finbooks/finbooks/internal/core/ports/services"
	"github.com/finbooks/finbooks/internal/dto"
	"github.com/finbooks/finbooks/internal/platform/logging"
	"github.com/finbooks/finbooks/internal/utils/accounting"
)

var (
	ErrUnbalanced            = errors.New("transaction debits and credits are not equal")
	ErrLineShape             = errors.New("exactly one of debit or credit must be set and positive")
	ErrInactiveAccount       = errors.New("account is inactive")
	ErrManualEntryRestricted = errors.New("account does not allow manual entries")
	ErrAlreadyPosted         = errors.New("transaction is already posted")
	ErrAlreadyReversed       = errors.New("transaction is already reversed")
	ErrNotPosted             = errors.New("transaction is not posted")
)

// transactionService creates, posts and reverses GL transactions.
type transactionService struct {
	transactionRepo portsrepo.TransactionRepositoryWithTx
	accountSvc      portssvc.AccountReaderSvc
	fiscalSvc       portssvc.FiscalSvcFacade
	clock           portssvc.Clock
}

// NewTransactionService creates a new TransactionSvcFacade.
func NewTransactionService(transactionRepo portsrepo.TransactionRepositoryWithTx, accountSvc portssvc.AccountReaderSvc, fiscalSvc portssvc.FiscalSvcFacade, clock portssvc.Clock) portssvc.TransactionSvcFacade {
	return &transactionService{
		transactionRepo: transactionRepo,
		accountSvc:      accountSvc,
		fiscalSvc:       fiscalSvc,
		clock:           clock,
	}
}

var _ portssvc.TransactionSvcFacade = (*transactionService)(nil)

func (s *transactionService) CreateTransaction(ctx context.Context, tenantID string, req dto.CreateTransactionRequest, userID string) (*domain.TransactionHeader, error) {
	logger := logging.GetLoggerFromCtx(ctx)
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	module, err := req.Type.Module()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := s.assertPeriodOpen(ctx, tenantID, req.FiscalDate, module, userID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	lines := make([]domain.TransactionLine, len(req.Lines))
	accountIDs := make([]string, 0, len(req.Lines))
	for i, lineReq := range req.Lines {
		debit := accounting.Round(lineReq.Debit, accounting.StorageScale)
		credit := accounting.Round(lineReq.Credit, accounting.StorageScale)
		if debit.IsNegative() || credit.IsNegative() {
			return nil, fmt.Errorf("%w: line %d carries a negative amount", ErrLineShape, i+1)
		}
		if debit.IsPositive() == credit.IsPositive() {
			return nil, fmt.Errorf("%w: line %d", ErrLineShape, i+1)
		}
		lines[i] = domain.TransactionLine{
			LineID:    uuid.NewString(),
			AccountID: lineReq.AccountID,
			Debit:     debit,
			Credit:    credit,
			Notes:     lineReq.Notes,
			AuditFields: domain.NewAudit(now, userID),
		}
		accountIDs = append(accountIDs, lineReq.AccountID)
	}

	if err := s.checkAccounts(ctx, tenantID, accountIDs, req.Type); err != nil {
		return nil, err
	}

	// Exact-precision balance, no tolerance.
	debits, credits := accounting.SumSides(lines)
	if !debits.Equal(credits) {
		return nil, fmt.Errorf("%w: debits %s, credits %s", ErrUnbalanced, debits.String(), credits.String())
	}

	fiscalYear, err := s.fiscalSvc.FiscalYearFor(ctx, tenantID, req.FiscalDate)
	if err != nil {
		return nil, err
	}

	header := domain.TransactionHeader{
		TenantID:    tenantID,
		FiscalYear:  fiscalYear,
		Type:        req.Type,
		FiscalDate:  req.FiscalDate,
		Description: req.Description,
		Balanced:    true,
		AuditFields: domain.NewAudit(now, userID),
	}

	err = s.transactionRepo.WithinTx(ctx, func(txRepo portsrepo.TransactionTxRepository) error {
		number, err := txRepo.NextNumber(ctx, tenantID, req.Type.SequenceType(), fiscalYear)
		if err != nil {
			return fmt.Errorf("failed to draw transaction number: %w", err)
		}
		header.Number = number
		header.TransactionID = domain.TransactionID(fiscalYear, req.Type, number)
		for i := range lines {
			lines[i].TransactionID = header.TransactionID
		}
		return txRepo.InsertTransaction(ctx, header, lines)
	})
	if err != nil {
		return nil, err
	}

	header.Lines = lines
	logger.Info("Transaction created",
		slog.String("transaction_id", header.TransactionID),
		slog.String("type", string(header.Type)),
		slog.Int("line_count", len(lines)))
	return &header, nil
}

// checkAccounts verifies every referenced account exists, is active and, for
// manual transactions, permits manual entries.
func (s *transactionService) checkAccounts(ctx context.Context, tenantID string, accountIDs []string, txType domain.TransactionType) error {
	accounts, err := s.accountSvc.GetAccountsByIDs(ctx, tenantID, accountIDs)
	if err != nil {
		return fmt.Errorf("failed to load line accounts: %w", err)
	}
	for _, id := range accountIDs {
		account, ok := accounts[id]
		if !ok {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
		if !account.IsActive {
			return fmt.Errorf("%w: account %s", ErrInactiveAccount, account.Descriptor)
		}
		if txType == domain.Manual && !account.AllowManualEntry {
			return fmt.Errorf("%w: account %s", ErrManualEntryRestricted, account.Descriptor)
		}
	}
	return nil
}

// assertPeriodOpen lazily creates the current month's period, then checks the
// module gate for the date.
func (s *transactionService) assertPeriodOpen(ctx context.Context, tenantID string, date time.Time, module domain.Module, userID string) error {
	if _, err := s.fiscalSvc.GetOrCreatePeriod(ctx, tenantID, date, true, userID); err != nil && !errors.Is(err, ErrPeriodNotAllowed) {
		return err
	}
	return s.fiscalSvc.AssertOpen(ctx, tenantID, date, module)
}

func (s *transactionService) PostTransaction(ctx context.Context, tenantID string, transactionID string, userID string) (*domain.TransactionHeader, error) {
	logger := logging.GetLoggerFromCtx(ctx)

	preview, err := s.transactionRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if preview.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	module, err := preview.Type.Module()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}
	// The period may have closed since creation.
	if err := s.fiscalSvc.AssertOpen(ctx, tenantID, preview.FiscalDate, module); err != nil {
		return nil, err
	}

	var posted *domain.TransactionHeader
	err = s.transactionRepo.WithinTx(ctx, func(txRepo portsrepo.TransactionTxRepository) error {
		header, err := txRepo.FindTransactionByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if header.Posted {
			return fmt.Errorf("%w: %s", ErrAlreadyPosted, transactionID)
		}
		if !header.Balanced {
			return fmt.Errorf("%w: %s", ErrUnbalanced, transactionID)
		}

		now := s.clock.Now()
		if err := txRepo.MarkPosted(ctx, transactionID, userID, now); err != nil {
			return err
		}
		header.Posted = true
		header.Touch(now, userID)
		posted = header
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Transaction posted", slog.String("transaction_id", transactionID))
	return posted, nil
}

func (s *transactionService) ReverseTransaction(ctx context.Context, tenantID string, transactionID string, reversalDate *time.Time, userID string) (*domain.TransactionHeader, error) {
	logger := logging.GetLoggerFromCtx(ctx)

	preview, err := s.transactionRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if preview.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}

	date := s.clock.Now()
	if reversalDate != nil {
		date = *reversalDate
	}
	module, err := preview.Type.Module()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}
	if err := s.assertPeriodOpen(ctx, tenantID, date, module, userID); err != nil {
		return nil, err
	}
	fiscalYear, err := s.fiscalSvc.FiscalYearFor(ctx, tenantID, date)
	if err != nil {
		return nil, err
	}

	var reversal *domain.TransactionHeader
	err = s.transactionRepo.WithinTx(ctx, func(txRepo portsrepo.TransactionTxRepository) error {
		original, err := txRepo.FindTransactionByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if !original.Posted {
			return fmt.Errorf("%w: %s", ErrNotPosted, transactionID)
		}
		if original.ReversedByTransactionID != nil {
			return fmt.Errorf("%w: %s reversed by %s", ErrAlreadyReversed, transactionID, *original.ReversedByTransactionID)
		}

		originalLines, err := txRepo.FindLinesByTransactionID(ctx, transactionID)
		if err != nil {
			return fmt.Errorf("failed to load lines of %s: %w", transactionID, err)
		}

		number, err := txRepo.NextNumber(ctx, tenantID, original.Type.SequenceType(), fiscalYear)
		if err != nil {
			return fmt.Errorf("failed to draw reversal number: %w", err)
		}

		now := s.clock.Now()
		header := domain.TransactionHeader{
			TransactionID:         domain.TransactionID(fiscalYear, original.Type, number),
			TenantID:              tenantID,
			FiscalYear:            fiscalYear,
			Type:                  original.Type,
			Number:                number,
			FiscalDate:            date,
			Description:           fmt.Sprintf("Reversal of %s", transactionID),
			Balanced:              true,
			Posted:                true,
			ReversesTransactionID: &original.TransactionID,
			AuditFields: domain.NewAudit(now, userID),
		}

		// Mirror every line with debit and credit swapped.
		lines := make([]domain.TransactionLine, len(originalLines))
		for i, line := range originalLines {
			lines[i] = domain.TransactionLine{
				LineID:        uuid.NewString(),
				TransactionID: header.TransactionID,
				AccountID:     line.AccountID,
				Debit:         line.Credit,
				Credit:        line.Debit,
				Notes:         line.Notes,
				AuditFields: domain.NewAudit(now, userID),
			}
		}

		if err := txRepo.InsertTransaction(ctx, header, lines); err != nil {
			return err
		}
		if err := txRepo.LinkReversal(ctx, transactionID, header.TransactionID, userID, now); err != nil {
			return err
		}
		header.Lines = lines
		reversal = &header
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Transaction reversed",
		slog.String("transaction_id", transactionID),
		slog.String("reversal_id", reversal.TransactionID))
	return reversal, nil
}

func (s *transactionService) GetTransaction(ctx context.Context, tenantID string, transactionID string) (*domain.TransactionHeader, error) {
	header, err := s.transactionRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if header.TenantID != tenantID {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("transaction %s not found", transactionID))
	}
	lines, err := s.transactionRepo.FindLinesByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines of %s: %w", transactionID, err)
	}
	header.Lines = lines
	return header, nil
}

func (s *transactionService) ListTransactions(ctx context.Context, tenantID string, params dto.ListParams) ([]domain.TransactionHeader, *string, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	return s.transactionRepo.ListTransactions(ctx, tenantID, limit, params.NextToken)
}

func (s *transactionService) ListLinesByAccount(ctx context.Context, tenantID string, accountID string, params dto.ListParams) ([]domain.TransactionLine, *string, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	if _, err := s.accountSvc.GetAccountByID(ctx, tenantID, accountID); err != nil {
		return nil, nil, err
	}
	return s.transactionRepo.ListLinesByAccount(ctx, tenantID, accountID, limit, params.NextToken)
}

func (s *transactionService) TrialBalance(ctx context.Context, tenantID string, from, to time.Time, postedOnly bool) ([]domain.TrialBalanceRow, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end precedes start", apperrors.ErrValidation)
	}
	rows, err := s.transactionRepo.TrialBalance(ctx, tenantID, from, to, postedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate trial balance: %w", err)
	}
	// The aggregate of normal-side balances must net out per side.
	var debits, credits decimal.Decimal
	for _, row := range rows {
		debits = debits.Add(row.Debits)
		credits = credits.Add(row.Credits)
	}
	if postedOnly && !debits.Equal(credits) {
		return rows, fmt.Errorf("%w: trial balance out of balance, debits %s credits %s", apperrors.ErrInternal, debits.String(), credits.String())
	}
	return rows, nil
}
