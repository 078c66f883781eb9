package services

import (
	"context"
	"time"

	"github.com/finbooks/finbooks/internal/core/domain"
	"github.com/finbooks/finbooks/internal/dto"
)

// TransactionSvcFacade creates, posts and reverses GL transactions.
type TransactionSvcFacade interface {
	// CreateTransaction validates line shape, period gate, account eligibility
	// and exact balance, then persists the header and lines with a freshly
	// minted identifier.
	CreateTransaction(ctx context.Context, tenantID string, req dto.CreateTransactionRequest, userID string) (*domain.TransactionHeader, error)

	// PostTransaction moves a balanced transaction in an open period to the
	// terminal posted state.
	PostTransaction(ctx context.Context, tenantID string, transactionID string, userID string) (*domain.TransactionHeader, error)

	// ReverseTransaction creates and immediately posts a marker transaction with
	// every line's debit and credit swapped. The original is never mutated
	// beyond the reversal link.
	ReverseTransaction(ctx context.Context, tenantID string, transactionID string, reversalDate *time.Time, userID string) (*domain.TransactionHeader, error)

	// GetTransaction retrieves a header with its lines attached.
	GetTransaction(ctx context.Context, tenantID string, transactionID string) (*domain.TransactionHeader, error)

	// ListTransactions retrieves a cursor-paginated list of headers.
	ListTransactions(ctx context.Context, tenantID string, params dto.ListParams) ([]domain.TransactionHeader, *string, error)

	// ListLinesByAccount retrieves a cursor-paginated list of lines for one account.
	ListLinesByAccount(ctx context.Context, tenantID string, accountID string, params dto.ListParams) ([]domain.TransactionLine, *string, error)

	// TrialBalance aggregates account balances over the date range, each account
	// reported on its normal side.
	TrialBalance(ctx context.Context, tenantID string, from, to time.Time, postedOnly bool) ([]domain.TrialBalanceRow, error)
}
