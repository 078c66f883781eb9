package repositories

import (
	"context"
	"time"

	"github.com/finbooks/finbooks/internal/core/domain"
)

// TransactionReader defines read operations for GL transactions.
type TransactionReader interface {
	// FindTransactionByID retrieves a header without its lines.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.TransactionHeader, error)

	// FindLinesByTransactionID retrieves all lines of one transaction.
	FindLinesByTransactionID(ctx context.Context, transactionID string) ([]domain.TransactionLine, error)

	// ListTransactions retrieves a cursor-paginated list of headers for a tenant,
	// newest fiscal date first.
	ListTransactions(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.TransactionHeader, *string, error)

	// ListLinesByAccount retrieves a cursor-paginated list of lines hitting one
	// account.
	ListLinesByAccount(ctx context.Context, tenantID string, accountID string, limit int, nextToken *string) ([]domain.TransactionLine, *string, error)

	// TrialBalance aggregates lines per account over the date range. When
	// postedOnly is true only posted headers contribute.
	TrialBalance(ctx context.Context, tenantID string, from, to time.Time, postedOnly bool) ([]domain.TrialBalanceRow, error)
}

// TransactionTxRepository exposes the mutations that must share one atomic
// store transaction. It is only reachable through WithinTx.
type TransactionTxRepository interface {
	// NextNumber draws the next sequence number inside the enclosing transaction,
	// so a failed insert rolls the number back with everything else.
	NextNumber(ctx context.Context, tenantID string, sequenceType string, fiscalYear int) (int64, error)

	// InsertTransaction persists a header and its lines.
	InsertTransaction(ctx context.Context, header domain.TransactionHeader, lines []domain.TransactionLine) error

	// FindTransactionByIDForUpdate retrieves a header and locks its row until the
	// transaction ends.
	FindTransactionByIDForUpdate(ctx context.Context, transactionID string) (*domain.TransactionHeader, error)

	// FindLinesByTransactionID retrieves all lines of one transaction.
	FindLinesByTransactionID(ctx context.Context, transactionID string) ([]domain.TransactionLine, error)

	// MarkPosted flips the posted flag. The guard `posted = false` is part of the
	// statement; zero rows affected surfaces apperrors.ErrConflict.
	MarkPosted(ctx context.Context, transactionID string, userID string, now time.Time) error

	// LinkReversal records on the original header which transaction reversed it.
	LinkReversal(ctx context.Context, originalID string, reversalID string, userID string, now time.Time) error
}

// TransactionRepositoryWithTx combines reads with transactional mutation support.
type TransactionRepositoryWithTx interface {
	TransactionReader

	// WithinTx executes fn inside a single atomic store transaction. A non-nil
	// error from fn rolls everything back.
	WithinTx(ctx context.Context, fn func(txRepo TransactionTxRepository) error) error
}
