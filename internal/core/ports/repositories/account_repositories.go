package repositories

import (
	"context"
	"time"

	"github.com/finbooks/finbooks/internal/core/domain"
)

// AccountReader defines read operations for account data.
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// FindAccountByDescriptor retrieves the tenant's account with the given descriptor.
	FindAccountByDescriptor(ctx context.Context, tenantID string, descriptor string) (*domain.Account, error)

	// FindSegmentsByAccountID retrieves the account's segment assignments in
	// position order.
	FindSegmentsByAccountID(ctx context.Context, accountID string) ([]domain.AccountSegment, error)

	// FindAccountIDsBySegmentValue retrieves the IDs of every account containing
	// the given segment value.
	FindAccountIDsBySegmentValue(ctx context.Context, valueID string) ([]string, error)

	// ListAccounts retrieves a cursor-paginated list of accounts for a tenant.
	ListAccounts(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.Account, *string, error)
}

// AccountWriter defines write operations for account data.
type AccountWriter interface {
	// SaveAccountWithSegments persists a new account together with its segment
	// assignments atomically. Fails with apperrors.ErrDuplicate when the tenant
	// already has an account with the same descriptor.
	SaveAccountWithSegments(ctx context.Context, account domain.Account, segments []domain.AccountSegment) error

	// UpdateAccount updates an existing account's mutable details.
	UpdateAccount(ctx context.Context, account domain.Account) error

	// DeactivateAccount marks an account as inactive.
	DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error

	// ReplaceTrailingSegment atomically swaps the last-position assignment of one
	// account and rewrites the descriptors of every affected account.
	ReplaceTrailingSegment(ctx context.Context, accountID string, position int, newValueID string, descriptors map[string]string, userID string, now time.Time) error

	// UpdateDescriptors atomically rewrites the descriptor of each listed account.
	UpdateDescriptors(ctx context.Context, descriptors map[string]string, userID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
