package services

import (
	"context"

	"github.com/finbooks/finbooks/internal/core/domain"
	"github.com/finbooks/finbooks/internal/dto"
)

// SegmentSvc manages segment definitions and values.
type SegmentSvc interface {
	// DefineSegment upserts the definition at a position; the resulting position
	// set must remain contiguous from 1.
	DefineSegment(ctx context.Context, tenantID string, req dto.DefineSegmentRequest, userID string) (*domain.SegmentDefinition, error)

	// ListSegmentDefinitions retrieves the tenant's definitions in position order.
	ListSegmentDefinitions(ctx context.Context, tenantID string) ([]domain.SegmentDefinition, error)

	// CreateSegmentValue creates a code under one definition; the code length
	// must equal the definition's length.
	CreateSegmentValue(ctx context.Context, tenantID string, req dto.CreateSegmentValueRequest, userID string) (*domain.SegmentValue, error)

	// UpdateSegmentValue changes a value; a code change cascades to the
	// descriptor of every account containing the value.
	UpdateSegmentValue(ctx context.Context, tenantID string, valueID string, req dto.UpdateSegmentValueRequest, userID string) (*domain.SegmentValue, error)

	// DeleteSegmentValue removes a value no account references.
	DeleteSegmentValue(ctx context.Context, tenantID string, valueID string, userID string) error
}

// AccountResolverSvc builds accounts from segment values.
type AccountResolverSvc interface {
	// ResolveAccount returns the account identified by the segment-value set,
	// creating it when absent. Resolution is idempotent: an existing account is
	// returned, not an error, unless the request demands a new one.
	ResolveAccount(ctx context.Context, tenantID string, req dto.ResolveAccountRequest, userID string) (*domain.Account, error)

	// ResolveAccountFromLastSegment synthesizes every non-trailing position from
	// its default handler and delegates to ResolveAccount.
	ResolveAccountFromLastSegment(ctx context.Context, tenantID string, req dto.ResolveFromLastSegmentRequest, userID string) (*domain.Account, error)

	// UpdateTrailingSegment replaces only the last-position assignment and
	// recomputes the descriptors of every account sharing the changed value.
	UpdateTrailingSegment(ctx context.Context, tenantID string, accountID string, newSegmentValueID string, userID string) (*domain.Account, error)
}

// AccountReaderSvc defines read operations for account data.
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account by its unique identifier.
	GetAccountByID(ctx context.Context, tenantID string, accountID string) (*domain.Account, error)

	// GetAccountsByIDs retrieves multiple accounts by their IDs.
	GetAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts retrieves a cursor-paginated list of accounts.
	ListAccounts(ctx context.Context, tenantID string, params dto.ListParams) ([]domain.Account, *string, error)
}

// AccountWriterSvc defines administrative write operations on accounts.
type AccountWriterSvc interface {
	// DeactivateAccount soft-disables an account; accounts referenced by lines
	// are never hard-deleted.
	DeactivateAccount(ctx context.Context, tenantID string, accountID string, userID string) error

	// SetAllowManualEntry toggles whether manual GL transactions may hit the account.
	SetAllowManualEntry(ctx context.Context, tenantID string, accountID string, allow bool, userID string) error
}

// AccountSvcFacade combines all account-related service interfaces.
type AccountSvcFacade interface {
	SegmentSvc
	AccountResolverSvc
	AccountReaderSvc
	AccountWriterSvc
}
