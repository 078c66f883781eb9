package dto

import "github.com/finbooks/finbooks/internal/core/domain"

// ResolveAccountRequest resolves or creates the account identified by the full
// set of segment values.
type ResolveAccountRequest struct {
	SegmentValueIDs  []string           `json:"segmentValueIDs" validate:"required,min=1,dive,required"`
	Name             string             `json:"name"`
	AccountType      domain.AccountType `json:"accountType" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	AllowManualEntry bool               `json:"allowManualEntry"`

	// RequireNew makes resolution fail with a duplicate error instead of
	// returning the existing account.
	RequireNew bool `json:"requireNew"`
}

// ResolveFromLastSegmentRequest resolves an account from its trailing segment
// only; the other positions are synthesized by their default handlers.
type ResolveFromLastSegmentRequest struct {
	SegmentValueID   string             `json:"segmentValueID" validate:"required"`
	Name             string             `json:"name"`
	AccountType      domain.AccountType `json:"accountType" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	AllowManualEntry bool               `json:"allowManualEntry"`
}

// ListParams holds cursor pagination parameters shared by list operations.
type ListParams struct {
	Limit     int     `json:"limit" validate:"omitempty,min=1,max=200"`
	NextToken *string `json:"nextToken"`
}
