package repositories

import (
	"context"
	"time"

	"github.com/finbooks/finbooks/internal/core/domain"
)

// SegmentDefinitionReader defines read operations for segment definitions.
type SegmentDefinitionReader interface {
	// FindDefinitionsByTenant retrieves all segment definitions for a tenant,
	// ordered by position.
	FindDefinitionsByTenant(ctx context.Context, tenantID string) ([]domain.SegmentDefinition, error)

	// FindDefinitionByID retrieves a specific segment definition.
	FindDefinitionByID(ctx context.Context, definitionID string) (*domain.SegmentDefinition, error)
}

// SegmentDefinitionWriter defines write operations for segment definitions.
type SegmentDefinitionWriter interface {
	// UpsertDefinition inserts or replaces the definition at its position.
	UpsertDefinition(ctx context.Context, definition domain.SegmentDefinition) error
}

// SegmentValueReader defines read operations for segment values.
type SegmentValueReader interface {
	// FindValueByID retrieves a specific segment value.
	FindValueByID(ctx context.Context, valueID string) (*domain.SegmentValue, error)

	// FindValuesByIDs retrieves multiple segment values by their IDs.
	FindValuesByIDs(ctx context.Context, valueIDs []string) (map[string]domain.SegmentValue, error)

	// FindValueByDefinitionAndCode retrieves the value with the given code under
	// one definition.
	FindValueByDefinitionAndCode(ctx context.Context, definitionID string, code string) (*domain.SegmentValue, error)

	// ListValuesByDefinition retrieves all values under one definition.
	ListValuesByDefinition(ctx context.Context, definitionID string) ([]domain.SegmentValue, error)
}

// SegmentValueWriter defines write operations for segment values.
type SegmentValueWriter interface {
	// SaveValue persists a new segment value.
	SaveValue(ctx context.Context, value domain.SegmentValue) error

	// UpdateValue updates a segment value's code, description or active flag.
	UpdateValue(ctx context.Context, value domain.SegmentValue) error

	// DeleteValue removes an unreferenced segment value. It fails with
	// apperrors.ErrConflict when any account still references the value.
	DeleteValue(ctx context.Context, valueID string, userID string, now time.Time) error
}

// SegmentRepositoryFacade combines all segment-related repository interfaces.
type SegmentRepositoryFacade interface {
	SegmentDefinitionReader
	SegmentDefinitionWriter
	SegmentValueReader
	SegmentValueWriter
}
