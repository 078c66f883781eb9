package repositories

import "context"

// SequenceRepository produces gap-free, monotonically increasing numbers scoped
// by (tenant, sequence type, fiscal year). The first number in a scope is 1.
//
// Implementations must make NextNumber atomic: concurrent callers on the same
// scope never observe the same number twice and never leave a gap, except when
// an enclosing store transaction rolls back.
type SequenceRepository interface {
	NextNumber(ctx context.Context, tenantID string, sequenceType string, fiscalYear int) (int64, error)
}
