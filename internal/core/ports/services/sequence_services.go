package services

import "context"

// SequenceSvc hands out gap-free numbers scoped by (tenant, type, fiscal year).
type SequenceSvc interface {
	NextNumber(ctx context.Context, tenantID string, sequenceType string, fiscalYear int) (int64, error)
}
