package memory

import (
	"context"

	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
)

type memSequenceRepository struct {
	store *Store
}

var _ portsrepo.SequenceRepository = (*memSequenceRepository)(nil)

func (r *memSequenceRepository) NextNumber(ctx context.Context, tenantID string, sequenceType string, fiscalYear int) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.nextNumberLocked(tenantID, sequenceType, fiscalYear), nil
}

func (s *Store) nextNumberLocked(tenantID string, sequenceType string, fiscalYear int) int64 {
	key := sequenceKey{TenantID: tenantID, SequenceType: sequenceType, FiscalYear: fiscalYear}
	s.sequences[key]++
	return s.sequences[key]
}
