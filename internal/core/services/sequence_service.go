package services

import (
	"context"
	"fmt"

	"github.com/finbooks/finbooks/internal/apperrors"
	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
	portssvc "github.com/finbooks/finbooks/internal/core/ports/services"
)

// sequenceService hands out gap-free numbers. The atomicity lives in the
// repository; this layer only validates the scope.
type sequenceService struct {
	sequenceRepo portsrepo.SequenceRepository
}

// NewSequenceService creates a new SequenceSvc.
func NewSequenceService(sequenceRepo portsrepo.SequenceRepository) portssvc.SequenceSvc {
	return &sequenceService{sequenceRepo: sequenceRepo}
}

var _ portssvc.SequenceSvc = (*sequenceService)(nil)

func (s *sequenceService) NextNumber(ctx context.Context, tenantID string, sequenceType string, fiscalYear int) (int64, error) {
	if tenantID == "" || sequenceType == "" {
		return 0, fmt.Errorf("%w: sequence scope requires tenant and type", apperrors.ErrValidation)
	}
	if fiscalYear <= 0 {
		return 0, fmt.Errorf("%w: fiscal year must be positive, got %d", apperrors.ErrValidation, fiscalYear)
	}
	return s.sequenceRepo.NextNumber(ctx, tenantID, sequenceType, fiscalYear)
}
