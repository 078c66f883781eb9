package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/finbooks/finbooks/internal/apperrors"
	"github.com/finbooks/finbooks/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
)

type memSegmentRepository struct {
	store *Store
}

var _ portsrepo.SegmentRepositoryFacade = (*memSegmentRepository)(nil)

func (r *memSegmentRepository) FindDefinitionsByTenant(ctx context.Context, tenantID string) ([]domain.SegmentDefinition, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	definitions := []domain.SegmentDefinition{}
	for _, def := range r.store.definitions {
		if def.TenantID == tenantID {
			definitions = append(definitions, def)
		}
	}
	sort.Slice(definitions, func(i, j int) bool { return definitions[i].Position < definitions[j].Position })
	return definitions, nil
}

func (r *memSegmentRepository) FindDefinitionByID(ctx context.Context, definitionID string) (*domain.SegmentDefinition, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	def, ok := r.store.definitions[definitionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &def, nil
}

func (r *memSegmentRepository) UpsertDefinition(ctx context.Context, definition domain.SegmentDefinition) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// One definition per (tenant, position); replacing keeps the incoming ID.
	for id, existing := range r.store.definitions {
		if existing.TenantID == definition.TenantID && existing.Position == definition.Position && id != definition.SegmentDefinitionID {
			delete(r.store.definitions, id)
		}
	}
	r.store.definitions[definition.SegmentDefinitionID] = definition
	return nil
}

func (r *memSegmentRepository) FindValueByID(ctx context.Context, valueID string) (*domain.SegmentValue, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	value, ok := r.store.values[valueID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &value, nil
}

func (r *memSegmentRepository) FindValuesByIDs(ctx context.Context, valueIDs []string) (map[string]domain.SegmentValue, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	values := make(map[string]domain.SegmentValue, len(valueIDs))
	for _, id := range valueIDs {
		if value, ok := r.store.values[id]; ok {
			values[id] = value
		}
	}
	return values, nil
}

func (r *memSegmentRepository) FindValueByDefinitionAndCode(ctx context.Context, definitionID string, code string) (*domain.SegmentValue, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, value := range r.store.values {
		if value.SegmentDefinitionID == definitionID && value.Code == code {
			v := value
			return &v, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memSegmentRepository) ListValuesByDefinition(ctx context.Context, definitionID string) ([]domain.SegmentValue, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	values := []domain.SegmentValue{}
	for _, value := range r.store.values {
		if value.SegmentDefinitionID == definitionID {
			values = append(values, value)
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i].Code < values[j].Code })
	return values, nil
}

func (r *memSegmentRepository) SaveValue(ctx context.Context, value domain.SegmentValue) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.values {
		if existing.SegmentDefinitionID == value.SegmentDefinitionID && existing.Code == value.Code {
			return fmt.Errorf("%w: segment value %q", apperrors.ErrDuplicate, value.Code)
		}
	}
	r.store.values[value.SegmentValueID] = value
	return nil
}

func (r *memSegmentRepository) UpdateValue(ctx context.Context, value domain.SegmentValue) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.values[value.SegmentValueID]; !ok {
		return apperrors.ErrNotFound
	}
	for id, existing := range r.store.values {
		if id != value.SegmentValueID && existing.SegmentDefinitionID == value.SegmentDefinitionID && existing.Code == value.Code {
			return fmt.Errorf("%w: segment value %q", apperrors.ErrDuplicate, value.Code)
		}
	}
	r.store.values[value.SegmentValueID] = value
	return nil
}

func (r *memSegmentRepository) DeleteValue(ctx context.Context, valueID string, userID string, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.values[valueID]; !ok {
		return apperrors.ErrNotFound
	}
	for _, segments := range r.store.accountSegments {
		for _, segment := range segments {
			if segment.SegmentValueID == valueID {
				return fmt.Errorf("%w: segment value %s is referenced by accounts", apperrors.ErrConflict, valueID)
			}
		}
	}
	delete(r.store.values, valueID)
	return nil
}
