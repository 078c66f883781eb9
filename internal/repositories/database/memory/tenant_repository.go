package memory

import (
	"context"
	"fmt"

	"github.com/finbooks/finbooks/internal/apperrors"
	"github.com/finbooks/finbooks/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
)

type memTenantRepository struct {
	store *Store
}

var _ portsrepo.TenantRepositoryFacade = (*memTenantRepository)(nil)

func (r *memTenantRepository) FindTenantByID(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tenant, ok := r.store.tenants[tenantID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &tenant, nil
}

func (r *memTenantRepository) SaveTenant(ctx context.Context, tenant domain.Tenant) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.tenants[tenant.TenantID]; ok {
		return fmt.Errorf("%w: tenant %s", apperrors.ErrDuplicate, tenant.TenantID)
	}
	r.store.tenants[tenant.TenantID] = tenant
	return nil
}
