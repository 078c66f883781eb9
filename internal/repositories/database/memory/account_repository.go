package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/finbooks/finbooks/internal/apperrors"
	"github.com/finbooks/finbooks/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
	"github.com/finbooks/finbooks/internal/utils/pagination"
)

type memAccountRepository struct {
	store *Store
}

var _ portsrepo.AccountRepositoryFacade = (*memAccountRepository)(nil)

func (r *memAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	account, ok := r.store.accounts[accountID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &account, nil
}

func (r *memAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	accounts := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if account, ok := r.store.accounts[id]; ok {
			accounts[id] = account
		}
	}
	return accounts, nil
}

func (r *memAccountRepository) FindAccountByDescriptor(ctx context.Context, tenantID string, descriptor string) (*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, account := range r.store.accounts {
		if account.TenantID == tenantID && account.Descriptor == descriptor {
			a := account
			return &a, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memAccountRepository) FindSegmentsByAccountID(ctx context.Context, accountID string) ([]domain.AccountSegment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	segments := make([]domain.AccountSegment, len(r.store.accountSegments[accountID]))
	copy(segments, r.store.accountSegments[accountID])
	sort.Slice(segments, func(i, j int) bool { return segments[i].Position < segments[j].Position })
	return segments, nil
}

func (r *memAccountRepository) FindAccountIDsBySegmentValue(ctx context.Context, valueID string) ([]string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	accountIDs := []string{}
	for accountID, segments := range r.store.accountSegments {
		for _, segment := range segments {
			if segment.SegmentValueID == valueID {
				accountIDs = append(accountIDs, accountID)
				break
			}
		}
	}
	sort.Strings(accountIDs)
	return accountIDs, nil
}

func (r *memAccountRepository) ListAccounts(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.Account, *string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	accounts := []domain.Account{}
	for _, account := range r.store.accounts {
		if account.TenantID == tenantID {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		if !accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
		}
		return accounts[i].AccountID < accounts[j].AccountID
	})

	start := 0
	if nextToken != nil && *nextToken != "" {
		cur, err := pagination.Decode(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)
		}
		for i, account := range accounts {
			if account.AccountID == cur.ID {
				start = i + 1
				break
			}
		}
	}

	end := start + limit
	var next *string
	if end < len(accounts) {
		last := accounts[end-1]
		token := pagination.Cursor{At: last.CreatedAt, ID: last.AccountID}.Token()
		next = &token
	} else {
		end = len(accounts)
	}
	return accounts[start:end], next, nil
}

func (r *memAccountRepository) SaveAccountWithSegments(ctx context.Context, account domain.Account, segments []domain.AccountSegment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.accounts {
		if existing.TenantID == account.TenantID && existing.Descriptor == account.Descriptor {
			return fmt.Errorf("%w: account %q", apperrors.ErrDuplicate, account.Descriptor)
		}
	}
	r.store.accounts[account.AccountID] = account
	cloned := make([]domain.AccountSegment, len(segments))
	copy(cloned, segments)
	r.store.accountSegments[account.AccountID] = cloned
	return nil
}

func (r *memAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.accounts[account.AccountID]
	if !ok {
		return apperrors.ErrNotFound
	}
	existing.Name = account.Name
	existing.IsActive = account.IsActive
	existing.AllowManualEntry = account.AllowManualEntry
	existing.LastUpdatedAt = account.LastUpdatedAt
	existing.LastUpdatedBy = account.LastUpdatedBy
	r.store.accounts[account.AccountID] = existing
	return nil
}

func (r *memAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	account, ok := r.store.accounts[accountID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if !account.IsActive {
		return fmt.Errorf("%w: account %s is already inactive", apperrors.ErrConflict, accountID)
	}
	account.IsActive = false
	account.Touch(now, userID)
	r.store.accounts[accountID] = account
	return nil
}

func (r *memAccountRepository) ReplaceTrailingSegment(ctx context.Context, accountID string, position int, newValueID string, descriptors map[string]string, userID string, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	segments, ok := r.store.accountSegments[accountID]
	if !ok {
		return apperrors.ErrNotFound
	}
	replaced := false
	for i := range segments {
		if segments[i].Position == position {
			segments[i].SegmentValueID = newValueID
			replaced = true
		}
	}
	if !replaced {
		return apperrors.ErrNotFound
	}
	return r.updateDescriptorsLocked(descriptors, userID, now)
}

func (r *memAccountRepository) UpdateDescriptors(ctx context.Context, descriptors map[string]string, userID string, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.updateDescriptorsLocked(descriptors, userID, now)
}

func (r *memAccountRepository) updateDescriptorsLocked(descriptors map[string]string, userID string, now time.Time) error {
	for accountID, descriptor := range descriptors {
		account, ok := r.store.accounts[accountID]
		if !ok {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
		}
		account.Descriptor = descriptor
		account.Touch(now, userID)
		r.store.accounts[accountID] = account
	}
	return nil
}
