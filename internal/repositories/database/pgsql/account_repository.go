package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finbooks/finbooks/internal/apperrors"
	"github.com/finbooks/finbooks/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
	"github.com/finbooks/finbooks/internal/utils/pagination"
)

type PgxAccountRepository struct {
	pool       *pgxpool.Pool
	retryLimit int
}

func newPgxAccountRepository(pool *pgxpool.Pool, retryLimit int) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{pool: pool, retryLimit: retryLimit}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

const accountColumns = `account_id, tenant_id, descriptor, name, account_type, is_active, allow_manual_entry, created_at, created_by, last_updated_at, last_updated_by`

func scanAccount(row pgx.Row) (domain.Account, error) {
	var account domain.Account
	err := row.Scan(
		&account.AccountID,
		&account.TenantID,
		&account.Descriptor,
		&account.Name,
		&account.AccountType,
		&account.IsActive,
		&account.AllowManualEntry,
		&account.CreatedAt,
		&account.CreatedBy,
		&account.LastUpdatedAt,
		&account.LastUpdatedBy,
	)
	return account, err
}

func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`
	account, err := scanAccount(r.pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	return &account, nil
}

func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ANY($1);`
	rows, err := r.pool.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by IDs: %w", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts[account.AccountID] = account
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

func (r *PgxAccountRepository) FindAccountByDescriptor(ctx context.Context, tenantID string, descriptor string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE tenant_id = $1 AND descriptor = $2;`
	account, err := scanAccount(r.pool.QueryRow(ctx, query, tenantID, descriptor))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account %q: %w", descriptor, err)
	}
	return &account, nil
}

func (r *PgxAccountRepository) FindSegmentsByAccountID(ctx context.Context, accountID string) ([]domain.AccountSegment, error) {
	query := `
		SELECT account_id, position, segment_value_id
		FROM account_segments
		WHERE account_id = $1
		ORDER BY position;
	`
	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments for account %s: %w", accountID, err)
	}
	defer rows.Close()

	segments := []domain.AccountSegment{}
	for rows.Next() {
		var segment domain.AccountSegment
		if err := rows.Scan(&segment.AccountID, &segment.Position, &segment.SegmentValueID); err != nil {
			return nil, fmt.Errorf("failed to scan account segment row: %w", err)
		}
		segments = append(segments, segment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account segment rows: %w", err)
	}
	return segments, nil
}

func (r *PgxAccountRepository) FindAccountIDsBySegmentValue(ctx context.Context, valueID string) ([]string, error) {
	query := `SELECT account_id FROM account_segments WHERE segment_value_id = $1;`
	rows, err := r.pool.Query(ctx, query, valueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by segment value %s: %w", valueID, err)
	}
	defer rows.Close()

	accountIDs := []string{}
	for rows.Next() {
		var accountID string
		if err := rows.Scan(&accountID); err != nil {
			return nil, fmt.Errorf("failed to scan account id: %w", err)
		}
		accountIDs = append(accountIDs, accountID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account id rows: %w", err)
	}
	return accountIDs, nil
}

// ListAccounts pages by (created_at, account_id), oldest first, so concurrent
// inserts never shift earlier pages.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.Account, *string, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id = $1
	`
	args := []any{tenantID}
	if nextToken != nil && *nextToken != "" {
		cur, err := pagination.Decode(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)
		}
		query += ` AND (created_at, account_id) > ($2, $3)`
		args = append(args, cur.At, cur.ID)
	}
	query += fmt.Sprintf(` ORDER BY created_at, account_id LIMIT $%d;`, len(args)+1)
	args = append(args, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query accounts for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating account rows: %w", err)
	}

	var next *string
	if len(accounts) > limit {
		accounts = accounts[:limit]
		last := accounts[len(accounts)-1]
		token := pagination.Cursor{At: last.CreatedAt, ID: last.AccountID}.Token()
		next = &token
	}
	return accounts, next, nil
}

func (r *PgxAccountRepository) SaveAccountWithSegments(ctx context.Context, account domain.Account, segments []domain.AccountSegment) error {
	return runInTx(ctx, r.pool, r.retryLimit, func(tx pgx.Tx) error {
		query := `
			INSERT INTO accounts (` + accountColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
		`
		_, err := tx.Exec(ctx, query,
			account.AccountID,
			account.TenantID,
			account.Descriptor,
			account.Name,
			account.AccountType,
			account.IsActive,
			account.AllowManualEntry,
			account.CreatedAt,
			account.CreatedBy,
			account.LastUpdatedAt,
			account.LastUpdatedBy,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: account %q", apperrors.ErrDuplicate, account.Descriptor)
			}
			return fmt.Errorf("failed to save account %q: %w", account.Descriptor, err)
		}

		batch := &pgx.Batch{}
		for _, segment := range segments {
			batch.Queue(
				`INSERT INTO account_segments (account_id, position, segment_value_id) VALUES ($1, $2, $3)`,
				segment.AccountID, segment.Position, segment.SegmentValueID,
			)
		}
		br := tx.SendBatch(ctx, batch)
		for range segments {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("failed to save account segments: %w", err)
			}
		}
		return br.Close()
	})
}

func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, is_active = $3, allow_manual_entry = $4, last_updated_at = $5, last_updated_by = $6
		WHERE account_id = $1;
	`
	cmdTag, err := r.pool.Exec(ctx, query,
		account.AccountID,
		account.Name,
		account.IsActive,
		account.AllowManualEntry,
		account.LastUpdatedAt,
		account.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", account.AccountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE account_id = $1 AND is_active = TRUE;
	`
	cmdTag, err := r.pool.Exec(ctx, query, accountID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate account %s: %w", accountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindAccountByID(ctx, accountID); findErr != nil {
			return findErr
		}
		return fmt.Errorf("%w: account %s is already inactive", apperrors.ErrConflict, accountID)
	}
	return nil
}

func (r *PgxAccountRepository) ReplaceTrailingSegment(ctx context.Context, accountID string, position int, newValueID string, descriptors map[string]string, userID string, now time.Time) error {
	return runInTx(ctx, r.pool, r.retryLimit, func(tx pgx.Tx) error {
		cmdTag, err := tx.Exec(ctx,
			`UPDATE account_segments SET segment_value_id = $3 WHERE account_id = $1 AND position = $2`,
			accountID, position, newValueID,
		)
		if err != nil {
			return fmt.Errorf("failed to replace segment at position %d of account %s: %w", position, accountID, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrNotFound
		}
		return updateDescriptorsIn(ctx, tx, descriptors, userID, now)
	})
}

func (r *PgxAccountRepository) UpdateDescriptors(ctx context.Context, descriptors map[string]string, userID string, now time.Time) error {
	return runInTx(ctx, r.pool, r.retryLimit, func(tx pgx.Tx) error {
		return updateDescriptorsIn(ctx, tx, descriptors, userID, now)
	})
}

func updateDescriptorsIn(ctx context.Context, tx pgx.Tx, descriptors map[string]string, userID string, now time.Time) error {
	if len(descriptors) == 0 {
		return nil
	}
	query := `
		UPDATE accounts
		SET descriptor = $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`
	batch := &pgx.Batch{}
	accountIDs := make([]string, 0, len(descriptors))
	for accountID, descriptor := range descriptors {
		batch.Queue(query, accountID, descriptor, now, userID)
		accountIDs = append(accountIDs, accountID)
	}
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		cmdTag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: descriptor %q", apperrors.ErrDuplicate, descriptors[accountIDs[i]])
			}
			return fmt.Errorf("failed to rewrite descriptor of account %s: %w", accountIDs[i], err)
		}
		if cmdTag.RowsAffected() == 0 {
			_ = br.Close()
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountIDs[i])
		}
	}
	return br.Close()
}
