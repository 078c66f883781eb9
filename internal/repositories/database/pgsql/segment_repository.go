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
)

type PgxSegmentRepository struct {
	pool       *pgxpool.Pool
	retryLimit int
}

func newPgxSegmentRepository(pool *pgxpool.Pool, retryLimit int) portsrepo.SegmentRepositoryFacade {
	return &PgxSegmentRepository{pool: pool, retryLimit: retryLimit}
}

var _ portsrepo.SegmentRepositoryFacade = (*PgxSegmentRepository)(nil)

const segmentDefinitionColumns = `segment_definition_id, tenant_id, position, length, description, default_handler, created_at, created_by, last_updated_at, last_updated_by`

func scanSegmentDefinition(row pgx.Row) (domain.SegmentDefinition, error) {
	var def domain.SegmentDefinition
	err := row.Scan(
		&def.SegmentDefinitionID,
		&def.TenantID,
		&def.Position,
		&def.Length,
		&def.Description,
		&def.DefaultHandler,
		&def.CreatedAt,
		&def.CreatedBy,
		&def.LastUpdatedAt,
		&def.LastUpdatedBy,
	)
	return def, err
}

func (r *PgxSegmentRepository) FindDefinitionsByTenant(ctx context.Context, tenantID string) ([]domain.SegmentDefinition, error) {
	query := `
		SELECT ` + segmentDefinitionColumns + `
		FROM segment_definitions
		WHERE tenant_id = $1
		ORDER BY position;
	`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query segment definitions for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	definitions := []domain.SegmentDefinition{}
	for rows.Next() {
		def, err := scanSegmentDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan segment definition row: %w", err)
		}
		definitions = append(definitions, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segment definition rows: %w", err)
	}
	return definitions, nil
}

func (r *PgxSegmentRepository) FindDefinitionByID(ctx context.Context, definitionID string) (*domain.SegmentDefinition, error) {
	query := `
		SELECT ` + segmentDefinitionColumns + `
		FROM segment_definitions
		WHERE segment_definition_id = $1;
	`
	def, err := scanSegmentDefinition(r.pool.QueryRow(ctx, query, definitionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find segment definition %s: %w", definitionID, err)
	}
	return &def, nil
}

func (r *PgxSegmentRepository) UpsertDefinition(ctx context.Context, definition domain.SegmentDefinition) error {
	query := `
		INSERT INTO segment_definitions (` + segmentDefinitionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tenant_id, position) DO UPDATE SET
			length = EXCLUDED.length,
			description = EXCLUDED.description,
			default_handler = EXCLUDED.default_handler,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.pool.Exec(ctx, query,
		definition.SegmentDefinitionID,
		definition.TenantID,
		definition.Position,
		definition.Length,
		definition.Description,
		definition.DefaultHandler,
		definition.CreatedAt,
		definition.CreatedBy,
		definition.LastUpdatedAt,
		definition.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert segment definition at position %d: %w", definition.Position, err)
	}
	return nil
}

const segmentValueColumns = `segment_value_id, segment_definition_id, tenant_id, code, description, is_active, created_at, created_by, last_updated_at, last_updated_by`

func scanSegmentValue(row pgx.Row) (domain.SegmentValue, error) {
	var value domain.SegmentValue
	err := row.Scan(
		&value.SegmentValueID,
		&value.SegmentDefinitionID,
		&value.TenantID,
		&value.Code,
		&value.Description,
		&value.IsActive,
		&value.CreatedAt,
		&value.CreatedBy,
		&value.LastUpdatedAt,
		&value.LastUpdatedBy,
	)
	return value, err
}

func (r *PgxSegmentRepository) FindValueByID(ctx context.Context, valueID string) (*domain.SegmentValue, error) {
	query := `
		SELECT ` + segmentValueColumns + `
		FROM segment_values
		WHERE segment_value_id = $1;
	`
	value, err := scanSegmentValue(r.pool.QueryRow(ctx, query, valueID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find segment value %s: %w", valueID, err)
	}
	return &value, nil
}

func (r *PgxSegmentRepository) FindValuesByIDs(ctx context.Context, valueIDs []string) (map[string]domain.SegmentValue, error) {
	if len(valueIDs) == 0 {
		return map[string]domain.SegmentValue{}, nil
	}
	query := `
		SELECT ` + segmentValueColumns + `
		FROM segment_values
		WHERE segment_value_id = ANY($1);
	`
	rows, err := r.pool.Query(ctx, query, valueIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query segment values by IDs: %w", err)
	}
	defer rows.Close()

	values := make(map[string]domain.SegmentValue)
	for rows.Next() {
		value, err := scanSegmentValue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan segment value row: %w", err)
		}
		values[value.SegmentValueID] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segment value rows: %w", err)
	}
	return values, nil
}

func (r *PgxSegmentRepository) FindValueByDefinitionAndCode(ctx context.Context, definitionID string, code string) (*domain.SegmentValue, error) {
	query := `
		SELECT ` + segmentValueColumns + `
		FROM segment_values
		WHERE segment_definition_id = $1 AND code = $2;
	`
	value, err := scanSegmentValue(r.pool.QueryRow(ctx, query, definitionID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find segment value %q under definition %s: %w", code, definitionID, err)
	}
	return &value, nil
}

func (r *PgxSegmentRepository) ListValuesByDefinition(ctx context.Context, definitionID string) ([]domain.SegmentValue, error) {
	query := `
		SELECT ` + segmentValueColumns + `
		FROM segment_values
		WHERE segment_definition_id = $1
		ORDER BY code;
	`
	rows, err := r.pool.Query(ctx, query, definitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query segment values for definition %s: %w", definitionID, err)
	}
	defer rows.Close()

	values := []domain.SegmentValue{}
	for rows.Next() {
		value, err := scanSegmentValue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan segment value row: %w", err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segment value rows: %w", err)
	}
	return values, nil
}

func (r *PgxSegmentRepository) SaveValue(ctx context.Context, value domain.SegmentValue) error {
	query := `
		INSERT INTO segment_values (` + segmentValueColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.pool.Exec(ctx, query,
		value.SegmentValueID,
		value.SegmentDefinitionID,
		value.TenantID,
		value.Code,
		value.Description,
		value.IsActive,
		value.CreatedAt,
		value.CreatedBy,
		value.LastUpdatedAt,
		value.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: segment value %q", apperrors.ErrDuplicate, value.Code)
		}
		return fmt.Errorf("failed to save segment value %q: %w", value.Code, err)
	}
	return nil
}

func (r *PgxSegmentRepository) UpdateValue(ctx context.Context, value domain.SegmentValue) error {
	query := `
		UPDATE segment_values
		SET code = $2, description = $3, is_active = $4, last_updated_at = $5, last_updated_by = $6
		WHERE segment_value_id = $1;
	`
	cmdTag, err := r.pool.Exec(ctx, query,
		value.SegmentValueID,
		value.Code,
		value.Description,
		value.IsActive,
		value.LastUpdatedAt,
		value.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: segment value %q", apperrors.ErrDuplicate, value.Code)
		}
		return fmt.Errorf("failed to update segment value %s: %w", value.SegmentValueID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxSegmentRepository) DeleteValue(ctx context.Context, valueID string, userID string, now time.Time) error {
	return runInTx(ctx, r.pool, r.retryLimit, func(tx pgx.Tx) error {
		var referenced bool
		err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM account_segments WHERE segment_value_id = $1)`, valueID).Scan(&referenced)
		if err != nil {
			return fmt.Errorf("failed to check segment value references: %w", err)
		}
		if referenced {
			return fmt.Errorf("%w: segment value %s is referenced by accounts", apperrors.ErrConflict, valueID)
		}

		cmdTag, err := tx.Exec(ctx, `DELETE FROM segment_values WHERE segment_value_id = $1`, valueID)
		if err != nil {
			return fmt.Errorf("failed to delete segment value %s: %w", valueID, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}
