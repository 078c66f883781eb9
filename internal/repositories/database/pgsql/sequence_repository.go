package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
)

type PgxSequenceRepository struct {
	pool *pgxpool.Pool
}

func newPgxSequenceRepository(pool *pgxpool.Pool) portsrepo.SequenceRepository {
	return &PgxSequenceRepository{pool: pool}
}

var _ portsrepo.SequenceRepository = (*PgxSequenceRepository)(nil)

func (r *PgxSequenceRepository) NextNumber(ctx context.Context, tenantID string, sequenceType string, fiscalYear int) (int64, error) {
	return nextNumberIn(ctx, r.pool, tenantID, sequenceType, fiscalYear)
}

// nextNumberIn draws the next number in one atomic statement. The upsert takes
// a row lock, so concurrent callers on the same scope serialize and the counter
// never skips or repeats. Running it on a pgx.Tx ties the draw to that
// transaction's fate.
func nextNumberIn(ctx context.Context, q querier, tenantID string, sequenceType string, fiscalYear int) (int64, error) {
	query := `
		INSERT INTO sequence_numbers (tenant_id, sequence_type, fiscal_year, last_number)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (tenant_id, sequence_type, fiscal_year)
		DO UPDATE SET last_number = sequence_numbers.last_number + 1
		RETURNING last_number;
	`
	var number int64
	if err := q.QueryRow(ctx, query, tenantID, sequenceType, fiscalYear).Scan(&number); err != nil {
		return 0, fmt.Errorf("failed to draw next number for %s/FY%d: %w", sequenceType, fiscalYear, err)
	}
	return number, nil
}
