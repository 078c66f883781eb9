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

type PgxFiscalRepository struct {
	pool *pgxpool.Pool
}

func newPgxFiscalRepository(pool *pgxpool.Pool) portsrepo.FiscalRepositoryFacade {
	return &PgxFiscalRepository{pool: pool}
}

var _ portsrepo.FiscalRepositoryFacade = (*PgxFiscalRepository)(nil)

func (r *PgxFiscalRepository) FindSetupByTenant(ctx context.Context, tenantID string) (*domain.FiscalYearSetup, error) {
	query := `
		SELECT tenant_id, start_month, start_day, created_at, created_by, last_updated_at, last_updated_by
		FROM fiscal_year_setups
		WHERE tenant_id = $1;
	`
	var setup domain.FiscalYearSetup
	var startMonth int
	err := r.pool.QueryRow(ctx, query, tenantID).Scan(
		&setup.TenantID,
		&startMonth,
		&setup.StartDay,
		&setup.CreatedAt,
		&setup.CreatedBy,
		&setup.LastUpdatedAt,
		&setup.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find fiscal setup for tenant %s: %w", tenantID, err)
	}
	setup.StartMonth = time.Month(startMonth)
	return &setup, nil
}

const fiscalPeriodColumns = `fiscal_period_id, tenant_id, fiscal_year, period_number, start_date, end_date, open_gl, open_bank, open_receivables, open_payables, created_at, created_by, last_updated_at, last_updated_by`

func scanFiscalPeriod(row pgx.Row) (domain.FiscalPeriod, error) {
	var period domain.FiscalPeriod
	err := row.Scan(
		&period.FiscalPeriodID,
		&period.TenantID,
		&period.FiscalYear,
		&period.PeriodNumber,
		&period.StartDate,
		&period.EndDate,
		&period.OpenGL,
		&period.OpenBank,
		&period.OpenReceivables,
		&period.OpenPayables,
		&period.CreatedAt,
		&period.CreatedBy,
		&period.LastUpdatedAt,
		&period.LastUpdatedBy,
	)
	return period, err
}

func (r *PgxFiscalRepository) FindPeriodCovering(ctx context.Context, tenantID string, date time.Time) (*domain.FiscalPeriod, error) {
	query := `
		SELECT ` + fiscalPeriodColumns + `
		FROM fiscal_periods
		WHERE tenant_id = $1 AND start_date <= $2 AND end_date >= $2;
	`
	period, err := scanFiscalPeriod(r.pool.QueryRow(ctx, query, tenantID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find period covering %s: %w", date.Format(time.DateOnly), err)
	}
	return &period, nil
}

func (r *PgxFiscalRepository) FindPeriod(ctx context.Context, tenantID string, fiscalYear int, periodNumber int) (*domain.FiscalPeriod, error) {
	query := `
		SELECT ` + fiscalPeriodColumns + `
		FROM fiscal_periods
		WHERE tenant_id = $1 AND fiscal_year = $2 AND period_number = $3;
	`
	period, err := scanFiscalPeriod(r.pool.QueryRow(ctx, query, tenantID, fiscalYear, periodNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find period %d of FY%d: %w", periodNumber, fiscalYear, err)
	}
	return &period, nil
}

func (r *PgxFiscalRepository) ListPeriods(ctx context.Context, tenantID string, fiscalYear int) ([]domain.FiscalPeriod, error) {
	query := `
		SELECT ` + fiscalPeriodColumns + `
		FROM fiscal_periods
		WHERE tenant_id = $1 AND fiscal_year = $2
		ORDER BY period_number;
	`
	rows, err := r.pool.Query(ctx, query, tenantID, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods of FY%d: %w", fiscalYear, err)
	}
	defer rows.Close()

	periods := []domain.FiscalPeriod{}
	for rows.Next() {
		period, err := scanFiscalPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fiscal period row: %w", err)
		}
		periods = append(periods, period)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fiscal period rows: %w", err)
	}
	return periods, nil
}

func (r *PgxFiscalRepository) SaveSetup(ctx context.Context, setup domain.FiscalYearSetup) error {
	query := `
		INSERT INTO fiscal_year_setups (tenant_id, start_month, start_day, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id) DO UPDATE SET
			start_month = EXCLUDED.start_month,
			start_day = EXCLUDED.start_day,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.pool.Exec(ctx, query,
		setup.TenantID,
		int(setup.StartMonth),
		setup.StartDay,
		setup.CreatedAt,
		setup.CreatedBy,
		setup.LastUpdatedAt,
		setup.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save fiscal setup for tenant %s: %w", setup.TenantID, err)
	}
	return nil
}

func (r *PgxFiscalRepository) SavePeriod(ctx context.Context, period domain.FiscalPeriod) error {
	query := `
		INSERT INTO fiscal_periods (` + fiscalPeriodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := r.pool.Exec(ctx, query,
		period.FiscalPeriodID,
		period.TenantID,
		period.FiscalYear,
		period.PeriodNumber,
		period.StartDate,
		period.EndDate,
		period.OpenGL,
		period.OpenBank,
		period.OpenReceivables,
		period.OpenPayables,
		period.CreatedAt,
		period.CreatedBy,
		period.LastUpdatedAt,
		period.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: period %d of FY%d", apperrors.ErrDuplicate, period.PeriodNumber, period.FiscalYear)
		}
		return fmt.Errorf("failed to save period %d of FY%d: %w", period.PeriodNumber, period.FiscalYear, err)
	}
	return nil
}

func (r *PgxFiscalRepository) UpdatePeriod(ctx context.Context, period domain.FiscalPeriod) error {
	query := `
		UPDATE fiscal_periods
		SET open_gl = $2, open_bank = $3, open_receivables = $4, open_payables = $5, last_updated_at = $6, last_updated_by = $7
		WHERE fiscal_period_id = $1;
	`
	cmdTag, err := r.pool.Exec(ctx, query,
		period.FiscalPeriodID,
		period.OpenGL,
		period.OpenBank,
		period.OpenReceivables,
		period.OpenPayables,
		period.LastUpdatedAt,
		period.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update period %s: %w", period.FiscalPeriodID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxFiscalRepository) CloseExpiredPeriods(ctx context.Context, now time.Time, userID string) (int, error) {
	query := `
		UPDATE fiscal_periods
		SET open_gl = FALSE, open_bank = FALSE, open_receivables = FALSE, open_payables = FALSE,
			last_updated_at = $1, last_updated_by = $2
		WHERE end_date < $1
			AND (open_gl OR open_bank OR open_receivables OR open_payables);
	`
	cmdTag, err := r.pool.Exec(ctx, query, now, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to close expired periods: %w", err)
	}
	return int(cmdTag.RowsAffected()), nil
}

func (r *PgxFiscalRepository) DeletePeriodsFrom(ctx context.Context, tenantID string, boundary time.Time) (int, error) {
	query := `DELETE FROM fiscal_periods WHERE tenant_id = $1 AND start_date >= $2;`
	cmdTag, err := r.pool.Exec(ctx, query, tenantID, boundary)
	if err != nil {
		return 0, fmt.Errorf("failed to delete periods from %s: %w", boundary.Format(time.DateOnly), err)
	}
	return int(cmdTag.RowsAffected()), nil
}
