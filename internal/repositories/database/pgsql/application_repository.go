package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/finbooks/finbooks/internal/apperrors"
	"github.com/finbooks/finbooks/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
)

type PgxApplicationRepository struct {
	pool       *pgxpool.Pool
	retryLimit int
}

func newPgxApplicationRepository(pool *pgxpool.Pool, retryLimit int) portsrepo.ApplicationRepositoryWithTx {
	return &PgxApplicationRepository{pool: pool, retryLimit: retryLimit}
}

var _ portsrepo.ApplicationRepositoryWithTx = (*PgxApplicationRepository)(nil)

const applicationColumns = `application_id, tenant_id, source_type, source_id, target_document_id, amount, application_date, created_at, created_by, last_updated_at, last_updated_by`

func scanApplication(row pgx.Row) (domain.Application, error) {
	var application domain.Application
	err := row.Scan(
		&application.ApplicationID,
		&application.TenantID,
		&application.SourceType,
		&application.SourceID,
		&application.TargetDocumentID,
		&application.Amount,
		&application.ApplicationDate,
		&application.CreatedAt,
		&application.CreatedBy,
		&application.LastUpdatedAt,
		&application.LastUpdatedBy,
	)
	return application, err
}

func findApplicationIn(ctx context.Context, q querier, applicationID string) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE application_id = $1;`
	application, err := scanApplication(q.QueryRow(ctx, query, applicationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find application %s: %w", applicationID, err)
	}
	return &application, nil
}

func (r *PgxApplicationRepository) FindApplicationByID(ctx context.Context, applicationID string) (*domain.Application, error) {
	return findApplicationIn(ctx, r.pool, applicationID)
}

func listApplicationsIn(ctx context.Context, q querier, where string, args ...any) ([]domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE ` + where + ` ORDER BY application_date, application_id;`
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	applications := []domain.Application{}
	for rows.Next() {
		application, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application row: %w", err)
		}
		applications = append(applications, application)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating application rows: %w", err)
	}
	return applications, nil
}

func (r *PgxApplicationRepository) ListApplicationsBySource(ctx context.Context, sourceType domain.ApplicationSourceType, sourceID string) ([]domain.Application, error) {
	return listApplicationsIn(ctx, r.pool, `source_type = $1 AND source_id = $2`, sourceType, sourceID)
}

func (r *PgxApplicationRepository) ListApplicationsByTarget(ctx context.Context, targetDocumentID string) ([]domain.Application, error) {
	return listApplicationsIn(ctx, r.pool, `target_document_id = $1`, targetDocumentID)
}

func (r *PgxApplicationRepository) WithinTx(ctx context.Context, fn func(txRepo portsrepo.ApplicationTxRepository) error) error {
	return runInTx(ctx, r.pool, r.retryLimit, func(tx pgx.Tx) error {
		return fn(&pgxApplicationTxRepository{tx: tx})
	})
}

// pgxApplicationTxRepository runs every statement on one open pgx.Tx.
type pgxApplicationTxRepository struct {
	tx pgx.Tx
}

var _ portsrepo.ApplicationTxRepository = (*pgxApplicationTxRepository)(nil)

func (r *pgxApplicationTxRepository) FindPaymentForUpdate(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return findPaymentIn(ctx, r.tx, paymentID, true)
}

func (r *pgxApplicationTxRepository) FindDocumentForUpdate(ctx context.Context, documentID string) (*domain.Document, error) {
	return findDocumentIn(ctx, r.tx, documentID, true)
}

func (r *pgxApplicationTxRepository) FindApplicationByID(ctx context.Context, applicationID string) (*domain.Application, error) {
	return findApplicationIn(ctx, r.tx, applicationID)
}

func (r *pgxApplicationTxRepository) SumApplicationsFromSource(ctx context.Context, sourceType domain.ApplicationSourceType, sourceID string, excludeApplicationID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM applications
		WHERE source_type = $1 AND source_id = $2 AND ($3 = '' OR application_id <> $3);
	`
	var sum decimal.Decimal
	if err := r.tx.QueryRow(ctx, query, sourceType, sourceID, excludeApplicationID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum applications from %s: %w", sourceID, err)
	}
	return sum, nil
}

func (r *pgxApplicationTxRepository) SumApplicationsToTarget(ctx context.Context, targetDocumentID string, excludeApplicationID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM applications
		WHERE target_document_id = $1 AND ($2 = '' OR application_id <> $2);
	`
	var sum decimal.Decimal
	if err := r.tx.QueryRow(ctx, query, targetDocumentID, excludeApplicationID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum applications to %s: %w", targetDocumentID, err)
	}
	return sum, nil
}

func (r *pgxApplicationTxRepository) InsertApplication(ctx context.Context, application domain.Application) error {
	query := `
		INSERT INTO applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.tx.Exec(ctx, query,
		application.ApplicationID,
		application.TenantID,
		application.SourceType,
		application.SourceID,
		application.TargetDocumentID,
		application.Amount,
		application.ApplicationDate,
		application.CreatedAt,
		application.CreatedBy,
		application.LastUpdatedAt,
		application.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: application %s", apperrors.ErrDuplicate, application.ApplicationID)
		}
		return fmt.Errorf("failed to insert application %s: %w", application.ApplicationID, err)
	}
	return nil
}

func (r *pgxApplicationTxRepository) UpdateApplication(ctx context.Context, application domain.Application) error {
	query := `
		UPDATE applications
		SET amount = $2, application_date = $3, last_updated_at = $4, last_updated_by = $5
		WHERE application_id = $1;
	`
	cmdTag, err := r.tx.Exec(ctx, query,
		application.ApplicationID,
		application.Amount,
		application.ApplicationDate,
		application.LastUpdatedAt,
		application.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update application %s: %w", application.ApplicationID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *pgxApplicationTxRepository) DeleteApplication(ctx context.Context, applicationID string) error {
	cmdTag, err := r.tx.Exec(ctx, `DELETE FROM applications WHERE application_id = $1`, applicationID)
	if err != nil {
		return fmt.Errorf("failed to delete application %s: %w", applicationID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *pgxApplicationTxRepository) SetPaymentAmountLeft(ctx context.Context, paymentID string, amountLeft decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE payments
		SET amount_left = $2, last_updated_at = $3, last_updated_by = $4
		WHERE payment_id = $1;
	`
	cmdTag, err := r.tx.Exec(ctx, query, paymentID, amountLeft, now, userID)
	if err != nil {
		return fmt.Errorf("failed to set amount left of payment %s: %w", paymentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *pgxApplicationTxRepository) SetDocumentDue(ctx context.Context, documentID string, dueAmount decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE documents
		SET due_amount = $2, last_updated_at = $3, last_updated_by = $4
		WHERE document_id = $1;
	`
	cmdTag, err := r.tx.Exec(ctx, query, documentID, dueAmount, now, userID)
	if err != nil {
		return fmt.Errorf("failed to set due amount of document %s: %w", documentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
