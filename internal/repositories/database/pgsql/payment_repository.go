package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finbooks/finbooks/internal/apperrors"
	"github.com/finbooks/finbooks/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
)

type PgxPaymentRepository struct {
	pool       *pgxpool.Pool
	retryLimit int
}

func newPgxPaymentRepository(pool *pgxpool.Pool, retryLimit int) portsrepo.PaymentRepositoryFacade {
	return &PgxPaymentRepository{pool: pool, retryLimit: retryLimit}
}

var _ portsrepo.PaymentRepositoryFacade = (*PgxPaymentRepository)(nil)

const paymentColumns = `payment_id, tenant_id, customer_id, number, amount, amount_left, payment_date, reference, created_at, created_by, last_updated_at, last_updated_by`

func scanPayment(row pgx.Row) (domain.Payment, error) {
	var payment domain.Payment
	err := row.Scan(
		&payment.PaymentID,
		&payment.TenantID,
		&payment.CustomerID,
		&payment.Number,
		&payment.Amount,
		&payment.AmountLeft,
		&payment.PaymentDate,
		&payment.Reference,
		&payment.CreatedAt,
		&payment.CreatedBy,
		&payment.LastUpdatedAt,
		&payment.LastUpdatedBy,
	)
	return payment, err
}

func findPaymentIn(ctx context.Context, q querier, paymentID string, forUpdate bool) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	payment, err := scanPayment(q.QueryRow(ctx, query+";", paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment %s: %w", paymentID, err)
	}
	return &payment, nil
}

func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return findPaymentIn(ctx, r.pool, paymentID, false)
}

func (r *PgxPaymentRepository) ListPaymentsByCustomer(ctx context.Context, tenantID string, customerID string) ([]domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE tenant_id = $1 AND customer_id = $2
		ORDER BY payment_date, payment_id;
	`
	rows, err := r.pool.Query(ctx, query, tenantID, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments for customer %s: %w", customerID, err)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}
	return payments, nil
}

func (r *PgxPaymentRepository) CreatePayment(ctx context.Context, payment domain.Payment, fiscalYear int) (int64, error) {
	var number int64
	err := runInTx(ctx, r.pool, r.retryLimit, func(tx pgx.Tx) error {
		drawn, err := nextNumberIn(ctx, tx, payment.TenantID, domain.PaymentSequenceType, fiscalYear)
		if err != nil {
			return err
		}
		payment.Number = drawn

		query := `
			INSERT INTO payments (` + paymentColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
		`
		_, err = tx.Exec(ctx, query,
			payment.PaymentID,
			payment.TenantID,
			payment.CustomerID,
			payment.Number,
			payment.Amount,
			payment.AmountLeft,
			payment.PaymentDate,
			payment.Reference,
			payment.CreatedAt,
			payment.CreatedBy,
			payment.LastUpdatedAt,
			payment.LastUpdatedBy,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: payment %s", apperrors.ErrDuplicate, payment.PaymentID)
			}
			return fmt.Errorf("failed to save payment %s: %w", payment.PaymentID, err)
		}
		number = drawn
		return nil
	})
	return number, err
}
