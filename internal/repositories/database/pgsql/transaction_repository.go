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

type PgxTransactionRepository struct {
	pool       *pgxpool.Pool
	retryLimit int
}

func newPgxTransactionRepository(pool *pgxpool.Pool, retryLimit int) portsrepo.TransactionRepositoryWithTx {
	return &PgxTransactionRepository{pool: pool, retryLimit: retryLimit}
}

var _ portsrepo.TransactionRepositoryWithTx = (*PgxTransactionRepository)(nil)

const transactionColumns = `transaction_id, tenant_id, fiscal_year, transaction_type, number, fiscal_date, description, balanced, posted, reverses_transaction_id, reversed_by_transaction_id, created_at, created_by, last_updated_at, last_updated_by`

func scanTransaction(row pgx.Row) (domain.TransactionHeader, error) {
	var header domain.TransactionHeader
	err := row.Scan(
		&header.TransactionID,
		&header.TenantID,
		&header.FiscalYear,
		&header.Type,
		&header.Number,
		&header.FiscalDate,
		&header.Description,
		&header.Balanced,
		&header.Posted,
		&header.ReversesTransactionID,
		&header.ReversedByTransactionID,
		&header.CreatedAt,
		&header.CreatedBy,
		&header.LastUpdatedAt,
		&header.LastUpdatedBy,
	)
	return header, err
}

const transactionLineColumns = `line_id, transaction_id, account_id, debit, credit, notes, created_at, created_by, last_updated_at, last_updated_by`

func scanTransactionLine(row pgx.Row) (domain.TransactionLine, error) {
	var line domain.TransactionLine
	err := row.Scan(
		&line.LineID,
		&line.TransactionID,
		&line.AccountID,
		&line.Debit,
		&line.Credit,
		&line.Notes,
		&line.CreatedAt,
		&line.CreatedBy,
		&line.LastUpdatedAt,
		&line.LastUpdatedBy,
	)
	return line, err
}

func findTransactionIn(ctx context.Context, q querier, transactionID string, forUpdate bool) (*domain.TransactionHeader, error) {
	query := `SELECT ` + transactionColumns + ` FROM gl_transactions WHERE transaction_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	header, err := scanTransaction(q.QueryRow(ctx, query+";", transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	return &header, nil
}

func findLinesIn(ctx context.Context, q querier, transactionID string) ([]domain.TransactionLine, error) {
	query := `
		SELECT ` + transactionLineColumns + `
		FROM gl_transaction_lines
		WHERE transaction_id = $1
		ORDER BY created_at, line_id;
	`
	rows, err := q.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines of %s: %w", transactionID, err)
	}
	defer rows.Close()

	lines := []domain.TransactionLine{}
	for rows.Next() {
		line, err := scanTransactionLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction line row: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction line rows: %w", err)
	}
	return lines, nil
}

func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.TransactionHeader, error) {
	return findTransactionIn(ctx, r.pool, transactionID, false)
}

func (r *PgxTransactionRepository) FindLinesByTransactionID(ctx context.Context, transactionID string) ([]domain.TransactionLine, error) {
	return findLinesIn(ctx, r.pool, transactionID)
}

// ListTransactions pages by (fiscal_date, transaction_id) descending.
func (r *PgxTransactionRepository) ListTransactions(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.TransactionHeader, *string, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM gl_transactions
		WHERE tenant_id = $1
	`
	args := []any{tenantID}
	if nextToken != nil && *nextToken != "" {
		cur, err := pagination.Decode(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)
		}
		query += ` AND (fiscal_date, transaction_id) < ($2, $3)`
		args = append(args, cur.At, cur.ID)
	}
	query += fmt.Sprintf(` ORDER BY fiscal_date DESC, transaction_id DESC LIMIT $%d;`, len(args)+1)
	args = append(args, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query transactions for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	headers := []domain.TransactionHeader{}
	for rows.Next() {
		header, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		headers = append(headers, header)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	var next *string
	if len(headers) > limit {
		headers = headers[:limit]
		last := headers[len(headers)-1]
		token := pagination.Cursor{At: last.FiscalDate, ID: last.TransactionID}.Token()
		next = &token
	}
	return headers, next, nil
}

func (r *PgxTransactionRepository) ListLinesByAccount(ctx context.Context, tenantID string, accountID string, limit int, nextToken *string) ([]domain.TransactionLine, *string, error) {
	query := `
		SELECT l.line_id, l.transaction_id, l.account_id, l.debit, l.credit, l.notes, l.created_at, l.created_by, l.last_updated_at, l.last_updated_by
		FROM gl_transaction_lines l
		JOIN gl_transactions t ON t.transaction_id = l.transaction_id
		WHERE t.tenant_id = $1 AND l.account_id = $2
	`
	args := []any{tenantID, accountID}
	if nextToken != nil && *nextToken != "" {
		cur, err := pagination.Decode(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)
		}
		query += ` AND (l.created_at, l.line_id) > ($3, $4)`
		args = append(args, cur.At, cur.ID)
	}
	query += fmt.Sprintf(` ORDER BY l.created_at, l.line_id LIMIT $%d;`, len(args)+1)
	args = append(args, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query lines for account %s: %w", accountID, err)
	}
	defer rows.Close()

	lines := []domain.TransactionLine{}
	for rows.Next() {
		line, err := scanTransactionLine(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction line row: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating transaction line rows: %w", err)
	}

	var next *string
	if len(lines) > limit {
		lines = lines[:limit]
		last := lines[len(lines)-1]
		token := pagination.Cursor{At: last.CreatedAt, ID: last.LineID}.Token()
		next = &token
	}
	return lines, next, nil
}

func (r *PgxTransactionRepository) TrialBalance(ctx context.Context, tenantID string, from, to time.Time, postedOnly bool) ([]domain.TrialBalanceRow, error) {
	query := `
		SELECT a.account_id, a.descriptor, a.name, a.account_type,
			COALESCE(SUM(l.debit), 0) AS debits,
			COALESCE(SUM(l.credit), 0) AS credits
		FROM gl_transaction_lines l
		JOIN gl_transactions t ON t.transaction_id = l.transaction_id
		JOIN accounts a ON a.account_id = l.account_id
		WHERE t.tenant_id = $1 AND t.fiscal_date >= $2 AND t.fiscal_date <= $3
			AND ($4 = FALSE OR t.posted = TRUE)
		GROUP BY a.account_id, a.descriptor, a.name, a.account_type
		ORDER BY a.descriptor;
	`
	rows, err := r.pool.Query(ctx, query, tenantID, from, to, postedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to query trial balance: %w", err)
	}
	defer rows.Close()

	result := []domain.TrialBalanceRow{}
	for rows.Next() {
		var row domain.TrialBalanceRow
		if err := rows.Scan(&row.AccountID, &row.Descriptor, &row.Name, &row.AccountType, &row.Debits, &row.Credits); err != nil {
			return nil, fmt.Errorf("failed to scan trial balance row: %w", err)
		}
		side, ok := row.AccountType.NormalSide()
		if !ok {
			return nil, fmt.Errorf("%w: unknown account type %q", apperrors.ErrInternal, row.AccountType)
		}
		if side == domain.DebitNormal {
			row.Balance = row.Debits.Sub(row.Credits)
		} else {
			row.Balance = row.Credits.Sub(row.Debits)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trial balance rows: %w", err)
	}
	return result, nil
}

func (r *PgxTransactionRepository) WithinTx(ctx context.Context, fn func(txRepo portsrepo.TransactionTxRepository) error) error {
	return runInTx(ctx, r.pool, r.retryLimit, func(tx pgx.Tx) error {
		return fn(&pgxTransactionTxRepository{tx: tx})
	})
}

// pgxTransactionTxRepository runs every statement on one open pgx.Tx.
type pgxTransactionTxRepository struct {
	tx pgx.Tx
}

var _ portsrepo.TransactionTxRepository = (*pgxTransactionTxRepository)(nil)

func (r *pgxTransactionTxRepository) NextNumber(ctx context.Context, tenantID string, sequenceType string, fiscalYear int) (int64, error) {
	return nextNumberIn(ctx, r.tx, tenantID, sequenceType, fiscalYear)
}

func (r *pgxTransactionTxRepository) InsertTransaction(ctx context.Context, header domain.TransactionHeader, lines []domain.TransactionLine) error {
	query := `
		INSERT INTO gl_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.tx.Exec(ctx, query,
		header.TransactionID,
		header.TenantID,
		header.FiscalYear,
		header.Type,
		header.Number,
		header.FiscalDate,
		header.Description,
		header.Balanced,
		header.Posted,
		header.ReversesTransactionID,
		header.ReversedByTransactionID,
		header.CreatedAt,
		header.CreatedBy,
		header.LastUpdatedAt,
		header.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: transaction %s", apperrors.ErrDuplicate, header.TransactionID)
		}
		return fmt.Errorf("failed to insert transaction %s: %w", header.TransactionID, err)
	}

	lineQuery := `
		INSERT INTO gl_transaction_lines (` + transactionLineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	batch := &pgx.Batch{}
	for _, line := range lines {
		batch.Queue(lineQuery,
			line.LineID,
			line.TransactionID,
			line.AccountID,
			line.Debit,
			line.Credit,
			line.Notes,
			line.CreatedAt,
			line.CreatedBy,
			line.LastUpdatedAt,
			line.LastUpdatedBy,
		)
	}
	br := r.tx.SendBatch(ctx, batch)
	for range lines {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("failed to insert lines of %s: %w", header.TransactionID, err)
		}
	}
	return br.Close()
}

func (r *pgxTransactionTxRepository) FindTransactionByIDForUpdate(ctx context.Context, transactionID string) (*domain.TransactionHeader, error) {
	return findTransactionIn(ctx, r.tx, transactionID, true)
}

func (r *pgxTransactionTxRepository) FindLinesByTransactionID(ctx context.Context, transactionID string) ([]domain.TransactionLine, error) {
	return findLinesIn(ctx, r.tx, transactionID)
}

func (r *pgxTransactionTxRepository) MarkPosted(ctx context.Context, transactionID string, userID string, now time.Time) error {
	// The posted guard is part of the statement, so a concurrent poster loses
	// cleanly instead of double-posting.
	query := `
		UPDATE gl_transactions
		SET posted = TRUE, last_updated_at = $2, last_updated_by = $3
		WHERE transaction_id = $1 AND posted = FALSE;
	`
	cmdTag, err := r.tx.Exec(ctx, query, transactionID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to mark %s posted: %w", transactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s is already posted", apperrors.ErrConflict, transactionID)
	}
	return nil
}

func (r *pgxTransactionTxRepository) LinkReversal(ctx context.Context, originalID string, reversalID string, userID string, now time.Time) error {
	query := `
		UPDATE gl_transactions
		SET reversed_by_transaction_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE transaction_id = $1 AND reversed_by_transaction_id IS NULL;
	`
	cmdTag, err := r.tx.Exec(ctx, query, originalID, reversalID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to link reversal of %s: %w", originalID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s is already reversed", apperrors.ErrConflict, originalID)
	}
	return nil
}
