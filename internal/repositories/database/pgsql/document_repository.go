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

type PgxDocumentRepository struct {
	pool       *pgxpool.Pool
	retryLimit int
}

func newPgxDocumentRepository(pool *pgxpool.Pool, retryLimit int) portsrepo.DocumentRepositoryFacade {
	return &PgxDocumentRepository{pool: pool, retryLimit: retryLimit}
}

var _ portsrepo.DocumentRepositoryFacade = (*PgxDocumentRepository)(nil)

const documentColumns = `document_id, tenant_id, customer_id, document_type, number, status, issue_date, total, due_amount, created_at, created_by, last_updated_at, last_updated_by`

func scanDocument(row pgx.Row) (domain.Document, error) {
	var document domain.Document
	err := row.Scan(
		&document.DocumentID,
		&document.TenantID,
		&document.CustomerID,
		&document.Type,
		&document.Number,
		&document.Status,
		&document.IssueDate,
		&document.Total,
		&document.DueAmount,
		&document.CreatedAt,
		&document.CreatedBy,
		&document.LastUpdatedAt,
		&document.LastUpdatedBy,
	)
	return document, err
}

func findDocumentIn(ctx context.Context, q querier, documentID string, forUpdate bool) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE document_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	document, err := scanDocument(q.QueryRow(ctx, query+";", documentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find document %s: %w", documentID, err)
	}
	return &document, nil
}

func (r *PgxDocumentRepository) FindDocumentByID(ctx context.Context, documentID string) (*domain.Document, error) {
	return findDocumentIn(ctx, r.pool, documentID, false)
}

func (r *PgxDocumentRepository) FindLinesByDocumentID(ctx context.Context, documentID string) ([]domain.DocumentLine, error) {
	query := `
		SELECT document_line_id, document_id, description, quantity, unit_price, tax_amount, line_total, created_at, created_by, last_updated_at, last_updated_by
		FROM document_lines
		WHERE document_id = $1
		ORDER BY created_at, document_line_id;
	`
	rows, err := r.pool.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines of document %s: %w", documentID, err)
	}
	defer rows.Close()

	lines := []domain.DocumentLine{}
	for rows.Next() {
		var line domain.DocumentLine
		err := rows.Scan(
			&line.DocumentLineID,
			&line.DocumentID,
			&line.Description,
			&line.Quantity,
			&line.UnitPrice,
			&line.TaxAmount,
			&line.LineTotal,
			&line.CreatedAt,
			&line.CreatedBy,
			&line.LastUpdatedAt,
			&line.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document line row: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document line rows: %w", err)
	}
	return lines, nil
}

func (r *PgxDocumentRepository) ListDocumentsByCustomer(ctx context.Context, tenantID string, customerID string) ([]domain.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE tenant_id = $1 AND customer_id = $2
		ORDER BY issue_date, document_id;
	`
	rows, err := r.pool.Query(ctx, query, tenantID, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents for customer %s: %w", customerID, err)
	}
	defer rows.Close()

	documents := []domain.Document{}
	for rows.Next() {
		document, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		documents = append(documents, document)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}
	return documents, nil
}

func (r *PgxDocumentRepository) ListDocuments(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.Document, *string, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE tenant_id = $1
	`
	args := []any{tenantID}
	if nextToken != nil && *nextToken != "" {
		cur, err := pagination.Decode(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)
		}
		query += ` AND (issue_date, document_id) < ($2, $3)`
		args = append(args, cur.At, cur.ID)
	}
	query += fmt.Sprintf(` ORDER BY issue_date DESC, document_id DESC LIMIT $%d;`, len(args)+1)
	args = append(args, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query documents for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	documents := []domain.Document{}
	for rows.Next() {
		document, err := scanDocument(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		documents = append(documents, document)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	var next *string
	if len(documents) > limit {
		documents = documents[:limit]
		last := documents[len(documents)-1]
		token := pagination.Cursor{At: last.IssueDate, ID: last.DocumentID}.Token()
		next = &token
	}
	return documents, next, nil
}

func (r *PgxDocumentRepository) CreateDocument(ctx context.Context, document domain.Document, lines []domain.DocumentLine, fiscalYear int) (int64, error) {
	var number int64
	err := runInTx(ctx, r.pool, r.retryLimit, func(tx pgx.Tx) error {
		drawn, err := nextNumberIn(ctx, tx, document.TenantID, document.Type.SequenceType(), fiscalYear)
		if err != nil {
			return err
		}
		document.Number = drawn

		query := `
			INSERT INTO documents (` + documentColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
		`
		_, err = tx.Exec(ctx, query,
			document.DocumentID,
			document.TenantID,
			document.CustomerID,
			document.Type,
			document.Number,
			document.Status,
			document.IssueDate,
			document.Total,
			document.DueAmount,
			document.CreatedAt,
			document.CreatedBy,
			document.LastUpdatedAt,
			document.LastUpdatedBy,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: document %s", apperrors.ErrDuplicate, document.DocumentID)
			}
			return fmt.Errorf("failed to save document %s: %w", document.DocumentID, err)
		}

		lineQuery := `
			INSERT INTO document_lines (document_line_id, document_id, description, quantity, unit_price, tax_amount, line_total, created_at, created_by, last_updated_at, last_updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
		`
		batch := &pgx.Batch{}
		for _, line := range lines {
			batch.Queue(lineQuery,
				line.DocumentLineID,
				line.DocumentID,
				line.Description,
				line.Quantity,
				line.UnitPrice,
				line.TaxAmount,
				line.LineTotal,
				line.CreatedAt,
				line.CreatedBy,
				line.LastUpdatedAt,
				line.LastUpdatedBy,
			)
		}
		br := tx.SendBatch(ctx, batch)
		for range lines {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("failed to save lines of document %s: %w", document.DocumentID, err)
			}
		}
		if err := br.Close(); err != nil {
			return err
		}
		number = drawn
		return nil
	})
	return number, err
}

func (r *PgxDocumentRepository) UpdateDocumentStatus(ctx context.Context, documentID string, status domain.DocumentStatus, userID string, now time.Time) error {
	query := `
		UPDATE documents
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE document_id = $1;
	`
	cmdTag, err := r.pool.Exec(ctx, query, documentID, status, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of document %s: %w", documentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
