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

type memTransactionRepository struct {
	store *Store
}

var _ portsrepo.TransactionRepositoryWithTx = (*memTransactionRepository)(nil)

func (r *memTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.TransactionHeader, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.findTransactionLocked(transactionID)
}

func (r *memTransactionRepository) FindLinesByTransactionID(ctx context.Context, transactionID string) ([]domain.TransactionLine, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.findLinesLocked(transactionID), nil
}

func (r *memTransactionRepository) ListTransactions(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.TransactionHeader, *string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	headers := []domain.TransactionHeader{}
	for _, header := range r.store.transactions {
		if header.TenantID == tenantID {
			headers = append(headers, header)
		}
	}
	sort.Slice(headers, func(i, j int) bool {
		if !headers[i].FiscalDate.Equal(headers[j].FiscalDate) {
			return headers[i].FiscalDate.After(headers[j].FiscalDate)
		}
		return headers[i].TransactionID > headers[j].TransactionID
	})

	start := 0
	if nextToken != nil && *nextToken != "" {
		cur, err := pagination.Decode(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)
		}
		for i, header := range headers {
			if header.TransactionID == cur.ID {
				start = i + 1
				break
			}
		}
	}

	end := start + limit
	var next *string
	if end < len(headers) {
		last := headers[end-1]
		token := pagination.Cursor{At: last.FiscalDate, ID: last.TransactionID}.Token()
		next = &token
	} else {
		end = len(headers)
	}
	return headers[start:end], next, nil
}

func (r *memTransactionRepository) ListLinesByAccount(ctx context.Context, tenantID string, accountID string, limit int, nextToken *string) ([]domain.TransactionLine, *string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	lines := []domain.TransactionLine{}
	for transactionID, transactionLines := range r.store.transactionRows {
		header, ok := r.store.transactions[transactionID]
		if !ok || header.TenantID != tenantID {
			continue
		}
		for _, line := range transactionLines {
			if line.AccountID == accountID {
				lines = append(lines, line)
			}
		}
	}
	sort.Slice(lines, func(i, j int) bool {
		if !lines[i].CreatedAt.Equal(lines[j].CreatedAt) {
			return lines[i].CreatedAt.Before(lines[j].CreatedAt)
		}
		return lines[i].LineID < lines[j].LineID
	})

	start := 0
	if nextToken != nil && *nextToken != "" {
		cur, err := pagination.Decode(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)
		}
		for i, line := range lines {
			if line.LineID == cur.ID {
				start = i + 1
				break
			}
		}
	}

	end := start + limit
	var next *string
	if end < len(lines) {
		last := lines[end-1]
		token := pagination.Cursor{At: last.CreatedAt, ID: last.LineID}.Token()
		next = &token
	} else {
		end = len(lines)
	}
	return lines[start:end], next, nil
}

func (r *memTransactionRepository) TrialBalance(ctx context.Context, tenantID string, from, to time.Time, postedOnly bool) ([]domain.TrialBalanceRow, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	byAccount := map[string]*domain.TrialBalanceRow{}
	for transactionID, lines := range r.store.transactionRows {
		header, ok := r.store.transactions[transactionID]
		if !ok || header.TenantID != tenantID {
			continue
		}
		if header.FiscalDate.Before(from) || header.FiscalDate.After(to) {
			continue
		}
		if postedOnly && !header.Posted {
			continue
		}
		for _, line := range lines {
			row, ok := byAccount[line.AccountID]
			if !ok {
				account, found := r.store.accounts[line.AccountID]
				if !found {
					return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, line.AccountID)
				}
				row = &domain.TrialBalanceRow{
					AccountID:   account.AccountID,
					Descriptor:  account.Descriptor,
					Name:        account.Name,
					AccountType: account.AccountType,
				}
				byAccount[line.AccountID] = row
			}
			row.Debits = row.Debits.Add(line.Debit)
			row.Credits = row.Credits.Add(line.Credit)
		}
	}

	result := make([]domain.TrialBalanceRow, 0, len(byAccount))
	for _, row := range byAccount {
		side, ok := row.AccountType.NormalSide()
		if !ok {
			return nil, fmt.Errorf("%w: unknown account type %q", apperrors.ErrInternal, row.AccountType)
		}
		if side == domain.DebitNormal {
			row.Balance = row.Debits.Sub(row.Credits)
		} else {
			row.Balance = row.Credits.Sub(row.Debits)
		}
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Descriptor < result[j].Descriptor })
	return result, nil
}

func (r *memTransactionRepository) WithinTx(ctx context.Context, fn func(txRepo portsrepo.TransactionTxRepository) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snap := r.store.snapshot()
	if err := fn(&memTransactionTxRepository{store: r.store}); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

// memTransactionTxRepository runs with the store lock already held by WithinTx.
type memTransactionTxRepository struct {
	store *Store
}

var _ portsrepo.TransactionTxRepository = (*memTransactionTxRepository)(nil)

func (r *memTransactionTxRepository) NextNumber(ctx context.Context, tenantID string, sequenceType string, fiscalYear int) (int64, error) {
	return r.store.nextNumberLocked(tenantID, sequenceType, fiscalYear), nil
}

func (r *memTransactionTxRepository) InsertTransaction(ctx context.Context, header domain.TransactionHeader, lines []domain.TransactionLine) error {
	if _, ok := r.store.transactions[header.TransactionID]; ok {
		return fmt.Errorf("%w: transaction %s", apperrors.ErrDuplicate, header.TransactionID)
	}
	header.Lines = nil
	r.store.transactions[header.TransactionID] = header
	cloned := make([]domain.TransactionLine, len(lines))
	copy(cloned, lines)
	r.store.transactionRows[header.TransactionID] = cloned
	return nil
}

func (r *memTransactionTxRepository) FindTransactionByIDForUpdate(ctx context.Context, transactionID string) (*domain.TransactionHeader, error) {
	return r.store.findTransactionLocked(transactionID)
}

func (r *memTransactionTxRepository) FindLinesByTransactionID(ctx context.Context, transactionID string) ([]domain.TransactionLine, error) {
	return r.store.findLinesLocked(transactionID), nil
}

func (r *memTransactionTxRepository) MarkPosted(ctx context.Context, transactionID string, userID string, now time.Time) error {
	header, ok := r.store.transactions[transactionID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if header.Posted {
		return fmt.Errorf("%w: transaction %s is already posted", apperrors.ErrConflict, transactionID)
	}
	header.Posted = true
	header.Touch(now, userID)
	r.store.transactions[transactionID] = header
	return nil
}

func (r *memTransactionTxRepository) LinkReversal(ctx context.Context, originalID string, reversalID string, userID string, now time.Time) error {
	header, ok := r.store.transactions[originalID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if header.ReversedByTransactionID != nil {
		return fmt.Errorf("%w: transaction %s is already reversed", apperrors.ErrConflict, originalID)
	}
	header.ReversedByTransactionID = &reversalID
	header.Touch(now, userID)
	r.store.transactions[originalID] = header
	return nil
}

func (s *Store) findTransactionLocked(transactionID string) (*domain.TransactionHeader, error) {
	header, ok := s.transactions[transactionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &header, nil
}

func (s *Store) findLinesLocked(transactionID string) []domain.TransactionLine {
	lines := make([]domain.TransactionLine, len(s.transactionRows[transactionID]))
	copy(lines, s.transactionRows[transactionID])
	return lines
}
