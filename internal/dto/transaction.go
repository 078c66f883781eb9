package dto

import (
	"time"

	"github.com/finbooks/finbooks/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionLineRequest is one line of a new GL transaction. Exactly one
// of Debit/Credit must be positive; the service enforces the shape because the
// amounts are decimals, not primitives.
type CreateTransactionLineRequest struct {
	AccountID string          `json:"accountID" validate:"required"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Notes     string          `json:"notes"`
}

// CreateTransactionRequest creates a balanced GL transaction.
type CreateTransactionRequest struct {
	FiscalDate  time.Time                      `json:"fiscalDate" validate:"required"`
	Type        domain.TransactionType         `json:"type" validate:"required,oneof=MANUAL BANK RECEIVABLE PAYABLE"`
	Description string                         `json:"description" validate:"required"`
	Lines       []CreateTransactionLineRequest `json:"lines" validate:"required,min=2,dive"`
}
