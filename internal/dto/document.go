package dto

import (
	"time"

	"github.com/finbooks/finbooks/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateDocumentLineRequest is one line of a new document. The tax amount is
// supplied by the configured tax calculator, not by the caller.
type CreateDocumentLineRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// CreateDocumentRequest creates an invoice or credit note.
type CreateDocumentRequest struct {
	CustomerID string                      `json:"customerID" validate:"required"`
	Type       domain.DocumentType         `json:"type" validate:"required,oneof=INVOICE CREDIT_NOTE"`
	IssueDate  time.Time                   `json:"issueDate"`
	Draft      bool                        `json:"draft"`
	Lines      []CreateDocumentLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// CreatePaymentRequest records a signed customer payment.
type CreatePaymentRequest struct {
	CustomerID  string          `json:"customerID" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"paymentDate"`
	Reference   string          `json:"reference"`
}
