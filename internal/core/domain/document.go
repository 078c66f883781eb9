package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType discriminates invoices from credit notes and fixes the required
// sign of the document total.
type DocumentType string

const (
	Invoice    DocumentType = "INVOICE"
	CreditNote DocumentType = "CREDIT_NOTE"
)

// Sign returns the required sign of the total: +1 for invoices (total >= 0),
// -1 for credit notes (total <= 0).
func (t DocumentType) Sign() int {
	if t == CreditNote {
		return -1
	}
	return 1
}

// Label returns the human-readable name of the document type.
func (t DocumentType) Label() string {
	if t == CreditNote {
		return "credit note"
	}
	return "invoice"
}

// SequenceType returns the sequence scope used to number documents of this type.
func (t DocumentType) SequenceType() string {
	if t == CreditNote {
		return "credit_note"
	}
	return "invoice"
}

// DocumentStatus is the lifecycle state of a monetary document.
type DocumentStatus string

const (
	Draft DocumentStatus = "DRAFT"
	Final DocumentStatus = "FINAL"
)

// Document is a signed monetary document: an invoice (total >= 0) or a credit
// note (total <= 0). DueAmount is derived from the full set of applications
// received and always moves toward zero, never past it.
type Document struct {
	DocumentID string
	TenantID   string
	CustomerID string
	Type       DocumentType
	Number     int64
	Status     DocumentStatus
	IssueDate  time.Time
	Total      decimal.Decimal
	DueAmount  decimal.Decimal
	AuditFields

	// Lines are loaded separately and attached on demand.
	Lines []DocumentLine
}

// GrossAmount is the absolute value of the total, the ceiling for applications
// drawn from the document when it acts as a source.
func (d Document) GrossAmount() decimal.Decimal {
	return d.Total.Abs()
}

// DocumentLine is one line of a document. TaxAmount is precomputed by the
// caller's tax calculator; the engine only stores and sums it.
type DocumentLine struct {
	DocumentLineID string
	DocumentID     string
	Description    string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	TaxAmount      decimal.Decimal
	LineTotal      decimal.Decimal
	AuditFields
}
