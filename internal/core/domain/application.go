package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplicationSourceType discriminates the source side of an application.
type ApplicationSourceType string

const (
	SourcePayment    ApplicationSourceType = "PAYMENT"
	SourceCreditNote ApplicationSourceType = "CREDIT_NOTE"
)

// IsValid reports whether the source type is known.
func (t ApplicationSourceType) IsValid() bool {
	return t == SourcePayment || t == SourceCreditNote
}

// Application allocates money from a payment or credit note onto a target
// document's due balance. Amount is strictly positive; negative inputs are
// normalized at the boundary.
type Application struct {
	ApplicationID    string
	TenantID         string
	SourceType       ApplicationSourceType
	SourceID         string
	TargetDocumentID string
	Amount           decimal.Decimal
	ApplicationDate  time.Time
	AuditFields
}
