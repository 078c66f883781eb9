package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a signed customer payment. Positive means the customer paid the
// company; negative means the company paid or owes the customer. AmountLeft is
// derived from the full set of applications made from the payment.
type Payment struct {
	PaymentID   string
	TenantID    string
	CustomerID  string
	Number      int64
	Amount      decimal.Decimal
	AmountLeft  decimal.Decimal
	PaymentDate time.Time
	Reference   string
	AuditFields
}

// GrossAmount is the absolute value of the payment, the ceiling for
// applications drawn from it.
func (p Payment) GrossAmount() decimal.Decimal {
	return p.Amount.Abs()
}

// PaymentSequenceType is the sequence scope used to number payments.
const PaymentSequenceType = "payment"
