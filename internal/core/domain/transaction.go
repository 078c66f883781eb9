package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a GL transaction and determines which module's
// period gate applies to it.
type TransactionType string

const (
	Manual     TransactionType = "MANUAL"
	Bank       TransactionType = "BANK"
	Receivable TransactionType = "RECEIVABLE"
	Payable    TransactionType = "PAYABLE"
)

// Module returns the fiscal module gating transactions of this type.
func (t TransactionType) Module() (Module, error) {
	switch t {
	case Manual:
		return ModuleGeneralLedger, nil
	case Bank:
		return ModuleBank, nil
	case Receivable:
		return ModuleReceivables, nil
	case Payable:
		return ModulePayables, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", t)
}

// Code returns the short code embedded in transaction identifiers.
func (t TransactionType) Code() string {
	switch t {
	case Manual:
		return "MAN"
	case Bank:
		return "BNK"
	case Receivable:
		return "RCV"
	case Payable:
		return "PAY"
	}
	return "UNK"
}

// SequenceType returns the sequence scope used to number transactions of this type.
func (t TransactionType) SequenceType() string {
	return "gl_" + t.Code()
}

// TransactionID mints the composite identifier for a GL transaction.
func TransactionID(fiscalYear int, t TransactionType, number int64) string {
	return fmt.Sprintf("%d-%s-%d", fiscalYear, t.Code(), number)
}

// TransactionHeader is a GL transaction. Once Posted is true the header and all
// of its lines are immutable; a reversal is a separate header.
type TransactionHeader struct {
	TransactionID string // "{fiscalYear}-{typeCode}-{number}"
	TenantID      string
	FiscalYear    int
	Type          TransactionType
	Number        int64
	FiscalDate    time.Time
	Description   string
	Balanced      bool
	Posted        bool
	// ReversesTransactionID is set on a reversal marker, pointing at the original.
	ReversesTransactionID *string
	// ReversedByTransactionID is set on the original once a reversal exists.
	ReversedByTransactionID *string
	AuditFields

	// Lines are loaded separately and attached on demand.
	Lines []TransactionLine
}

// TransactionLine is one line of a GL transaction against one account.
// Exactly one of Debit/Credit is non-zero, and it is strictly positive.
type TransactionLine struct {
	LineID        string
	TransactionID string
	AccountID     string
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	Notes         string
	AuditFields
}

// IsDebit reports whether the line carries its amount on the debit side.
func (l TransactionLine) IsDebit() bool {
	return l.Debit.IsPositive()
}

// Amount returns the non-zero side of the line.
func (l TransactionLine) Amount() decimal.Decimal {
	if l.IsDebit() {
		return l.Debit
	}
	return l.Credit
}

// TrialBalanceRow is one account's aggregate over a date range. Balance is
// reported on the account's normal side: debits minus credits for debit-normal
// accounts, credits minus debits for credit-normal accounts.
type TrialBalanceRow struct {
	AccountID   string
	Descriptor  string
	Name        string
	AccountType AccountType
	Debits      decimal.Decimal
	Credits     decimal.Decimal
	Balance     decimal.Decimal
}
