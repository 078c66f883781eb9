package domain

import "strings"

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// NormalBalance is the side on which an account's balance normally sits.
type NormalBalance string

const (
	DebitNormal  NormalBalance = "DEBIT"
	CreditNormal NormalBalance = "CREDIT"
)

// NormalSide returns the normal-balance side for the account type.
// Assets and expenses are debit-normal; liabilities, equity and revenue are
// credit-normal.
func (t AccountType) NormalSide() (NormalBalance, bool) {
	switch t {
	case Asset, Expense:
		return DebitNormal, true
	case Liability, Equity, Revenue:
		return CreditNormal, true
	}
	return "", false
}

// DescriptorSeparator joins segment codes into an account descriptor.
const DescriptorSeparator = "-"

// BuildDescriptor joins segment codes in position order into a descriptor.
func BuildDescriptor(codes []string) string {
	return strings.Join(codes, DescriptorSeparator)
}

// Account represents a ledger account identified by an ordered set of segment
// values. The descriptor is always rebuildable from the segment assignments.
type Account struct {
	AccountID        string
	TenantID         string
	Descriptor       string
	Name             string
	AccountType      AccountType
	IsActive         bool
	AllowManualEntry bool
	AuditFields
}

// AccountSegment assigns one segment value to one position of an account.
type AccountSegment struct {
	AccountID      string
	Position       int
	SegmentValueID string
}
