package domain

import "time"

// Tenant is the scoping unit for every ledger entity. Tenants may be nested one
// level: a child tenant's parent supplies default segment codes.
type Tenant struct {
	TenantID       string
	Name           string
	Code           string // short numeric code, used by segment default handlers
	ParentTenantID string // empty when the tenant has no parent
	AuditFields
}

// FiscalYearSetup holds the fiscal-year start date (month/day) for one tenant.
type FiscalYearSetup struct {
	TenantID   string
	StartMonth time.Month
	StartDay   int
	AuditFields
}

// StartsJanuaryFirst reports whether the tenant's fiscal year coincides with
// the calendar year.
func (s FiscalYearSetup) StartsJanuaryFirst() bool {
	return s.StartMonth == time.January && s.StartDay == 1
}

// StartDateFor returns the fiscal start date falling in the given calendar year.
func (s FiscalYearSetup) StartDateFor(year int) time.Time {
	return time.Date(year, s.StartMonth, s.StartDay, 0, 0, 0, 0, time.UTC)
}
