package dto

// SetFiscalYearStartRequest changes the tenant's fiscal-year start date.
// Applying a new start date deletes every period falling outside the new
// calendar; periods are then recreated lazily.
type SetFiscalYearStartRequest struct {
	StartMonth int `json:"startMonth" validate:"required,min=1,max=12"`
	StartDay   int `json:"startDay" validate:"required,min=1,max=31"`
}
