package dto

import (
	"time"

	"github.com/finbooks/finbooks/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ApplyRequest allocates money from a payment or credit note onto one target
// document. Negative amounts are normalized to their absolute value.
type ApplyRequest struct {
	SourceType       domain.ApplicationSourceType `json:"sourceType" validate:"required,oneof=PAYMENT CREDIT_NOTE"`
	SourceID         string                       `json:"sourceID" validate:"required"`
	TargetDocumentID string                       `json:"targetDocumentID" validate:"required"`
	Amount           decimal.Decimal              `json:"amount"`
	Date             time.Time                    `json:"date"`
}

// AllocationRequest is one allocation inside a batch application.
type AllocationRequest struct {
	TargetDocumentID string          `json:"targetDocumentID" validate:"required"`
	Amount           decimal.Decimal `json:"amount"`
}

// ApplyToMultipleRequest applies a batch of allocations from one source as a
// single atomic unit.
type ApplyToMultipleRequest struct {
	SourceType  domain.ApplicationSourceType `json:"sourceType" validate:"required,oneof=PAYMENT CREDIT_NOTE"`
	SourceID    string                       `json:"sourceID" validate:"required"`
	Date        time.Time                    `json:"date"`
	Allocations []AllocationRequest          `json:"allocations" validate:"required,min=1,dive"`
}

// UpdateApplicationRequest rewrites an existing application's amount or date.
type UpdateApplicationRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Date   *time.Time       `json:"date"`
}
