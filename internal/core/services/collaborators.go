package services

import (
	"context"
	"time"

	portssvc "github.com/finbooks/finbooks/internal/core/ports/services"
	"github.com/finbooks/finbooks/internal/dto"
	"github.com/shopspring/decimal"
)

// utcClock is the default Clock; all engine timestamps are UTC.
type utcClock struct{}

func (utcClock) Now() time.Time {
	return time.Now().UTC()
}

// NewUTCClock returns the real clock used outside tests.
func NewUTCClock() portssvc.Clock {
	return utcClock{}
}

// zeroTaxCalculator is the default TaxCalculator: no tax on any line.
type zeroTaxCalculator struct{}

func (zeroTaxCalculator) TaxFor(ctx context.Context, tenantID string, line dto.CreateDocumentLineRequest) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

// NewZeroTaxCalculator returns the no-tax default calculator.
func NewZeroTaxCalculator() portssvc.TaxCalculator {
	return zeroTaxCalculator{}
}
