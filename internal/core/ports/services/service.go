package services

import (
	"context"
	"time"

	"github.com/finbooks/finbooks/internal/dto"
	"github.com/shopspring/decimal"
)

// Clock supplies the current time. Injected so services never call time.Now
// directly and tests can pin dates.
type Clock interface {
	Now() time.Time
}

// TaxCalculator returns the precomputed tax amount for a document line. The
// engine stores and sums tax amounts but never computes tax rates itself.
type TaxCalculator interface {
	TaxFor(ctx context.Context, tenantID string, line dto.CreateDocumentLineRequest) (decimal.Decimal, error)
}

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing engine functionality.
type ServiceContainer struct {
	Accounts     AccountSvcFacade
	Fiscal       FiscalSvcFacade
	Sequences    SequenceSvc
	Transactions TransactionSvcFacade
	Applications ApplicationSvcFacade
}
