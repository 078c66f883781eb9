package services

import (
	"context"

	"github.com/finbooks/finbooks/internal/core/domain"
	"github.com/finbooks/finbooks/internal/dto"
	"github.com/shopspring/decimal"
)

// ApplicationSvcFacade tracks signed monetary documents and payments, and
// allocates money between them while preserving the balance invariants.
type ApplicationSvcFacade interface {
	// CreatePayment records a signed payment; AmountLeft starts at Amount.
	CreatePayment(ctx context.Context, tenantID string, req dto.CreatePaymentRequest, userID string) (*domain.Payment, error)

	// GetPayment retrieves a payment with its derived remaining balance.
	GetPayment(ctx context.Context, tenantID string, paymentID string) (*domain.Payment, error)

	// CreateDocument creates an invoice or credit note from its lines; the total
	// sign must match the document type.
	CreateDocument(ctx context.Context, tenantID string, req dto.CreateDocumentRequest, userID string) (*domain.Document, error)

	// GetDocument retrieves a document with its derived due amount and lines.
	GetDocument(ctx context.Context, tenantID string, documentID string) (*domain.Document, error)

	// FinalizeDocument moves a draft document to final, making it a valid
	// application target.
	FinalizeDocument(ctx context.Context, tenantID string, documentID string, userID string) (*domain.Document, error)

	// Apply allocates from one source onto one target document.
	Apply(ctx context.Context, tenantID string, req dto.ApplyRequest, userID string) (*domain.Application, error)

	// ApplyToMultiple applies a batch of allocations atomically; if any
	// allocation violates an invariant, none are committed.
	ApplyToMultiple(ctx context.Context, tenantID string, req dto.ApplyToMultipleRequest, userID string) ([]domain.Application, error)

	// UpdateApplication rewrites an application and recomputes both sides'
	// balances from the full application set.
	UpdateApplication(ctx context.Context, tenantID string, applicationID string, req dto.UpdateApplicationRequest, userID string) (*domain.Application, error)

	// DeleteApplication removes an application and recomputes both sides.
	DeleteApplication(ctx context.Context, tenantID string, applicationID string, userID string) error

	// CustomerDueAmount returns the customer's signed aggregate due: the sum of
	// non-draft document due amounts plus the remaining balance of negative
	// payments. Positive means the customer owes the company.
	CustomerDueAmount(ctx context.Context, tenantID string, customerID string) (decimal.Decimal, error)
}
