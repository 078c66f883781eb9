package repositories

import (
	"context"
	"time"

	"github.com/finbooks/finbooks/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DocumentReader defines read operations for monetary documents.
type DocumentReader interface {
	// FindDocumentByID retrieves a document without its lines.
	FindDocumentByID(ctx context.Context, documentID string) (*domain.Document, error)

	// FindLinesByDocumentID retrieves all lines of one document.
	FindLinesByDocumentID(ctx context.Context, documentID string) ([]domain.DocumentLine, error)

	// ListDocumentsByCustomer retrieves all of a customer's documents.
	ListDocumentsByCustomer(ctx context.Context, tenantID string, customerID string) ([]domain.Document, error)

	// ListDocuments retrieves a cursor-paginated list of documents for a tenant,
	// newest issue date first.
	ListDocuments(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.Document, *string, error)
}

// DocumentWriter defines write operations for monetary documents.
type DocumentWriter interface {
	// CreateDocument persists a new document and its lines, drawing the
	// document number from its per-type, per-fiscal-year sequence inside the
	// same store transaction. A failed insert rolls the draw back, so no
	// number is ever burned. Returns the drawn number.
	CreateDocument(ctx context.Context, document domain.Document, lines []domain.DocumentLine, fiscalYear int) (int64, error)

	// UpdateDocumentStatus moves a document between lifecycle states.
	UpdateDocumentStatus(ctx context.Context, documentID string, status domain.DocumentStatus, userID string, now time.Time) error
}

// DocumentRepositoryFacade combines all document repository interfaces.
type DocumentRepositoryFacade interface {
	DocumentReader
	DocumentWriter
}

// PaymentReader defines read operations for payments.
type PaymentReader interface {
	// FindPaymentByID retrieves a payment.
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)

	// ListPaymentsByCustomer retrieves all of a customer's payments.
	ListPaymentsByCustomer(ctx context.Context, tenantID string, customerID string) ([]domain.Payment, error)
}

// PaymentWriter defines write operations for payments.
type PaymentWriter interface {
	// CreatePayment persists a new payment, drawing its number from the
	// payment sequence inside the same store transaction. A failed insert
	// rolls the draw back. Returns the drawn number.
	CreatePayment(ctx context.Context, payment domain.Payment, fiscalYear int) (int64, error)
}

// PaymentRepositoryFacade combines all payment repository interfaces.
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}

// ApplicationReader defines read operations for applications.
type ApplicationReader interface {
	// FindApplicationByID retrieves an application.
	FindApplicationByID(ctx context.Context, applicationID string) (*domain.Application, error)

	// ListApplicationsBySource retrieves all applications drawn from one source.
	ListApplicationsBySource(ctx context.Context, sourceType domain.ApplicationSourceType, sourceID string) ([]domain.Application, error)

	// ListApplicationsByTarget retrieves all applications received by one document.
	ListApplicationsByTarget(ctx context.Context, targetDocumentID string) ([]domain.Application, error)
}

// ApplicationTxRepository exposes the mutations and locked reads that must
// share one atomic store transaction. It is only reachable through WithinTx.
type ApplicationTxRepository interface {
	// FindPaymentForUpdate retrieves a payment and locks its row.
	FindPaymentForUpdate(ctx context.Context, paymentID string) (*domain.Payment, error)

	// FindDocumentForUpdate retrieves a document and locks its row.
	FindDocumentForUpdate(ctx context.Context, documentID string) (*domain.Document, error)

	// FindApplicationByID retrieves an application inside the transaction.
	FindApplicationByID(ctx context.Context, applicationID string) (*domain.Application, error)

	// SumApplicationsFromSource totals the applications drawn from one source,
	// optionally excluding one application (for updates).
	SumApplicationsFromSource(ctx context.Context, sourceType domain.ApplicationSourceType, sourceID string, excludeApplicationID string) (decimal.Decimal, error)

	// SumApplicationsToTarget totals the applications received by one document,
	// optionally excluding one application (for updates).
	SumApplicationsToTarget(ctx context.Context, targetDocumentID string, excludeApplicationID string) (decimal.Decimal, error)

	// InsertApplication persists a new application.
	InsertApplication(ctx context.Context, application domain.Application) error

	// UpdateApplication rewrites an application's amount and date.
	UpdateApplication(ctx context.Context, application domain.Application) error

	// DeleteApplication removes an application.
	DeleteApplication(ctx context.Context, applicationID string) error

	// SetPaymentAmountLeft persists a payment's recomputed remaining balance.
	SetPaymentAmountLeft(ctx context.Context, paymentID string, amountLeft decimal.Decimal, userID string, now time.Time) error

	// SetDocumentDue persists a document's recomputed due amount.
	SetDocumentDue(ctx context.Context, documentID string, dueAmount decimal.Decimal, userID string, now time.Time) error
}

// ApplicationRepositoryWithTx combines reads with transactional mutation support.
type ApplicationRepositoryWithTx interface {
	ApplicationReader

	// WithinTx executes fn inside a single atomic store transaction. A non-nil
	// error from fn rolls everything back.
	WithinTx(ctx context.Context, fn func(txRepo ApplicationTxRepository) error) error
}
