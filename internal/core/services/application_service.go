package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finbooks/finbooks/internal/apperrors"
	"github.com/finbooks/finbooks/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
	portssvc "github.com/finbooks/finbooks/internal/core/ports/services"
	"github.com/finbooks/finbooks/internal/dto"
	"github.com/finbooks/finbooks/internal/platform/logging"
	"github.com/finbooks/finbooks/internal/utils/accounting"
)

var (
	ErrZeroAmount = errors.New("application amount must be non-zero")
)

// applicationService tracks signed documents and payments and allocates money
// between them. Derived balances are always recomputed from the full
// application set, never adjusted incrementally.
type applicationService struct {
	documentRepo    portsrepo.DocumentRepositoryFacade
	paymentRepo     portsrepo.PaymentRepositoryFacade
	applicationRepo portsrepo.ApplicationRepositoryWithTx
	fiscalSvc       portssvc.FiscalSvcFacade
	taxCalc         portssvc.TaxCalculator
	clock           portssvc.Clock
}

// NewApplicationService creates a new ApplicationSvcFacade.
func NewApplicationService(
	documentRepo portsrepo.DocumentRepositoryFacade,
	paymentRepo portsrepo.PaymentRepositoryFacade,
	applicationRepo portsrepo.ApplicationRepositoryWithTx,
	fiscalSvc portssvc.FiscalSvcFacade,
	taxCalc portssvc.TaxCalculator,
	clock portssvc.Clock,
) portssvc.ApplicationSvcFacade {
	return &applicationService{
		documentRepo:    documentRepo,
		paymentRepo:     paymentRepo,
		applicationRepo: applicationRepo,
		fiscalSvc:       fiscalSvc,
		taxCalc:         taxCalc,
		clock:           clock,
	}
}

var _ portssvc.ApplicationSvcFacade = (*applicationService)(nil)

// --- Payments ---

func (s *applicationService) CreatePayment(ctx context.Context, tenantID string, req dto.CreatePaymentRequest, userID string) (*domain.Payment, error) {
	logger := logging.GetLoggerFromCtx(ctx)
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	amount := accounting.Round(req.Amount, accounting.StorageScale)
	if amount.IsZero() {
		return nil, fmt.Errorf("%w: payment amount must be non-zero", apperrors.ErrValidation)
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = s.clock.Now()
	}
	fiscalYear, err := s.fiscalSvc.FiscalYearFor(ctx, tenantID, paymentDate)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	payment := domain.Payment{
		PaymentID:   uuid.NewString(),
		TenantID:    tenantID,
		CustomerID:  req.CustomerID,
		Amount:      amount,
		AmountLeft:  amount,
		PaymentDate: paymentDate,
		Reference:   req.Reference,
		AuditFields: domain.NewAudit(now, userID),
	}
	// The number is drawn in the same store transaction as the insert, so a
	// failed save burns nothing.
	number, err := s.paymentRepo.CreatePayment(ctx, payment, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}
	payment.Number = number

	logger.Info("Payment created",
		slog.String("payment_id", payment.PaymentID),
		slog.String("customer_id", payment.CustomerID),
		slog.String("amount", accounting.FormatDisplay(amount)))
	return &payment, nil
}

func (s *applicationService) GetPayment(ctx context.Context, tenantID string, paymentID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.TenantID != tenantID {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("payment %s not found", paymentID))
	}
	return payment, nil
}

// --- Documents ---

func (s *applicationService) CreateDocument(ctx context.Context, tenantID string, req dto.CreateDocumentRequest, userID string) (*domain.Document, error) {
	logger := logging.GetLoggerFromCtx(ctx)
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	issueDate := req.IssueDate
	if issueDate.IsZero() {
		issueDate = s.clock.Now()
	}

	now := s.clock.Now()
	total := decimal.Zero
	lines := make([]domain.DocumentLine, len(req.Lines))
	for i, lineReq := range req.Lines {
		tax, err := s.taxCalc.TaxFor(ctx, tenantID, lineReq)
		if err != nil {
			return nil, fmt.Errorf("failed to compute tax for line %d: %w", i+1, err)
		}
		tax = accounting.Round(tax, accounting.StorageScale)
		net := accounting.Round(lineReq.Quantity.Mul(lineReq.UnitPrice), accounting.StorageScale)
		lineTotal := net.Add(tax)
		lines[i] = domain.DocumentLine{
			DocumentLineID: uuid.NewString(),
			Description:    lineReq.Description,
			Quantity:       lineReq.Quantity,
			UnitPrice:      lineReq.UnitPrice,
			TaxAmount:      tax,
			LineTotal:      lineTotal,
			AuditFields: domain.NewAudit(now, userID),
		}
		total = total.Add(lineTotal)
	}

	// An invoice total never goes negative, a credit note total never positive.
	if req.Type.Sign() > 0 && total.IsNegative() {
		return nil, fmt.Errorf("%w: %s total %s is negative", apperrors.ErrSignMismatch, req.Type.Label(), total.String())
	}
	if req.Type.Sign() < 0 && total.IsPositive() {
		return nil, fmt.Errorf("%w: %s total %s is positive", apperrors.ErrSignMismatch, req.Type.Label(), total.String())
	}

	fiscalYear, err := s.fiscalSvc.FiscalYearFor(ctx, tenantID, issueDate)
	if err != nil {
		return nil, err
	}

	status := domain.Final
	if req.Draft {
		status = domain.Draft
	}
	document := domain.Document{
		DocumentID: uuid.NewString(),
		TenantID:   tenantID,
		CustomerID: req.CustomerID,
		Type:       req.Type,
		Status:     status,
		IssueDate:  issueDate,
		Total:      total,
		DueAmount:  total,
		AuditFields: domain.NewAudit(now, userID),
	}
	for i := range lines {
		lines[i].DocumentID = document.DocumentID
	}
	// The number is drawn in the same store transaction as the insert, so a
	// failed save burns nothing.
	number, err := s.documentRepo.CreateDocument(ctx, document, lines, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", req.Type.Label(), err)
	}
	document.Number = number
	document.Lines = lines

	logger.Info("Document created",
		slog.String("document_id", document.DocumentID),
		slog.String("type", string(document.Type)),
		slog.String("total", accounting.FormatDisplay(total)))
	return &document, nil
}

func (s *applicationService) GetDocument(ctx context.Context, tenantID string, documentID string) (*domain.Document, error) {
	document, err := s.documentRepo.FindDocumentByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if document.TenantID != tenantID {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("document %s not found", documentID))
	}
	lines, err := s.documentRepo.FindLinesByDocumentID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines of document %s: %w", documentID, err)
	}
	document.Lines = lines
	return document, nil
}

func (s *applicationService) FinalizeDocument(ctx context.Context, tenantID string, documentID string, userID string) (*domain.Document, error) {
	document, err := s.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	if document.Status == domain.Final {
		return nil, fmt.Errorf("%w: document %s is already final", apperrors.ErrConflict, documentID)
	}
	now := s.clock.Now()
	if err := s.documentRepo.UpdateDocumentStatus(ctx, documentID, domain.Final, userID, now); err != nil {
		return nil, err
	}
	document.Status = domain.Final
	document.Touch(now, userID)
	return document, nil
}

// --- Applications ---

func (s *applicationService) Apply(ctx context.Context, tenantID string, req dto.ApplyRequest, userID string) (*domain.Application, error) {
	logger := logging.GetLoggerFromCtx(ctx)
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	amount := accounting.Round(req.Amount.Abs(), accounting.StorageScale)
	if amount.IsZero() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrZeroAmount)
	}
	date := req.Date
	if date.IsZero() {
		date = s.clock.Now()
	}

	var application *domain.Application
	err := s.applicationRepo.WithinTx(ctx, func(txRepo portsrepo.ApplicationTxRepository) error {
		var err error
		application, err = s.applyLocked(ctx, txRepo, tenantID, req.SourceType, req.SourceID, req.TargetDocumentID, amount, date, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Application recorded",
		slog.String("application_id", application.ApplicationID),
		slog.String("source_id", req.SourceID),
		slog.String("target_document_id", req.TargetDocumentID),
		slog.String("amount", accounting.FormatDisplay(amount)))
	return application, nil
}

func (s *applicationService) ApplyToMultiple(ctx context.Context, tenantID string, req dto.ApplyToMultipleRequest, userID string) ([]domain.Application, error) {
	logger := logging.GetLoggerFromCtx(ctx)
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	date := req.Date
	if date.IsZero() {
		date = s.clock.Now()
	}

	applications := make([]domain.Application, 0, len(req.Allocations))
	// One atomic unit: any violating allocation rolls back the whole batch.
	err := s.applicationRepo.WithinTx(ctx, func(txRepo portsrepo.ApplicationTxRepository) error {
		for i, allocation := range req.Allocations {
			amount := accounting.Round(allocation.Amount.Abs(), accounting.StorageScale)
			if amount.IsZero() {
				return fmt.Errorf("%w: allocation %d: %s", apperrors.ErrValidation, i+1, ErrZeroAmount)
			}
			application, err := s.applyLocked(ctx, txRepo, tenantID, req.SourceType, req.SourceID, allocation.TargetDocumentID, amount, date, userID)
			if err != nil {
				return fmt.Errorf("allocation %d: %w", i+1, err)
			}
			applications = append(applications, *application)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Batch application recorded",
		slog.String("source_id", req.SourceID),
		slog.Int("allocation_count", len(applications)))
	return applications, nil
}

// applyLocked performs one allocation inside an open store transaction: locks
// both sides, checks sign compatibility and both ceilings, inserts the row and
// recomputes the derived balances from the full application set.
func (s *applicationService) applyLocked(ctx context.Context, txRepo portsrepo.ApplicationTxRepository, tenantID string, sourceType domain.ApplicationSourceType, sourceID string, targetDocumentID string, amount decimal.Decimal, date time.Time, userID string) (*domain.Application, error) {
	source, err := s.lockSource(ctx, txRepo, tenantID, sourceType, sourceID)
	if err != nil {
		return nil, err
	}

	target, err := txRepo.FindDocumentForUpdate(ctx, targetDocumentID)
	if err != nil {
		return nil, err
	}
	if target.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	if target.Status == domain.Draft {
		return nil, fmt.Errorf("%w: target document %s is a draft", apperrors.ErrConflict, targetDocumentID)
	}
	if sourceType == domain.SourceCreditNote && sourceID == targetDocumentID {
		return nil, fmt.Errorf("%w: a credit note cannot be applied to itself", apperrors.ErrValidation)
	}

	if err := checkSignCompatibility(source, target); err != nil {
		return nil, err
	}

	// Source ceiling: total drawn from the source never exceeds its gross amount.
	drawnFromSource, err := txRepo.SumApplicationsFromSource(ctx, sourceType, sourceID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to total applications from source: %w", err)
	}
	if drawnFromSource.Add(amount).GreaterThan(source.gross()) {
		return nil, fmt.Errorf("%w: amount %s exceeds the %s left %s",
			apperrors.ErrLimitExceeded, amount.String(), source.label(), source.gross().Sub(drawnFromSource).String())
	}

	// Target ceiling: total received never exceeds what the document can absorb.
	capacity, err := s.targetCapacity(ctx, txRepo, target, "")
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(capacity) {
		return nil, fmt.Errorf("%w: amount %s exceeds the %s due %s",
			apperrors.ErrLimitExceeded, amount.String(), target.Type.Label(), capacity.String())
	}

	now := s.clock.Now()
	application := domain.Application{
		ApplicationID:    uuid.NewString(),
		TenantID:         tenantID,
		SourceType:       sourceType,
		SourceID:         sourceID,
		TargetDocumentID: targetDocumentID,
		Amount:           amount,
		ApplicationDate:  date,
		AuditFields:      domain.NewAudit(now, userID),
	}
	if err := txRepo.InsertApplication(ctx, application); err != nil {
		return nil, fmt.Errorf("failed to insert application: %w", err)
	}

	if err := s.recomputeSource(ctx, txRepo, source, userID, now); err != nil {
		return nil, err
	}
	if err := s.recomputeDocument(ctx, txRepo, target, userID, now); err != nil {
		return nil, err
	}
	return &application, nil
}

// lockedSource is a payment or a credit note acting as the giving side of an
// application, locked for the duration of the store transaction.
type lockedSource struct {
	payment    *domain.Payment
	creditNote *domain.Document
}

func (ls lockedSource) gross() decimal.Decimal {
	if ls.payment != nil {
		return ls.payment.GrossAmount()
	}
	return ls.creditNote.GrossAmount()
}

func (ls lockedSource) isNegative() bool {
	if ls.payment != nil {
		return ls.payment.Amount.IsNegative()
	}
	return true
}

func (ls lockedSource) label() string {
	if ls.payment != nil {
		return "payment"
	}
	return "credit note"
}

func (s *applicationService) lockSource(ctx context.Context, txRepo portsrepo.ApplicationTxRepository, tenantID string, sourceType domain.ApplicationSourceType, sourceID string) (lockedSource, error) {
	switch sourceType {
	case domain.SourcePayment:
		payment, err := txRepo.FindPaymentForUpdate(ctx, sourceID)
		if err != nil {
			return lockedSource{}, err
		}
		if payment.TenantID != tenantID {
			return lockedSource{}, apperrors.ErrNotFound
		}
		return lockedSource{payment: payment}, nil
	case domain.SourceCreditNote:
		document, err := txRepo.FindDocumentForUpdate(ctx, sourceID)
		if err != nil {
			return lockedSource{}, err
		}
		if document.TenantID != tenantID {
			return lockedSource{}, apperrors.ErrNotFound
		}
		if document.Type != domain.CreditNote {
			return lockedSource{}, fmt.Errorf("%w: document %s is not a credit note", apperrors.ErrValidation, sourceID)
		}
		if document.Status == domain.Draft {
			return lockedSource{}, fmt.Errorf("%w: credit note %s is a draft", apperrors.ErrConflict, sourceID)
		}
		return lockedSource{creditNote: document}, nil
	}
	return lockedSource{}, fmt.Errorf("%w: unknown source type %q", apperrors.ErrValidation, sourceType)
}

// checkSignCompatibility rejects allocations across sign boundaries. A negative
// payment only targets non-positive documents, a positive payment only positive
// ones, and a credit note only positive-total invoices.
func checkSignCompatibility(source lockedSource, target *domain.Document) error {
	if source.payment != nil {
		if source.isNegative() && target.Total.IsPositive() {
			return fmt.Errorf("%w: negative payment cannot target a positive-total %s", apperrors.ErrSignIncompatible, target.Type.Label())
		}
		if !source.isNegative() && target.Total.IsNegative() {
			return fmt.Errorf("%w: positive payment cannot target a negative-total %s", apperrors.ErrSignIncompatible, target.Type.Label())
		}
		return nil
	}
	if !target.Total.IsPositive() {
		return fmt.Errorf("%w: credit note can only target a positive-total invoice", apperrors.ErrSignIncompatible)
	}
	return nil
}

// targetCapacity returns how much more the document can absorb: its gross total
// minus everything already received and, for a credit note, everything already
// drawn from it. excludeApplicationID leaves one application out of the
// received total so an update can re-admit its own amount.
func (s *applicationService) targetCapacity(ctx context.Context, txRepo portsrepo.ApplicationTxRepository, target *domain.Document, excludeApplicationID string) (decimal.Decimal, error) {
	received, err := txRepo.SumApplicationsToTarget(ctx, target.DocumentID, excludeApplicationID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to total applications to target: %w", err)
	}
	capacity := target.GrossAmount().Sub(received)
	if target.Type == domain.CreditNote {
		drawn, err := txRepo.SumApplicationsFromSource(ctx, domain.SourceCreditNote, target.DocumentID, "")
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to total applications from target: %w", err)
		}
		capacity = capacity.Sub(drawn)
	}
	return capacity, nil
}

// recomputeSource rederives the source's remaining balance from the full set of
// its applications and persists it.
func (s *applicationService) recomputeSource(ctx context.Context, txRepo portsrepo.ApplicationTxRepository, source lockedSource, userID string, now time.Time) error {
	if source.payment != nil {
		return s.recomputePayment(ctx, txRepo, source.payment, userID, now)
	}
	return s.recomputeDocument(ctx, txRepo, source.creditNote, userID, now)
}

func (s *applicationService) recomputePayment(ctx context.Context, txRepo portsrepo.ApplicationTxRepository, payment *domain.Payment, userID string, now time.Time) error {
	drawn, err := txRepo.SumApplicationsFromSource(ctx, domain.SourcePayment, payment.PaymentID, "")
	if err != nil {
		return fmt.Errorf("failed to total applications from payment: %w", err)
	}
	left := payment.Amount.Sub(drawn)
	if payment.Amount.IsNegative() {
		left = payment.Amount.Add(drawn)
	}
	// The remaining balance moves toward zero and never past it.
	if left.Sign() != 0 && left.Sign() != payment.Amount.Sign() {
		return fmt.Errorf("%w: payment %s over-applied", apperrors.ErrLimitExceeded, payment.PaymentID)
	}
	if err := txRepo.SetPaymentAmountLeft(ctx, payment.PaymentID, left, userID, now); err != nil {
		return fmt.Errorf("failed to persist payment balance: %w", err)
	}
	payment.AmountLeft = left
	return nil
}

func (s *applicationService) recomputeDocument(ctx context.Context, txRepo portsrepo.ApplicationTxRepository, document *domain.Document, userID string, now time.Time) error {
	received, err := txRepo.SumApplicationsToTarget(ctx, document.DocumentID, "")
	if err != nil {
		return fmt.Errorf("failed to total applications to document: %w", err)
	}
	applied := received
	if document.Type == domain.CreditNote {
		drawn, err := txRepo.SumApplicationsFromSource(ctx, domain.SourceCreditNote, document.DocumentID, "")
		if err != nil {
			return fmt.Errorf("failed to total applications from document: %w", err)
		}
		applied = applied.Add(drawn)
	}

	due := document.Total.Sub(applied)
	if document.Total.IsNegative() {
		due = document.Total.Add(applied)
	}
	if due.Sign() != 0 && due.Sign() != document.Total.Sign() {
		return fmt.Errorf("%w: document %s over-applied", apperrors.ErrLimitExceeded, document.DocumentID)
	}
	if err := txRepo.SetDocumentDue(ctx, document.DocumentID, due, userID, now); err != nil {
		return fmt.Errorf("failed to persist document balance: %w", err)
	}
	document.DueAmount = due
	return nil
}

func (s *applicationService) UpdateApplication(ctx context.Context, tenantID string, applicationID string, req dto.UpdateApplicationRequest, userID string) (*domain.Application, error) {
	logger := logging.GetLoggerFromCtx(ctx)

	var updated *domain.Application
	err := s.applicationRepo.WithinTx(ctx, func(txRepo portsrepo.ApplicationTxRepository) error {
		application, err := txRepo.FindApplicationByID(ctx, applicationID)
		if err != nil {
			return err
		}
		if application.TenantID != tenantID {
			return apperrors.ErrNotFound
		}

		source, err := s.lockSource(ctx, txRepo, tenantID, application.SourceType, application.SourceID)
		if err != nil {
			return err
		}
		target, err := txRepo.FindDocumentForUpdate(ctx, application.TargetDocumentID)
		if err != nil {
			return err
		}

		if req.Amount != nil {
			amount := accounting.Round(req.Amount.Abs(), accounting.StorageScale)
			if amount.IsZero() {
				return fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrZeroAmount)
			}

			drawn, err := txRepo.SumApplicationsFromSource(ctx, application.SourceType, application.SourceID, applicationID)
			if err != nil {
				return fmt.Errorf("failed to total applications from source: %w", err)
			}
			if drawn.Add(amount).GreaterThan(source.gross()) {
				return fmt.Errorf("%w: amount %s exceeds the %s left %s",
					apperrors.ErrLimitExceeded, amount.String(), source.label(), source.gross().Sub(drawn).String())
			}
			capacity, err := s.targetCapacity(ctx, txRepo, target, applicationID)
			if err != nil {
				return err
			}
			if amount.GreaterThan(capacity) {
				return fmt.Errorf("%w: amount %s exceeds the %s due %s",
					apperrors.ErrLimitExceeded, amount.String(), target.Type.Label(), capacity.String())
			}
			application.Amount = amount
		}
		if req.Date != nil {
			application.ApplicationDate = *req.Date
		}

		now := s.clock.Now()
		application.Touch(now, userID)
		if err := txRepo.UpdateApplication(ctx, *application); err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}

		if err := s.recomputeSource(ctx, txRepo, source, userID, now); err != nil {
			return err
		}
		if err := s.recomputeDocument(ctx, txRepo, target, userID, now); err != nil {
			return err
		}
		updated = application
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Application updated", slog.String("application_id", applicationID))
	return updated, nil
}

func (s *applicationService) DeleteApplication(ctx context.Context, tenantID string, applicationID string, userID string) error {
	logger := logging.GetLoggerFromCtx(ctx)

	err := s.applicationRepo.WithinTx(ctx, func(txRepo portsrepo.ApplicationTxRepository) error {
		application, err := txRepo.FindApplicationByID(ctx, applicationID)
		if err != nil {
			return err
		}
		if application.TenantID != tenantID {
			return apperrors.ErrNotFound
		}

		source, err := s.lockSource(ctx, txRepo, tenantID, application.SourceType, application.SourceID)
		if err != nil {
			return err
		}
		target, err := txRepo.FindDocumentForUpdate(ctx, application.TargetDocumentID)
		if err != nil {
			return err
		}

		if err := txRepo.DeleteApplication(ctx, applicationID); err != nil {
			return fmt.Errorf("failed to delete application: %w", err)
		}

		now := s.clock.Now()
		if err := s.recomputeSource(ctx, txRepo, source, userID, now); err != nil {
			return err
		}
		return s.recomputeDocument(ctx, txRepo, target, userID, now)
	})
	if err != nil {
		return err
	}

	logger.Info("Application deleted", slog.String("application_id", applicationID))
	return nil
}

// CustomerDueAmount nets the customer's position: non-draft document dues plus
// the remaining balance of company-owed payments. Positive means the customer
// owes the company.
func (s *applicationService) CustomerDueAmount(ctx context.Context, tenantID string, customerID string) (decimal.Decimal, error) {
	documents, err := s.documentRepo.ListDocumentsByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list customer documents: %w", err)
	}
	total := decimal.Zero
	for _, document := range documents {
		if document.Status == domain.Draft {
			continue
		}
		total = total.Add(document.DueAmount)
	}

	payments, err := s.paymentRepo.ListPaymentsByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list customer payments: %w", err)
	}
	for _, payment := range payments {
		if payment.Amount.IsNegative() {
			total = total.Add(payment.AmountLeft)
		}
	}
	return total, nil
}
