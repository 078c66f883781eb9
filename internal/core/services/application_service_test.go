package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/finbooks/finbooks/internal/apperrors"
	"github.com/finbooks/finbooks/internal/core/domain"
	"github.com/finbooks/finbooks/internal/dto"
	"github.com/finbooks/finbooks/internal/repositories/database/memory"
)

type ApplicationServiceTestSuite struct {
	suite.Suite
	env        *testEnv
	customerID string
}

func (s *ApplicationServiceTestSuite) SetupTest() {
	s.env = newTestEnv(s.T())
	s.customerID = uuid.NewString()
}

func (s *ApplicationServiceTestSuite) createInvoice(amount string) *domain.Document {
	return s.createDocument(domain.Invoice, amount, false)
}

func (s *ApplicationServiceTestSuite) createDocument(docType domain.DocumentType, amount string, draft bool) *domain.Document {
	document, err := s.env.container.Applications.CreateDocument(s.env.ctx, s.env.tenantID, dto.CreateDocumentRequest{
		CustomerID: s.customerID,
		Type:       docType,
		Draft:      draft,
		Lines: []dto.CreateDocumentLineRequest{
			{Description: "Goods", Quantity: dec("1"), UnitPrice: dec(amount)},
		},
	}, s.env.userID)
	s.Require().NoError(err)
	return document
}

func (s *ApplicationServiceTestSuite) createPayment(amount string) *domain.Payment {
	payment, err := s.env.container.Applications.CreatePayment(s.env.ctx, s.env.tenantID, dto.CreatePaymentRequest{
		CustomerID: s.customerID,
		Amount:     dec(amount),
	}, s.env.userID)
	s.Require().NoError(err)
	return payment
}

func (s *ApplicationServiceTestSuite) apply(sourceType domain.ApplicationSourceType, sourceID, targetID, amount string) (*domain.Application, error) {
	return s.env.container.Applications.Apply(s.env.ctx, s.env.tenantID, dto.ApplyRequest{
		SourceType:       sourceType,
		SourceID:         sourceID,
		TargetDocumentID: targetID,
		Amount:           dec(amount),
	}, s.env.userID)
}

func (s *ApplicationServiceTestSuite) paymentLeft(paymentID string) decimal.Decimal {
	payment, err := s.env.container.Applications.GetPayment(s.env.ctx, s.env.tenantID, paymentID)
	s.Require().NoError(err)
	return payment.AmountLeft
}

func (s *ApplicationServiceTestSuite) documentDue(documentID string) decimal.Decimal {
	document, err := s.env.container.Applications.GetDocument(s.env.ctx, s.env.tenantID, documentID)
	s.Require().NoError(err)
	return document.DueAmount
}

func (s *ApplicationServiceTestSuite) TestFullSettlement() {
	invoice := s.createInvoice("1000")
	payment := s.createPayment("1000")

	_, err := s.apply(domain.SourcePayment, payment.PaymentID, invoice.DocumentID, "1000")
	s.Require().NoError(err)

	s.True(s.paymentLeft(payment.PaymentID).IsZero())
	s.True(s.documentDue(invoice.DocumentID).IsZero())
}

func (s *ApplicationServiceTestSuite) TestPartialAllocationsAcrossInvoices() {
	inv1 := s.createInvoice("300")
	inv2 := s.createInvoice("400")
	payment := s.createPayment("500")

	applications, err := s.env.container.Applications.ApplyToMultiple(s.env.ctx, s.env.tenantID, dto.ApplyToMultipleRequest{
		SourceType: domain.SourcePayment,
		SourceID:   payment.PaymentID,
		Allocations: []dto.AllocationRequest{
			{TargetDocumentID: inv1.DocumentID, Amount: dec("250")},
			{TargetDocumentID: inv2.DocumentID, Amount: dec("200")},
		},
	}, s.env.userID)
	s.Require().NoError(err)
	s.Len(applications, 2)

	s.True(s.paymentLeft(payment.PaymentID).Equal(dec("50")))
	s.True(s.documentDue(inv1.DocumentID).Equal(dec("50")))
	s.True(s.documentDue(inv2.DocumentID).Equal(dec("200")))

	due, err := s.env.container.Applications.CustomerDueAmount(s.env.ctx, s.env.tenantID, s.customerID)
	s.Require().NoError(err)
	s.True(due.Equal(dec("250")))
}

func (s *ApplicationServiceTestSuite) TestSourceCeiling_FailureLeavesStateUntouched() {
	invoice := s.createInvoice("100")
	payment := s.createPayment("50")

	_, err := s.apply(domain.SourcePayment, payment.PaymentID, invoice.DocumentID, "20")
	s.Require().NoError(err)

	// 20 + 40 would exceed the payment's 50.
	_, err = s.apply(domain.SourcePayment, payment.PaymentID, invoice.DocumentID, "40")
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrLimitExceeded)

	s.True(s.paymentLeft(payment.PaymentID).Equal(dec("30")))
	s.True(s.documentDue(invoice.DocumentID).Equal(dec("80")))
}

func (s *ApplicationServiceTestSuite) TestTargetCeiling() {
	invoice := s.createInvoice("100")
	payment := s.createPayment("200")

	_, err := s.apply(domain.SourcePayment, payment.PaymentID, invoice.DocumentID, "150")
	s.ErrorIs(err, apperrors.ErrLimitExceeded)
}

func (s *ApplicationServiceTestSuite) TestBatchIsAtomic() {
	inv1 := s.createInvoice("300")
	inv2 := s.createInvoice("100")
	payment := s.createPayment("500")

	// The second allocation overshoots its target, so the first must roll back too.
	_, err := s.env.container.Applications.ApplyToMultiple(s.env.ctx, s.env.tenantID, dto.ApplyToMultipleRequest{
		SourceType: domain.SourcePayment,
		SourceID:   payment.PaymentID,
		Allocations: []dto.AllocationRequest{
			{TargetDocumentID: inv1.DocumentID, Amount: dec("300")},
			{TargetDocumentID: inv2.DocumentID, Amount: dec("200")},
		},
	}, s.env.userID)
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrLimitExceeded)

	s.True(s.paymentLeft(payment.PaymentID).Equal(dec("500")))
	s.True(s.documentDue(inv1.DocumentID).Equal(dec("300")))
	s.True(s.documentDue(inv2.DocumentID).Equal(dec("100")))
}

func (s *ApplicationServiceTestSuite) TestNegativePaymentSignRules() {
	invoice := s.createInvoice("120")
	creditNote := s.createDocument(domain.CreditNote, "-120", false)
	refund := s.createPayment("-120")

	// A company-owed payment cannot settle a customer-owed invoice.
	_, err := s.apply(domain.SourcePayment, refund.PaymentID, invoice.DocumentID, "120")
	s.ErrorIs(err, apperrors.ErrSignIncompatible)

	// It settles the credit note, with both balances converging on zero.
	_, err = s.apply(domain.SourcePayment, refund.PaymentID, creditNote.DocumentID, "120")
	s.Require().NoError(err)
	s.True(s.paymentLeft(refund.PaymentID).IsZero())
	s.True(s.documentDue(creditNote.DocumentID).IsZero())
}

func (s *ApplicationServiceTestSuite) TestPositivePaymentCannotTargetCreditNote() {
	creditNote := s.createDocument(domain.CreditNote, "-80", false)
	payment := s.createPayment("80")

	_, err := s.apply(domain.SourcePayment, payment.PaymentID, creditNote.DocumentID, "80")
	s.ErrorIs(err, apperrors.ErrSignIncompatible)
}

func (s *ApplicationServiceTestSuite) TestCreditNoteAsSource() {
	invoice := s.createInvoice("200")
	creditNote := s.createDocument(domain.CreditNote, "-80", false)

	_, err := s.apply(domain.SourceCreditNote, creditNote.DocumentID, invoice.DocumentID, "80")
	s.Require().NoError(err)

	s.True(s.documentDue(invoice.DocumentID).Equal(dec("120")))
	// Drawing from the credit note also consumes its own balance.
	s.True(s.documentDue(creditNote.DocumentID).IsZero())
}

func (s *ApplicationServiceTestSuite) TestCreditNoteDualRoleSharesOneCeiling() {
	invoice := s.createInvoice("200")
	creditNote := s.createDocument(domain.CreditNote, "-100", false)
	refund := s.createPayment("-50")

	// 60 of the credit note already went to the invoice.
	_, err := s.apply(domain.SourceCreditNote, creditNote.DocumentID, invoice.DocumentID, "60")
	s.Require().NoError(err)

	// Only 40 of capacity remains for incoming applications.
	_, err = s.apply(domain.SourcePayment, refund.PaymentID, creditNote.DocumentID, "50")
	s.ErrorIs(err, apperrors.ErrLimitExceeded)

	_, err = s.apply(domain.SourcePayment, refund.PaymentID, creditNote.DocumentID, "40")
	s.Require().NoError(err)
	s.True(s.documentDue(creditNote.DocumentID).IsZero())
}

func (s *ApplicationServiceTestSuite) TestDraftDocumentsAreNotApplicable() {
	draft := s.createDocument(domain.Invoice, "100", true)
	payment := s.createPayment("100")

	_, err := s.apply(domain.SourcePayment, payment.PaymentID, draft.DocumentID, "100")
	s.ErrorIs(err, apperrors.ErrConflict)

	// Finalizing makes it a valid target.
	_, err = s.env.container.Applications.FinalizeDocument(s.env.ctx, s.env.tenantID, draft.DocumentID, s.env.userID)
	s.Require().NoError(err)
	_, err = s.apply(domain.SourcePayment, payment.PaymentID, draft.DocumentID, "100")
	s.NoError(err)
}

func (s *ApplicationServiceTestSuite) TestDraftCreditNoteCannotBeSource() {
	invoice := s.createInvoice("100")
	draft := s.createDocument(domain.CreditNote, "-100", true)

	_, err := s.apply(domain.SourceCreditNote, draft.DocumentID, invoice.DocumentID, "50")
	s.ErrorIs(err, apperrors.ErrConflict)
}

func (s *ApplicationServiceTestSuite) TestCreditNoteCannotTargetItself() {
	creditNote := s.createDocument(domain.CreditNote, "-100", false)

	_, err := s.apply(domain.SourceCreditNote, creditNote.DocumentID, creditNote.DocumentID, "50")
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *ApplicationServiceTestSuite) TestZeroAmountRejected() {
	invoice := s.createInvoice("100")
	payment := s.createPayment("100")

	_, err := s.apply(domain.SourcePayment, payment.PaymentID, invoice.DocumentID, "0")
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *ApplicationServiceTestSuite) TestNegativeAmountNormalized() {
	invoice := s.createInvoice("100")
	payment := s.createPayment("100")

	application, err := s.apply(domain.SourcePayment, payment.PaymentID, invoice.DocumentID, "-60")
	s.Require().NoError(err)
	s.True(application.Amount.Equal(dec("60")))
	s.True(s.documentDue(invoice.DocumentID).Equal(dec("40")))
}

func (s *ApplicationServiceTestSuite) TestUpdateApplication() {
	invoice := s.createInvoice("100")
	payment := s.createPayment("100")
	application, err := s.apply(domain.SourcePayment, payment.PaymentID, invoice.DocumentID, "60")
	s.Require().NoError(err)

	newAmount := dec("80")
	_, err = s.env.container.Applications.UpdateApplication(s.env.ctx, s.env.tenantID, application.ApplicationID, dto.UpdateApplicationRequest{
		Amount: &newAmount,
	}, s.env.userID)
	s.Require().NoError(err)
	s.True(s.paymentLeft(payment.PaymentID).Equal(dec("20")))
	s.True(s.documentDue(invoice.DocumentID).Equal(dec("20")))

	over := dec("120")
	_, err = s.env.container.Applications.UpdateApplication(s.env.ctx, s.env.tenantID, application.ApplicationID, dto.UpdateApplicationRequest{
		Amount: &over,
	}, s.env.userID)
	s.ErrorIs(err, apperrors.ErrLimitExceeded)

	// The failed update changed nothing.
	s.True(s.paymentLeft(payment.PaymentID).Equal(dec("20")))
	s.True(s.documentDue(invoice.DocumentID).Equal(dec("20")))
}

func (s *ApplicationServiceTestSuite) TestUpdateApplication_DualRoleTargetCeiling() {
	invoice := s.createInvoice("200")
	creditNote := s.createDocument(domain.CreditNote, "-100", false)
	refund := s.createPayment("-60")

	// 60 of the credit note already went to the invoice, leaving 40 of capacity.
	_, err := s.apply(domain.SourceCreditNote, creditNote.DocumentID, invoice.DocumentID, "60")
	s.Require().NoError(err)
	application, err := s.apply(domain.SourcePayment, refund.PaymentID, creditNote.DocumentID, "30")
	s.Require().NoError(err)

	// Raising past the remaining capacity of 40 is rejected even though the
	// credit note's gross amount alone would admit it.
	over := dec("50")
	_, err = s.env.container.Applications.UpdateApplication(s.env.ctx, s.env.tenantID, application.ApplicationID, dto.UpdateApplicationRequest{
		Amount: &over,
	}, s.env.userID)
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrLimitExceeded)
	s.Contains(err.Error(), "exceeds the credit note due 40")
	s.True(s.documentDue(creditNote.DocumentID).Equal(dec("-10")))

	// Raising to exactly the remaining capacity passes.
	exact := dec("40")
	_, err = s.env.container.Applications.UpdateApplication(s.env.ctx, s.env.tenantID, application.ApplicationID, dto.UpdateApplicationRequest{
		Amount: &exact,
	}, s.env.userID)
	s.Require().NoError(err)
	s.True(s.documentDue(creditNote.DocumentID).IsZero())
}

func (s *ApplicationServiceTestSuite) TestDeleteApplicationRestoresBalances() {
	invoice := s.createInvoice("100")
	payment := s.createPayment("100")
	application, err := s.apply(domain.SourcePayment, payment.PaymentID, invoice.DocumentID, "60")
	s.Require().NoError(err)

	err = s.env.container.Applications.DeleteApplication(s.env.ctx, s.env.tenantID, application.ApplicationID, s.env.userID)
	s.Require().NoError(err)
	s.True(s.paymentLeft(payment.PaymentID).Equal(dec("100")))
	s.True(s.documentDue(invoice.DocumentID).Equal(dec("100")))
}

func (s *ApplicationServiceTestSuite) TestCustomerDueAmount() {
	s.createInvoice("200")
	s.createDocument(domain.Invoice, "300", true) // draft, excluded
	s.createPayment("-50")                        // company owes the customer

	due, err := s.env.container.Applications.CustomerDueAmount(s.env.ctx, s.env.tenantID, s.customerID)
	s.Require().NoError(err)
	s.True(due.Equal(dec("150")))
}

func (s *ApplicationServiceTestSuite) TestCreateDocument_SignMismatch() {
	_, err := s.env.container.Applications.CreateDocument(s.env.ctx, s.env.tenantID, dto.CreateDocumentRequest{
		CustomerID: s.customerID,
		Type:       domain.Invoice,
		Lines: []dto.CreateDocumentLineRequest{
			{Description: "Rebate", Quantity: dec("1"), UnitPrice: dec("-50")},
		},
	}, s.env.userID)
	s.ErrorIs(err, apperrors.ErrSignMismatch)

	_, err = s.env.container.Applications.CreateDocument(s.env.ctx, s.env.tenantID, dto.CreateDocumentRequest{
		CustomerID: s.customerID,
		Type:       domain.CreditNote,
		Lines: []dto.CreateDocumentLineRequest{
			{Description: "Goods", Quantity: dec("1"), UnitPrice: dec("50")},
		},
	}, s.env.userID)
	s.ErrorIs(err, apperrors.ErrSignMismatch)
}

func (s *ApplicationServiceTestSuite) TestDocumentNumberingPerTypeAndYear() {
	first := s.createInvoice("10")
	second := s.createInvoice("20")
	note := s.createDocument(domain.CreditNote, "-5", false)

	s.Equal(int64(1), first.Number)
	s.Equal(int64(2), second.Number)
	s.Equal(int64(1), note.Number)
}

func (s *ApplicationServiceTestSuite) TestFailedDocumentCreateBurnsNoNumber() {
	repos := memory.NewRepositoryProvider(s.env.store)

	first := s.createInvoice("10")
	s.Equal(int64(1), first.Number)

	// An insert that fails leaves the sequence untouched.
	_, err := repos.DocumentRepo.CreateDocument(s.env.ctx, domain.Document{
		DocumentID: first.DocumentID,
		TenantID:   s.env.tenantID,
		CustomerID: s.customerID,
		Type:       domain.Invoice,
	}, nil, 2026)
	s.ErrorIs(err, apperrors.ErrDuplicate)

	second := s.createInvoice("20")
	s.Equal(int64(2), second.Number)
}

func (s *ApplicationServiceTestSuite) TestFailedPaymentCreateBurnsNoNumber() {
	repos := memory.NewRepositoryProvider(s.env.store)

	first := s.createPayment("10")
	s.Equal(int64(1), first.Number)

	_, err := repos.PaymentRepo.CreatePayment(s.env.ctx, domain.Payment{
		PaymentID:  first.PaymentID,
		TenantID:   s.env.tenantID,
		CustomerID: s.customerID,
		Amount:     dec("10"),
	}, 2026)
	s.ErrorIs(err, apperrors.ErrDuplicate)

	second := s.createPayment("20")
	s.Equal(int64(2), second.Number)
}

func (s *ApplicationServiceTestSuite) TestCrossTenantLookupsReadAsNotFound() {
	invoice := s.createInvoice("100")
	payment := s.createPayment("100")
	otherTenant := uuid.NewString()

	_, err := s.env.container.Applications.GetDocument(s.env.ctx, otherTenant, invoice.DocumentID)
	s.ErrorIs(err, apperrors.ErrNotFound)
	_, err = s.env.container.Applications.GetPayment(s.env.ctx, otherTenant, payment.PaymentID)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *ApplicationServiceTestSuite) TestCreatePayment_ZeroRejected() {
	_, err := s.env.container.Applications.CreatePayment(s.env.ctx, s.env.tenantID, dto.CreatePaymentRequest{
		CustomerID: s.customerID,
		Amount:     dec("0"),
	}, s.env.userID)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *ApplicationServiceTestSuite) TestFinalizeDocument_TwiceConflicts() {
	invoice := s.createInvoice("100")

	_, err := s.env.container.Applications.FinalizeDocument(s.env.ctx, s.env.tenantID, invoice.DocumentID, s.env.userID)
	s.ErrorIs(err, apperrors.ErrConflict)
}

func TestApplicationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ApplicationServiceTestSuite))
}
