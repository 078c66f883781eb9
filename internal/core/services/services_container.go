package services

import (
	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
	portssvc "github.com/finbooks/finbooks/internal/core/ports/services"
)

// NewServiceContainer wires every engine service against one repository
// provider and one set of collaborators.
func NewServiceContainer(repos *portsrepo.RepositoryProvider, taxCalc portssvc.TaxCalculator, clock portssvc.Clock) *portssvc.ServiceContainer {
	accountSvc := NewAccountService(repos.SegmentRepo, repos.AccountRepo, repos.TenantRepo, clock)
	fiscalSvc := NewFiscalService(repos.FiscalRepo, clock)
	sequenceSvc := NewSequenceService(repos.SequenceRepo)
	transactionSvc := NewTransactionService(repos.TransactionRepo, accountSvc, fiscalSvc, clock)
	applicationSvc := NewApplicationService(repos.DocumentRepo, repos.PaymentRepo, repos.ApplicationRepo, fiscalSvc, taxCalc, clock)

	return &portssvc.ServiceContainer{
		Accounts:     accountSvc,
		Fiscal:       fiscalSvc,
		Sequences:    sequenceSvc,
		Transactions: transactionSvc,
		Applications: applicationSvc,
	}
}
