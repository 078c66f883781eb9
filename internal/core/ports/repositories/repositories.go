package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	TenantRepo      TenantRepositoryFacade
	SegmentRepo     SegmentRepositoryFacade
	AccountRepo     AccountRepositoryFacade
	FiscalRepo      FiscalRepositoryFacade
	SequenceRepo    SequenceRepository
	TransactionRepo TransactionRepositoryWithTx
	DocumentRepo    DocumentRepositoryFacade
	PaymentRepo     PaymentRepositoryFacade
	ApplicationRepo ApplicationRepositoryWithTx
}
