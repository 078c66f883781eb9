package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
)

// NewRepositoryProvider builds every Postgres repository on one shared pool.
// lockRetryLimit bounds how often a transactional mutation is retried after a
// serialization failure or deadlock before it surfaces ErrConcurrency.
func NewRepositoryProvider(pool *pgxpool.Pool, lockRetryLimit int) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		TenantRepo:      newPgxTenantRepository(pool),
		SegmentRepo:     newPgxSegmentRepository(pool, lockRetryLimit),
		AccountRepo:     newPgxAccountRepository(pool, lockRetryLimit),
		FiscalRepo:      newPgxFiscalRepository(pool),
		SequenceRepo:    newPgxSequenceRepository(pool),
		TransactionRepo: newPgxTransactionRepository(pool, lockRetryLimit),
		DocumentRepo:    newPgxDocumentRepository(pool, lockRetryLimit),
		PaymentRepo:     newPgxPaymentRepository(pool, lockRetryLimit),
		ApplicationRepo: newPgxApplicationRepository(pool, lockRetryLimit),
	}
}
