// Package memory provides mutex-guarded in-memory repositories implementing
// the same ports as the Postgres layer. They back the engine in tests and in
// ephemeral setups where no database is available.
package memory

import (
	"sync"

	"github.com/finbooks/finbooks/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
)

// Store holds every table as a map guarded by one mutex. Transactions are
// modeled by serializing WithinTx callers and restoring a snapshot when the
// callback fails, which gives the same all-or-nothing visibility as the
// Postgres layer.
type Store struct {
	mu sync.Mutex

	tenants         map[string]domain.Tenant
	setups          map[string]domain.FiscalYearSetup
	periods         map[string]domain.FiscalPeriod
	definitions     map[string]domain.SegmentDefinition
	values          map[string]domain.SegmentValue
	accounts        map[string]domain.Account
	accountSegments map[string][]domain.AccountSegment
	sequences       map[sequenceKey]int64
	transactions    map[string]domain.TransactionHeader
	transactionRows map[string][]domain.TransactionLine
	documents       map[string]domain.Document
	documentRows    map[string][]domain.DocumentLine
	payments        map[string]domain.Payment
	applications    map[string]domain.Application
}

type sequenceKey struct {
	TenantID     string
	SequenceType string
	FiscalYear   int
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		tenants:         map[string]domain.Tenant{},
		setups:          map[string]domain.FiscalYearSetup{},
		periods:         map[string]domain.FiscalPeriod{},
		definitions:     map[string]domain.SegmentDefinition{},
		values:          map[string]domain.SegmentValue{},
		accounts:        map[string]domain.Account{},
		accountSegments: map[string][]domain.AccountSegment{},
		sequences:       map[sequenceKey]int64{},
		transactions:    map[string]domain.TransactionHeader{},
		transactionRows: map[string][]domain.TransactionLine{},
		documents:       map[string]domain.Document{},
		documentRows:    map[string][]domain.DocumentLine{},
		payments:        map[string]domain.Payment{},
		applications:    map[string]domain.Application{},
	}
}

// NewRepositoryProvider builds every in-memory repository on one shared store.
func NewRepositoryProvider(store *Store) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		TenantRepo:      &memTenantRepository{store: store},
		SegmentRepo:     &memSegmentRepository{store: store},
		AccountRepo:     &memAccountRepository{store: store},
		FiscalRepo:      &memFiscalRepository{store: store},
		SequenceRepo:    &memSequenceRepository{store: store},
		TransactionRepo: &memTransactionRepository{store: store},
		DocumentRepo:    &memDocumentRepository{store: store},
		PaymentRepo:     &memPaymentRepository{store: store},
		ApplicationRepo: &memApplicationRepository{store: store},
	}
}

// snapshot copies every table. Values are plain structs, so map copies are
// deep enough; slices are cloned element by element.
func (s *Store) snapshot() *Store {
	clone := NewStore()
	copyMap(clone.tenants, s.tenants)
	copyMap(clone.setups, s.setups)
	copyMap(clone.periods, s.periods)
	copyMap(clone.definitions, s.definitions)
	copyMap(clone.values, s.values)
	copyMap(clone.accounts, s.accounts)
	copySliceMap(clone.accountSegments, s.accountSegments)
	copyMap(clone.sequences, s.sequences)
	copyMap(clone.transactions, s.transactions)
	copySliceMap(clone.transactionRows, s.transactionRows)
	copyMap(clone.documents, s.documents)
	copySliceMap(clone.documentRows, s.documentRows)
	copyMap(clone.payments, s.payments)
	copyMap(clone.applications, s.applications)
	return clone
}

// restore replaces every table with the snapshot's.
func (s *Store) restore(snap *Store) {
	s.tenants = snap.tenants
	s.setups = snap.setups
	s.periods = snap.periods
	s.definitions = snap.definitions
	s.values = snap.values
	s.accounts = snap.accounts
	s.accountSegments = snap.accountSegments
	s.sequences = snap.sequences
	s.transactions = snap.transactions
	s.transactionRows = snap.transactionRows
	s.documents = snap.documents
	s.documentRows = snap.documentRows
	s.payments = snap.payments
	s.applications = snap.applications
}

func copyMap[K comparable, V any](dst, src map[K]V) {
	for k, v := range src {
		dst[k] = v
	}
}

func copySliceMap[K comparable, V any](dst, src map[K][]V) {
	for k, v := range src {
		cloned := make([]V, len(v))
		copy(cloned, v)
		dst[k] = cloned
	}
}
