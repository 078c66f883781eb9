package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/finbooks/finbooks/internal/core/domain"
	portssvc "github.com/finbooks/finbooks/internal/core/ports/services"
	"github.com/finbooks/finbooks/internal/core/services"
	"github.com/finbooks/finbooks/internal/dto"
	"github.com/finbooks/finbooks/internal/repositories/database/memory"
)

// fixedClock pins Now so tests control fiscal dates and period creation.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

// testEnv wires the full service container onto the in-memory store with one
// seeded tenant whose fiscal year starts May 1.
type testEnv struct {
	ctx       context.Context
	store     *memory.Store
	clock     *fixedClock
	container *portssvc.ServiceContainer
	tenantID  string
	userID    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	repos := memory.NewRepositoryProvider(store)
	clock := &fixedClock{now: time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)}
	container := services.NewServiceContainer(repos, services.NewZeroTaxCalculator(), clock)

	env := &testEnv{
		ctx:       context.Background(),
		store:     store,
		clock:     clock,
		container: container,
		tenantID:  uuid.NewString(),
		userID:    uuid.NewString(),
	}

	err := repos.TenantRepo.SaveTenant(env.ctx, domain.Tenant{
		TenantID: env.tenantID,
		Name:     "Test Company",
		Code:     "7",
	})
	require.NoError(t, err)

	err = container.Fiscal.SetFiscalYearStart(env.ctx, env.tenantID, dto.SetFiscalYearStartRequest{
		StartMonth: 5,
		StartDay:   1,
	}, env.userID)
	require.NoError(t, err)

	return env
}

// seedSingleSegment defines a one-position structure of the given length.
func (env *testEnv) seedSingleSegment(t *testing.T, length int) *domain.SegmentDefinition {
	t.Helper()
	def, err := env.container.Accounts.DefineSegment(env.ctx, env.tenantID, dto.DefineSegmentRequest{
		Position: 1,
		Length:   length,
	}, env.userID)
	require.NoError(t, err)
	return def
}

// seedAccount creates a value under the definition and resolves an account on it.
func (env *testEnv) seedAccount(t *testing.T, definitionID, code string, accountType domain.AccountType, allowManual bool) *domain.Account {
	t.Helper()
	value, err := env.container.Accounts.CreateSegmentValue(env.ctx, env.tenantID, dto.CreateSegmentValueRequest{
		SegmentDefinitionID: definitionID,
		Code:                code,
	}, env.userID)
	require.NoError(t, err)

	account, err := env.container.Accounts.ResolveAccount(env.ctx, env.tenantID, dto.ResolveAccountRequest{
		SegmentValueIDs:  []string{value.SegmentValueID},
		AccountType:      accountType,
		AllowManualEntry: allowManual,
	}, env.userID)
	require.NoError(t, err)
	return account
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
