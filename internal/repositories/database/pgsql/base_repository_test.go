package pgsql

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbooks/finbooks/internal/apperrors"
)

// fakeTx satisfies pgx.Tx for the commit and rollback calls runInTx makes; the
// embedded interface is left nil, so any other method would panic.
type fakeTx struct {
	pgx.Tx
	commits   *int
	rollbacks *int
}

func (t fakeTx) Commit(ctx context.Context) error {
	*t.commits++
	return nil
}

func (t fakeTx) Rollback(ctx context.Context) error {
	*t.rollbacks++
	return nil
}

type fakeStarter struct {
	begins    int
	commits   int
	rollbacks int
}

func (s *fakeStarter) Begin(ctx context.Context) (pgx.Tx, error) {
	s.begins++
	return fakeTx{commits: &s.commits, rollbacks: &s.rollbacks}, nil
}

func TestRunInTx_CommitsOnSuccess(t *testing.T) {
	db := &fakeStarter{}
	err := runInTx(context.Background(), db, 3, func(tx pgx.Tx) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, db.begins)
	assert.Equal(t, 1, db.commits)
}

func TestRunInTx_NoRetryOnOrdinaryError(t *testing.T) {
	db := &fakeStarter{}
	boom := errors.New("boom")
	err := runInTx(context.Background(), db, 3, func(tx pgx.Tx) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, db.begins)
	assert.Equal(t, 0, db.commits)
	assert.Equal(t, 1, db.rollbacks)
}

func TestRunInTx_RetriesLockConflictThenSucceeds(t *testing.T) {
	db := &fakeStarter{}
	attempts := 0
	err := runInTx(context.Background(), db, 3, func(tx pgx.Tx) error {
		attempts++
		if attempts == 1 {
			return &pgconn.PgError{Code: deadlockDetected}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, db.begins)
	assert.Equal(t, 1, db.commits)
}

func TestRunInTx_ExhaustedRetriesSurfaceConcurrencyError(t *testing.T) {
	db := &fakeStarter{}
	attempts := 0
	err := runInTx(context.Background(), db, 3, func(tx pgx.Tx) error {
		attempts++
		return &pgconn.PgError{Code: serializationFailure}
	})
	require.ErrorIs(t, err, apperrors.ErrConcurrency)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 0, db.commits)
	assert.Equal(t, 3, db.rollbacks)
}

func TestRunInTx_RetryLimitFloorsAtOne(t *testing.T) {
	db := &fakeStarter{}
	attempts := 0
	err := runInTx(context.Background(), db, 0, func(tx pgx.Tx) error {
		attempts++
		return &pgconn.PgError{Code: serializationFailure}
	})
	require.ErrorIs(t, err, apperrors.ErrConcurrency)
	assert.Equal(t, 1, attempts)
}

func TestErrorClassifiers(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: uniqueViolation}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: serializationFailure}))

	assert.True(t, isLockConflict(&pgconn.PgError{Code: serializationFailure}))
	assert.True(t, isLockConflict(&pgconn.PgError{Code: deadlockDetected}))
	assert.False(t, isLockConflict(&pgconn.PgError{Code: uniqueViolation}))
	assert.False(t, isLockConflict(errors.New("plain")))
}
