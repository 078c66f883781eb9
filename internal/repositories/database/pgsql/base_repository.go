package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/finbooks/finbooks/internal/apperrors"
)

// Postgres error codes this layer maps to the error taxonomy.
const (
	uniqueViolation      = "23505"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// isUniqueViolation reports whether err is a unique constraint breach.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// isLockConflict reports whether err is a serialization failure or deadlock,
// the two conditions Postgres asks the client to retry.
func isLockConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == serializationFailure || pgErr.Code == deadlockDetected)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so read helpers can
// run inside or outside an explicit transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txStarter is satisfied by *pgxpool.Pool.
type txStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// runInTx executes fn inside a transaction, committing on nil and rolling back
// on error or panic. Lock conflicts are retried up to retryLimit attempts; the
// closure must therefore be safe to re-run from scratch. Exhausting the
// retries surfaces apperrors.ErrConcurrency.
func runInTx(ctx context.Context, db txStarter, retryLimit int, fn func(tx pgx.Tx) error) error {
	if retryLimit < 1 {
		retryLimit = 1
	}
	var lastErr error
	for attempt := 1; attempt <= retryLimit; attempt++ {
		err := attemptTx(ctx, db, fn)
		if err == nil {
			return nil
		}
		if !isLockConflict(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: gave up after %d attempts: %v", apperrors.ErrConcurrency, retryLimit, lastErr)
}

func attemptTx(ctx context.Context, db txStarter, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
