package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrBegin  = errors.New("storage: begin transaction failed")
	ErrCommit = errors.New("storage: commit failed")
)

const (
	outcomeCommit      = "commit"
	outcomeRollback    = "rollback"
	outcomeBeginError  = "begin_error"
	outcomeCommitError = "commit_error"
)

type TxFunc func(ctx context.Context, tx *sql.Tx) error

// InTx runs fn inside one transaction.
//
//   - fn returns nil: the transaction is committed; a failed commit is
//     returned wrapped in ErrCommit.
//   - fn returns an error, panics, or ctx is cancelled: the transaction is
//     rolled back and the original error (or panic) propagates.
//
// The connection is back in the pool when InTx returns.
func (db *DB) InTx(ctx context.Context, op string, fn TxFunc) (err error) {
	ctx, span := db.tracer.Start(ctx, "storage."+op)
	span.SetAttributes(attribute.String("db.system", "sqlite"))
	start := time.Now()
	outcome := outcomeRollback

	defer func() {
		db.metrics.ObserveTx(op, outcome, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		outcome = outcomeBeginError
		return fmt.Errorf("%w: %w", ErrBegin, err)
	}

	defer func() {
		if p := recover(); p != nil {
			db.rollback(ctx, op, tx)
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		db.rollback(ctx, op, tx)
		return err
	}

	if err := ctx.Err(); err != nil {
		db.rollback(ctx, op, tx)
		return err
	}

	if err := tx.Commit(); err != nil {
		outcome = outcomeCommitError
		return fmt.Errorf("%w: %w", ErrCommit, err)
	}

	outcome = outcomeCommit
	return nil
}

func (db *DB) rollback(ctx context.Context, op string, tx *sql.Tx) {
	// database/sql already rolled back when ctx was cancelled.
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		db.logger.WarnContext(ctx, "rollback failed", "op", op, "error", err)
	}
}
