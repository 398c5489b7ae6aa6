package postgres

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	rollbackTimeout = 5 * time.Second
	initialBackoff  = 50 * time.Millisecond
)

// TxOptions controls transaction isolation and retry behaviour.
type TxOptions struct {
	IsoLevel   pgx.TxIsoLevel
	ReadOnly   bool
	MaxRetries int
}

// DefaultTxOptions returns read committed with three retries.
func DefaultTxOptions() TxOptions {
	return TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		MaxRetries: 3,
	}
}

// WithTx runs fn in a transaction and commits when fn returns nil. Every
// other exit path rolls back, including panics and context cancellation.
// Serialization failures and deadlocks rerun the whole transaction with
// exponential backoff.
func WithTx(ctx context.Context, pool *pgxpool.Pool, opts TxOptions, fn func(pgx.Tx) error) error {
	backoff := initialBackoff
	for attempt := 0; ; attempt++ {
		err := runTx(ctx, pool, opts, fn)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt >= opts.MaxRetries {
			return errors.Wrapf(err, "max retries (%d) exceeded", opts.MaxRetries)
		}

		zctx.From(ctx).Warn("Retrying transaction",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		jitter := time.Duration(rand.Int64N(int64(backoff / 4)))
		t := time.NewTimer(backoff + jitter)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
		backoff *= 2
	}
}

func runTx(ctx context.Context, pool *pgxpool.Pool, opts TxOptions, fn func(pgx.Tx) error) error {
	accessMode := pgx.ReadWrite
	if opts.ReadOnly {
		accessMode = pgx.ReadOnly
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: opts.IsoLevel, AccessMode: accessMode})
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// The request context may already be cancelled.
		rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
		defer cancel()
		if rbErr := tx.Rollback(rbCtx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			zctx.From(ctx).Error("Rollback failed", zap.Error(rbErr))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	committed = true
	return nil
}
