package engine

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

type txKey struct{}

// WithTx binds tx to ctx as the current transaction
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction bound by WithTx or RunInTx
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok && tx != nil
}

// TxBeginner starts transactions; satisfied by *pgxpool.Pool, *pgx.Conn and *Connector
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RunInTx executes fn in a transaction bound to the context passed to fn.
// If fn returns an error the transaction is rolled back and that same error
// is returned; otherwise the transaction is committed and the commit error,
// which carries any deferred constraint violation, is returned.
func RunInTx(ctx context.Context, db TxBeginner, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(WithTx(ctx, tx), tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			Logger().Warn().Err(rbErr).Msg("rollback failed")
		}
		return err
	}
	return tx.Commit(ctx)
}
