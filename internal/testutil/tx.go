package testutil

import "context"

// PassthroughTxManager satisfies postgres.TxManager without a database. The
// in-memory stores have no transaction semantics, so it just runs the
// function.
type PassthroughTxManager struct{}

func (PassthroughTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
