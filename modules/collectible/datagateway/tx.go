package datagateway

import "context"

type Tx interface {
	// Commit persists every change staged since the transaction began and ends the transaction.
	// It must fail without persisting anything when ctx is already done.
	// Commit on a datagateway without an active transaction is a no-op.
	Commit(ctx context.Context) error
	// Rollback discards every staged change. It is safe to call after Commit,
	// so a deferred Rollback is always fine.
	Rollback(ctx context.Context) error
}
