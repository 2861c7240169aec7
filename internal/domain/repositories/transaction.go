package repositories

import "context"

// TxFn is a function that runs within a transaction.
type TxFn func(ctx context.Context) error

// TransactionManager runs a function inside a single database transaction.
// The progress store relies on this for atomic read-modify-write patches.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
