package repository

import "context"

// Tx is an infra-defined transaction handle (pgx.Tx for Postgres).
// Repositories MUST accept nil and fall back to the non-transactional path.
type Tx interface{}

var NoTX Tx

// TransactionManager runs fn inside one storage transaction, passing the handle via tx.
// Returning an error from fn rolls the transaction back.
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
