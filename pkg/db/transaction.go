package db

import "context"

// TransactionFunc is one atomic unit of work. Repositories called with the
// ctx it receives take part in the unit.
type TransactionFunc func(ctx context.Context) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}
