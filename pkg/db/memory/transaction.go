// Package memory provides the in-process store engine used by tests and by
// STORE_DRIVER=memory. Units of work are fully serialized and roll back
// through an undo journal carried in the context.
package memory

import (
	"context"
	"sync"

	"carelink/pkg/db"
)

type journalKey struct{}

type journal struct {
	undo []func()
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

type TransactionManager struct {
	mu sync.Mutex
}

func NewTransactionManager() *TransactionManager {
	return &TransactionManager{}
}

func (m *TransactionManager) ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) (err error) {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	j := &journal{}
	defer func() {
		if r := recover(); r != nil {
			j.rollback()
			panic(r)
		}
	}()

	if err = fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		j.rollback()
	}
	return err
}

// RecordUndo registers the inverse of a mutation that was just applied.
// Outside a unit of work it does nothing.
func RecordUndo(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.undo = append(j.undo, undo)
	}
}

func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(journalKey{}).(*journal)
	return ok
}

var _ db.TransactionManager = (*TransactionManager)(nil)
