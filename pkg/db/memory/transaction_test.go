package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteTransaction_RollsBackOnError(t *testing.T) {
	tm := NewTransactionManager()
	var mu sync.Mutex
	state := []string{"a"}

	errBoom := errors.New("boom")
	err := tm.ExecuteTransaction(context.Background(), func(ctx context.Context) error {
		mu.Lock()
		state = append(state, "b")
		mu.Unlock()
		RecordUndo(ctx, func() {
			mu.Lock()
			state = state[:len(state)-1]
			mu.Unlock()
		})
		return errBoom
	})

	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, []string{"a"}, state)
}

func TestExecuteTransaction_CommitKeepsChanges(t *testing.T) {
	tm := NewTransactionManager()
	counter := 0

	err := tm.ExecuteTransaction(context.Background(), func(ctx context.Context) error {
		counter++
		RecordUndo(ctx, func() { counter-- })
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, counter)
}

func TestExecuteTransaction_NestedJoinsOuterUnit(t *testing.T) {
	tm := NewTransactionManager()
	counter := 0

	err := tm.ExecuteTransaction(context.Background(), func(ctx context.Context) error {
		inner := tm.ExecuteTransaction(ctx, func(ctx context.Context) error {
			counter++
			RecordUndo(ctx, func() { counter-- })
			return nil
		})
		require.NoError(t, inner)
		return errors.New("outer failure")
	})

	require.Error(t, err)
	assert.Equal(t, 0, counter, "inner change must roll back with the outer unit")
}

func TestExecuteTransaction_RollsBackOnPanic(t *testing.T) {
	tm := NewTransactionManager()
	counter := 0

	assert.Panics(t, func() {
		_ = tm.ExecuteTransaction(context.Background(), func(ctx context.Context) error {
			counter++
			RecordUndo(ctx, func() { counter-- })
			panic("boom")
		})
	})
	assert.Equal(t, 0, counter)
}

func TestRecordUndo_OutsideUnitIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordUndo(context.Background(), func() { t.Fatal("must not run") })
	})
	assert.False(t, InTransaction(context.Background()))
}

func TestExecuteTransaction_CancelledContext(t *testing.T) {
	tm := NewTransactionManager()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := tm.ExecuteTransaction(ctx, func(context.Context) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
