package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homemoney/internal/amqp"
	"homemoney/internal/core"
	"homemoney/internal/sheets/memory"
	"homemoney/internal/storage"
)

type stubRepo struct {
	records []core.ExpenseRecord
	getErr  error
}

func (s *stubRepo) Add(ctx context.Context, rec core.ExpenseRecord) (int64, error) {
	s.records = append(s.records, rec)
	return int64(len(s.records)), nil
}

func (s *stubRepo) List(ctx context.Context) ([]core.ExpenseRecord, error) {
	return s.records, nil
}

func (s *stubRepo) Get(ctx context.Context, id int64) (storage.StoredExpense, error) {
	if s.getErr != nil {
		return storage.StoredExpense{}, s.getErr
	}
	if id < 1 || id > int64(len(s.records)) {
		return storage.StoredExpense{}, storage.ErrNotFound
	}
	return storage.StoredExpense{ID: id, ExpenseRecord: s.records[id-1]}, nil
}

func (s *stubRepo) Ping(ctx context.Context) error { return nil }
func (s *stubRepo) Close() error                   { return nil }

type failingWriter struct{ err error }

func (f failingWriter) Append(ctx context.Context, rec core.ExpenseRecord) (string, error) {
	return "", f.err
}

var food = core.ExpenseRecord{Type: "food", Amount: 10, Time: "2024-04-01"}

func TestHandleExpenseCreated_UsesStoredRecord(t *testing.T) {
	ctx := context.Background()
	stored := core.ExpenseRecord{Type: "rent", Amount: 500, Time: "2024-04-01"}
	sink := memory.New()
	w := NewSyncWorker(&stubRepo{records: []core.ExpenseRecord{stored}}, sink, sink, nil)

	require.NoError(t, w.HandleExpenseCreated(ctx, amqp.NewExpenseCreatedMessage(1, food)))

	got, _ := sink.ListExpenses(ctx)
	assert.Equal(t, []core.ExpenseRecord{stored}, got)
}

func TestHandleExpenseCreated_FallsBackToMessage(t *testing.T) {
	ctx := context.Background()
	sink := memory.New()

	w := NewSyncWorker(&stubRepo{}, sink, nil, nil)
	require.NoError(t, w.HandleExpenseCreated(ctx, amqp.NewExpenseCreatedMessage(7, food)))

	w = NewSyncWorker(nil, sink, nil, nil)
	require.NoError(t, w.HandleExpenseCreated(ctx, amqp.NewExpenseCreatedMessage(8, food)))

	got, _ := sink.ListExpenses(ctx)
	assert.Equal(t, []core.ExpenseRecord{food, food}, got)
}

func TestHandleExpenseCreated_Errors(t *testing.T) {
	ctx := context.Background()

	w := NewSyncWorker(&stubRepo{getErr: errors.New("db locked")}, memory.New(), nil, nil)
	assert.ErrorContains(t, w.HandleExpenseCreated(ctx, amqp.NewExpenseCreatedMessage(1, food)), "db locked")

	w = NewSyncWorker(nil, failingWriter{err: errors.New("quota exceeded")}, nil, nil)
	assert.ErrorContains(t, w.HandleExpenseCreated(ctx, amqp.NewExpenseCreatedMessage(1, food)), "quota exceeded")

	invalid := &amqp.ExpenseCreatedMessage{ID: 2, Amount: 1, Time: "2024-01-01"}
	w = NewSyncWorker(nil, memory.New(), nil, nil)
	assert.NoError(t, w.HandleExpenseCreated(ctx, invalid), "invalid records are dropped, not requeued")
}

func TestMissing(t *testing.T) {
	a := core.ExpenseRecord{Type: "a", Amount: 1, Time: "2024-01-01"}
	b := core.ExpenseRecord{Type: "b", Amount: 2, Time: "2024-01-02"}

	assert.Equal(t, []core.ExpenseRecord{a, b}, Missing([]core.ExpenseRecord{a, a, b}, []core.ExpenseRecord{a}))
	assert.Empty(t, Missing([]core.ExpenseRecord{a}, []core.ExpenseRecord{a, b}))
	assert.Empty(t, Missing(nil, nil))
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	a := core.ExpenseRecord{Type: "a", Amount: 1, Time: "2024-01-01"}
	b := core.ExpenseRecord{Type: "b", Amount: 2, Time: "2024-01-02"}

	sink := memory.New()
	_, err := sink.Append(ctx, a)
	require.NoError(t, err)

	w := NewSyncWorker(&stubRepo{records: []core.ExpenseRecord{a, b}}, sink, sink, nil)
	n, err := w.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = w.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, _ := sink.ListExpenses(ctx)
	assert.Equal(t, []core.ExpenseRecord{a, b}, got)

	n, err = NewSyncWorker(nil, sink, sink, nil).Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
