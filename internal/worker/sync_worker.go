// Package worker mirrors created expenses into the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"

	"homemoney/internal/amqp"
	"homemoney/internal/core"
	"homemoney/internal/log"
	"homemoney/internal/sheets"
	"homemoney/internal/storage"
)

// SyncWorker appends every created expense to the spreadsheet.
type SyncWorker struct {
	repo   storage.Repository
	sheets sheets.ExpenseWriter
	lister sheets.ExpenseLister
	logger *log.Logger
}

// NewSyncWorker builds a worker. repo and lister may be nil: without repo the
// record carried by the message is used, without lister Reconcile is a no-op.
func NewSyncWorker(repo storage.Repository, writer sheets.ExpenseWriter, lister sheets.ExpenseLister, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		repo:   repo,
		sheets: writer,
		lister: lister,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleExpenseCreated processes one AMQP message. The stored record wins
// over the message body when storage is available.
func (w *SyncWorker) HandleExpenseCreated(ctx context.Context, msg *amqp.ExpenseCreatedMessage) error {
	w.logger.InfoContext(ctx, "Processing expense created message", "id", msg.ID)

	rec := msg.Record()
	if w.repo != nil {
		stored, err := w.repo.Get(ctx, msg.ID)
		switch {
		case err == nil:
			rec = stored.ExpenseRecord
		case errors.Is(err, storage.ErrNotFound):
			w.logger.WarnContext(ctx, "Expense not in storage, using message body", "id", msg.ID)
		default:
			return fmt.Errorf("get expense from storage: %w", err)
		}
	}

	ref, err := w.sheets.Append(ctx, rec)
	if err != nil {
		if errors.Is(err, core.ErrEmptyType) || errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrInvalidTime) {
			// requeueing cannot fix an invalid record
			w.logger.ErrorContext(ctx, "Dropping invalid expense", "id", msg.ID, log.FieldError, err.Error())
			return nil
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	w.logger.InfoContext(ctx, "Successfully synced expense",
		append([]any{"id", msg.ID, log.FieldSheetsRef, ref},
			log.NewFields().WithExpense(rec.Type, rec.Remark, rec.Amount, rec.Time).ToSlice()...)...)
	return nil
}

// Reconcile appends stored records missing from the spreadsheet. Records are
// matched by value, so duplicates are counted rather than collapsed. It
// recovers from messages lost while the worker was down.
func (w *SyncWorker) Reconcile(ctx context.Context) (int, error) {
	if w.repo == nil || w.lister == nil {
		return 0, nil
	}

	stored, err := w.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stored expenses: %w", err)
	}
	mirrored, err := w.lister.ListExpenses(ctx)
	if err != nil {
		return 0, fmt.Errorf("list mirrored expenses: %w", err)
	}

	missing := Missing(stored, mirrored)
	if len(missing) == 0 {
		w.logger.InfoContext(ctx, "Spreadsheet is up to date", log.FieldCount, len(stored))
		return 0, nil
	}

	w.logger.InfoContext(ctx, "Found expenses missing from spreadsheet", log.FieldCount, len(missing))
	synced := 0
	for _, rec := range missing {
		if _, err := w.sheets.Append(ctx, rec); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync expense during reconcile", log.FieldError, err.Error())
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "Reconcile completed",
		"total", len(missing),
		"synced", synced,
		"errors", len(missing)-synced)
	return synced, nil
}

// Missing returns the records of stored not present in mirrored, in stored
// order, treating both as multisets.
func Missing(stored, mirrored []core.ExpenseRecord) []core.ExpenseRecord {
	seen := make(map[core.ExpenseRecord]int, len(mirrored))
	for _, r := range mirrored {
		seen[r]++
	}
	var missing []core.ExpenseRecord
	for _, r := range stored {
		if seen[r] > 0 {
			seen[r]--
			continue
		}
		missing = append(missing, r)
	}
	return missing
}
