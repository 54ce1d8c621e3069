// Package storage persists expense records. SQLite is the default backend;
// a CSV file and PostgreSQL are alternatives selected by configuration.
package storage

import (
	"context"
	"errors"

	"homemoney/internal/core"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("expense not found")

// StoredExpense is a record together with its storage id.
type StoredExpense struct {
	ID int64
	core.ExpenseRecord
}

// Repository is implemented by every storage backend.
type Repository interface {
	// Add persists a validated record and returns its id.
	Add(ctx context.Context, rec core.ExpenseRecord) (int64, error)
	// List returns every record in insertion order, never nil.
	List(ctx context.Context) ([]core.ExpenseRecord, error)
	// Get returns one record or ErrNotFound.
	Get(ctx context.Context, id int64) (StoredExpense, error)
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}
