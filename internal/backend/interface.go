// Package backend builds the storage repository selected by configuration.
package backend

import (
	"context"

	"homemoney/internal/storage"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the repository and its cleanup function.
type BackendResult struct {
	Repository storage.Repository
	Cleanup    CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType names a storage backend.
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	CSVBackend      BackendType = "csv"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, CSVBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// GetBackendTypes returns all valid backend types.
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, CSVBackend, PostgresBackend}
}
