package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"homemoney/internal/core"
	"homemoney/internal/export"
	"homemoney/internal/log"
)

// CSVRepository keeps the collection in a CSV file using the export layout.
// Ids are 1-based row positions.
type CSVRepository struct {
	mirror *export.Mirror
	logger *log.Logger
	now    func() time.Time
	mu     sync.Mutex
}

func NewCSVRepository(path string, logger *log.Logger) *CSVRepository {
	if logger == nil {
		logger = log.Discard()
	}
	return &CSVRepository{
		mirror: export.NewMirror(path, logger),
		logger: logger.WithComponent(log.ComponentStorage),
		now:    time.Now,
	}
}

func (r *CSVRepository) Path() string {
	return r.mirror.Path()
}

func (r *CSVRepository) Close() error {
	return nil
}

// Ping succeeds when the file exists or has not been created yet.
func (r *CSVRepository) Ping(ctx context.Context) error {
	_, err := os.Stat(r.mirror.Path())
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("stat csv: %w", err)
}

func (r *CSVRepository) List(ctx context.Context) ([]core.ExpenseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *CSVRepository) Get(ctx context.Context, id int64) (StoredExpense, error) {
	records, err := r.List(ctx)
	if err != nil {
		return StoredExpense{}, err
	}
	if id < 1 || id > int64(len(records)) {
		return StoredExpense{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return StoredExpense{ID: id, ExpenseRecord: records[id-1]}, nil
}

func (r *CSVRepository) Add(ctx context.Context, rec core.ExpenseRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return 0, err
	}
	records = append(records, rec)
	if err := r.mirror.Rewrite(records, r.now().Format(core.DateLayout)); err != nil {
		return 0, fmt.Errorf("append expense: %w", err)
	}
	return int64(len(records)), nil
}

func (r *CSVRepository) load() ([]core.ExpenseRecord, error) {
	f, err := os.Open(r.mirror.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return []core.ExpenseRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	records, skipped, err := export.ReadCSV(f)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		r.logger.Warn("Skipped invalid CSV rows", log.FieldCount, skipped, "path", r.mirror.Path())
	}
	return records, nil
}
