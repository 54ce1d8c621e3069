// Package importer reads expense files and posts their records to the API.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"

	"homemoney/internal/core"
	"homemoney/internal/export"
	"homemoney/internal/log"
)

// Poster saves one record. *client.Client implements it.
type Poster interface {
	AddExpense(ctx context.Context, rec core.ExpenseRecord) error
}

// Summary counts the outcome of an import.
type Summary struct {
	Read    int
	Skipped int
	Posted  int
	Failed  int
}

// ReadFile parses path by extension: .csv in the export layout, .ofx and
// .qfx bank statements. OFX debits get typ as their type, or the
// transaction type when typ is empty.
func ReadFile(path, typ string) ([]core.ExpenseRecord, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return export.ReadCSV(f)
	case ".ofx", ".qfx":
		return ParseOFX(f, typ)
	default:
		return nil, 0, fmt.Errorf("unsupported file type %q", ext)
	}
}

// Import posts records one by one, drawing a progress bar on w. Failed posts
// are logged and counted; the import stops early only when ctx is done.
func Import(ctx context.Context, api Poster, records []core.ExpenseRecord, w io.Writer, logger *log.Logger) (Summary, error) {
	if logger == nil {
		logger = log.Discard()
	}
	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Importing expenses"),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)

	sum := Summary{Read: len(records)}
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if err := api.AddExpense(ctx, rec); err != nil {
			sum.Failed++
			fields := log.NewFields().
				WithOperation(log.OpCreate).
				WithExpense(rec.Type, rec.Remark, rec.Amount, rec.Time).
				WithError(err)
			fields["index"] = i
			logger.Warn("Failed to import expense", fields.ToSlice()...)
		} else {
			sum.Posted++
		}
		_ = bar.Add(1)
	}
	return sum, nil
}
