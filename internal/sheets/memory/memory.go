// Package memory is an in-process stand-in for the spreadsheet, used when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"homemoney/internal/core"
	ports "homemoney/internal/sheets"
)

var (
	_ ports.ExpenseWriter = (*Store)(nil)
	_ ports.ExpenseLister = (*Store)(nil)
)

type Store struct {
	mu    sync.Mutex
	items []core.ExpenseRecord
}

func New() *Store {
	return &Store{}
}

// Append stores the record and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, rec core.ExpenseRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, rec)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

func (s *Store) ListExpenses(_ context.Context) ([]core.ExpenseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ExpenseRecord{}, s.items...), nil
}
