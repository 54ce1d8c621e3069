// Package expenses keeps the client-side copy of the expense collection and
// its per-type totals, refreshed from the API.
package expenses

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"homemoney/internal/client"
	"homemoney/internal/core"
	"homemoney/internal/log"
)

// DefaultInterval is the polling period used by Run.
const DefaultInterval = 15 * time.Second

// API is the part of client.Client the store uses.
type API interface {
	GetExpenses(ctx context.Context) client.Result[core.ExpenseRecord]
	AddExpense(ctx context.Context, rec core.ExpenseRecord) error
}

type subscriber struct {
	id int
	fn func(core.ExpenseCollection)
}

// Store holds the last successfully fetched collection. A failed fetch keeps
// the previous data and records the error. Results of fetches that started
// before an already applied one are discarded.
type Store struct {
	api    API
	logger *log.Logger
	notify <-chan struct{}
	group  singleflight.Group

	mu       sync.Mutex
	expenses core.ExpenseCollection
	totals   core.CategoryTotals
	err      error
	issued   uint64
	applied  uint64
	subs     []subscriber
	nextID   int
}

type Option func(*Store)

func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.WithComponent(log.ComponentStore)
		}
	}
}

// WithNotifications makes Run refresh immediately whenever ch receives.
func WithNotifications(ch <-chan struct{}) Option {
	return func(s *Store) { s.notify = ch }
}

func New(api API, opts ...Option) *Store {
	s := &Store{
		api:      api,
		logger:   log.Discard().WithComponent(log.ComponentStore),
		expenses: core.ExpenseCollection{},
		totals:   core.CategoryTotals{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Expenses returns the current collection. Callers must not modify it.
func (s *Store) Expenses() core.ExpenseCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expenses
}

// CategoryTotals returns a copy of the per-type totals.
func (s *Store) CategoryTotals() core.CategoryTotals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.totals)
}

// Err returns the error of the most recent applied fetch, or nil.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Subscribe registers fn to run after the collection is replaced. fn runs
// outside the store lock.
func (s *Store) Subscribe(fn func(core.ExpenseCollection)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Refresh fetches the collection. Concurrent calls share one request.
func (s *Store) Refresh(ctx context.Context) error {
	_, err, _ := s.group.Do("refresh", func() (any, error) {
		return nil, s.fetch(ctx)
	})
	return err
}

// ForceRefresh starts a new fetch even if one is in flight; the in-flight
// result is then discarded as stale.
func (s *Store) ForceRefresh(ctx context.Context) error {
	return s.fetch(ctx)
}

func (s *Store) fetch(ctx context.Context) error {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	res := s.api.GetExpenses(ctx)
	return s.apply(seq, res)
}

func (s *Store) apply(seq uint64, res client.Result[core.ExpenseRecord]) error {
	s.mu.Lock()
	if seq <= s.applied {
		s.mu.Unlock()
		s.logger.Debug("Discarding stale fetch", log.FieldOperation, log.OpRefresh, "sequence", seq)
		return nil
	}
	s.applied = seq

	if res.Err != nil {
		s.err = res.Err
		s.mu.Unlock()
		s.logger.Warn("Refresh failed, keeping previous data",
			log.FieldOperation, log.OpRefresh, log.FieldError, res.Err.Error())
		return res.Err
	}

	s.err = nil
	if s.expenses.Equal(res.Data) {
		s.mu.Unlock()
		return nil
	}

	collection := core.ExpenseCollection(res.Data)
	s.expenses = collection
	s.totals = collection.Totals()
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()

	s.logger.Debug("Expenses replaced", log.FieldOperation, log.OpRefresh, log.FieldCount, len(collection))
	for _, sub := range subs {
		sub.fn(collection)
	}
	return nil
}

// Add normalises rec, posts it and refreshes on success.
func (s *Store) Add(ctx context.Context, rec core.ExpenseRecord) error {
	rec, err := core.NewExpenseRecord(rec.Type, rec.Remark, rec.Amount, rec.Time)
	if err != nil {
		return err
	}
	if err := s.api.AddExpense(ctx, rec); err != nil {
		return fmt.Errorf("add expense: %w", err)
	}
	if err := s.ForceRefresh(ctx); err != nil {
		s.logger.Warn("Refresh after add failed", log.FieldError, err.Error())
	}
	return nil
}

// Run refreshes immediately, then every interval and on every notification,
// until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	_ = s.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	notify := s.notify
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = s.Refresh(ctx)
		case _, ok := <-notify:
			if !ok {
				notify = nil
				continue
			}
			_ = s.ForceRefresh(ctx)
		}
	}
}
