// Package services orchestrates expense operations across storage, the CSV
// mirror and AMQP.
package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"homemoney/internal/core"
	"homemoney/internal/export"
	"homemoney/internal/log"
	"homemoney/internal/storage"
)

// Publisher announces persisted expenses. *amqp.Client implements it.
type Publisher interface {
	PublishExpenseCreated(ctx context.Context, id int64, rec core.ExpenseRecord) error
}

// ExpenseInput is the raw body of a create request. Amount may be a JSON
// number or a string.
type ExpenseInput struct {
	Type   string `json:"type"`
	Remark string `json:"remark"`
	Amount any    `json:"amount"`
	Time   string `json:"time"`
}

// ExpenseService saves expenses, keeps the CSV mirror current and publishes
// creation events. Mirror and publish failures are logged, not returned.
type ExpenseService struct {
	repo      storage.Repository
	mirror    *export.Mirror
	publisher Publisher
	now       func() time.Time
	logger    *log.Logger
}

type Option func(*ExpenseService)

// WithMirror rewrites the CSV mirror after every create.
func WithMirror(m *export.Mirror) Option {
	return func(s *ExpenseService) { s.mirror = m }
}

// WithPublisher publishes an event after every create.
func WithPublisher(p Publisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *ExpenseService) {
		if logger != nil {
			s.logger = logger.WithComponent(log.ComponentExpense)
		}
	}
}

func NewExpenseService(repo storage.Repository, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		repo:   repo,
		now:    time.Now,
		logger: log.Discard().WithComponent(log.ComponentExpense),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ExpenseService) today() string {
	return s.now().Format(core.DateLayout)
}

// Preprocess trims the text fields and replaces a missing or unparsable time
// with today, then validates the result.
func (s *ExpenseService) Preprocess(in ExpenseInput) (core.ExpenseRecord, error) {
	date := strings.TrimSpace(in.Time)
	if _, err := core.ParseDate(date); err != nil {
		date = s.today()
	}
	if in.Amount == nil {
		return core.ExpenseRecord{}, fmt.Errorf("%w: missing", core.ErrInvalidAmount)
	}
	return core.NewExpenseRecord(in.Type, in.Remark, in.Amount, date)
}

// IsValidationError reports whether err came from record validation.
func IsValidationError(err error) bool {
	return errors.Is(err, core.ErrEmptyType) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidTime)
}

// CreateExpense validates and saves an expense and returns its id.
func (s *ExpenseService) CreateExpense(ctx context.Context, in ExpenseInput) (int64, error) {
	rec, err := s.Preprocess(in)
	if err != nil {
		s.logger.WarnContext(ctx, "Expense rejected",
			log.FieldOperation, log.OpValidate,
			log.FieldErrorType, log.ErrorTypeValidation,
			log.FieldError, err.Error())
		return 0, err
	}

	id, err := s.repo.Add(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}

	if s.mirror != nil {
		if _, err := s.RewriteMirror(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Failed to rewrite CSV mirror", log.FieldError, err.Error())
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishExpenseCreated(ctx, id, rec); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish expense created message",
				"id", id, log.FieldError, err.Error())
		}
	} else {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping message")
	}

	return id, nil
}

// ListExpenses returns every stored record, never nil.
func (s *ExpenseService) ListExpenses(ctx context.Context) ([]core.ExpenseRecord, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if records == nil {
		records = []core.ExpenseRecord{}
	}
	return records, nil
}

// Statistics returns per-type totals and counts, largest total first.
func (s *ExpenseService) Statistics(ctx context.Context) ([]core.Statistic, error) {
	records, err := s.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}
	return Statistics(records), nil
}

// Statistics groups records by type. Totals are summed in decimal.
func Statistics(records []core.ExpenseRecord) []core.Statistic {
	type acc struct {
		total decimal.Decimal
		count int
	}
	groups := make(map[string]*acc)
	for _, r := range records {
		g, ok := groups[r.Type]
		if !ok {
			g = &acc{}
			groups[r.Type] = g
		}
		g.total = g.total.Add(decimal.NewFromFloat(r.Amount))
		g.count++
	}

	stats := make([]core.Statistic, 0, len(groups))
	for typ, g := range groups {
		total, _ := g.total.Round(2).Float64()
		stats = append(stats, core.Statistic{Type: typ, Total: total, Count: g.count})
	}
	slices.SortFunc(stats, func(a, b core.Statistic) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
	return stats
}

// RewriteMirror regenerates the CSV mirror from storage and returns its path.
func (s *ExpenseService) RewriteMirror(ctx context.Context) (string, error) {
	if s.mirror == nil {
		return "", errors.New("csv mirror not configured")
	}
	records, err := s.ListExpenses(ctx)
	if err != nil {
		return "", err
	}
	if err := s.mirror.Rewrite(records, s.today()); err != nil {
		return "", err
	}
	return s.mirror.Path(), nil
}

// ReadMirror returns the current CSV mirror content.
func (s *ExpenseService) ReadMirror() ([]byte, error) {
	if s.mirror == nil {
		return nil, errors.New("csv mirror not configured")
	}
	return s.mirror.Read()
}

// Ping checks the repository.
func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
