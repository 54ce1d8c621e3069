// Package client talks to the expense HTTP API. Read operations never fail
// outright: they return an empty list plus the error in a Result.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"homemoney/internal/core"
	"homemoney/internal/log"
)

const (
	DefaultBaseURL = "http://localhost:3010/api"
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 10 << 20
)

var ErrUnexpectedShape = errors.New("unexpected response shape")

// APIError is returned for non-2xx responses.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Result carries a list that is never nil and the error, if any, that made
// it empty.
type Result[T any] struct {
	Data []T
	Err  error
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.WithComponent(log.ComponentClient)
		}
	}
}

// New creates a client for the API rooted at baseURL (e.g. http://host:3010/api).
func New(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  log.Discard().WithComponent(log.ComponentClient),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetExpenses fetches every expense record.
func (c *Client) GetExpenses(ctx context.Context) Result[core.ExpenseRecord] {
	body, err := c.get(ctx, "/expenses")
	if err != nil {
		c.logger.WarnContext(ctx, "Fetching expenses failed", log.FieldOperation, log.OpList, log.FieldError, err.Error())
		return Result[core.ExpenseRecord]{Data: []core.ExpenseRecord{}, Err: err}
	}
	items, err := decodeList(body)
	if err != nil {
		c.logger.WarnContext(ctx, "Expenses response not understood", log.FieldOperation, log.OpParse, log.FieldError, err.Error())
		return Result[core.ExpenseRecord]{Data: []core.ExpenseRecord{}, Err: err}
	}
	return Result[core.ExpenseRecord]{Data: c.records(ctx, items)}
}

// GetStatistics fetches per-type totals.
func (c *Client) GetStatistics(ctx context.Context) Result[core.Statistic] {
	body, err := c.get(ctx, "/expenses/statistics")
	if err != nil {
		c.logger.WarnContext(ctx, "Fetching statistics failed", log.FieldOperation, log.OpRead, log.FieldError, err.Error())
		return Result[core.Statistic]{Data: []core.Statistic{}, Err: err}
	}
	items, err := decodeList(body)
	if err != nil {
		return Result[core.Statistic]{Data: []core.Statistic{}, Err: err}
	}
	stats := make([]core.Statistic, 0, len(items))
	for _, raw := range items {
		var s core.Statistic
		if err := json.Unmarshal(raw, &s); err != nil {
			c.logger.WarnContext(ctx, "Skipping malformed statistic", log.FieldError, err.Error())
			continue
		}
		stats = append(stats, s)
	}
	return Result[core.Statistic]{Data: stats}
}

// AddExpense posts a record. The amount is always sent as a JSON number.
func (c *Client) AddExpense(ctx context.Context, rec core.ExpenseRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode expense: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/expenses", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post expense: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
	}

	c.logger.InfoContext(ctx, "Expense posted",
		log.NewFields().WithOperation(log.OpCreate).WithExpense(rec.Type, rec.Remark, rec.Amount, rec.Time).ToSlice()...)
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

// wireRecord accepts amounts sent either as numbers or as strings.
type wireRecord struct {
	Type   string          `json:"type"`
	Remark string          `json:"remark"`
	Amount json.RawMessage `json:"amount"`
	Time   string          `json:"time"`
}

func (c *Client) records(ctx context.Context, items []json.RawMessage) []core.ExpenseRecord {
	out := make([]core.ExpenseRecord, 0, len(items))
	for i, raw := range items {
		var w wireRecord
		if err := json.Unmarshal(raw, &w); err != nil {
			c.logger.WarnContext(ctx, "Skipping malformed record", "index", i, log.FieldError, err.Error())
			continue
		}
		amount, err := decodeAmount(w.Amount)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping record with invalid amount", "index", i, log.FieldError, err.Error())
			continue
		}
		out = append(out, core.ExpenseRecord{Type: w.Type, Remark: w.Remark, Amount: amount, Time: w.Time})
	}
	return out
}

func decodeAmount(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return core.ParseAmount(s)
	}
	return 0, fmt.Errorf("%w: %s", core.ErrInvalidAmount, string(raw))
}

// errorMessage extracts the server's message from {"error": "..."} or
// {"error": {"message": "..."}} bodies.
func errorMessage(body []byte) string {
	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &flat) == nil && flat.Error != "" {
		return flat.Error
	}
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}
	return strings.TrimSpace(string(body))
}
