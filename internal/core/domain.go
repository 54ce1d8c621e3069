package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// DateLayout is the canonical calendar date representation of an expense.
const DateLayout = "2006-01-02"

type (
	// ExpenseRecord is a single expense as persisted and served by the API.
	// Records have no stable identity; a collection is ordered as fetched.
	ExpenseRecord struct {
		Type   string  `json:"type"`
		Remark string  `json:"remark"`
		Amount float64 `json:"amount"`
		Time   string  `json:"time"`
	}

	// ExpenseCollection is an ordered list of records.
	ExpenseCollection []ExpenseRecord

	// CategoryTotals sums amounts per expense type.
	CategoryTotals map[string]float64

	// Statistic is the per-type aggregate returned by the statistics endpoint.
	Statistic struct {
		Type  string  `json:"type"`
		Total float64 `json:"total"`
		Count int     `json:"count"`
	}
)

var (
	ErrEmptyType     = errors.New("expense type must not be empty")
	ErrInvalidAmount = errors.New("amount must be a valid number")
	ErrInvalidTime   = errors.New("invalid time format")
)

// NewExpenseRecord validates raw input and builds a record. Amount may be any
// Go number or a decimal string; time may be in any format accepted by ParseDate
// and is normalised to YYYY-MM-DD.
func NewExpenseRecord(typ, remark string, amount any, time string) (ExpenseRecord, error) {
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return ExpenseRecord{}, ErrEmptyType
	}

	value, err := coerceAmount(amount)
	if err != nil {
		return ExpenseRecord{}, err
	}

	date, err := ParseDate(time)
	if err != nil {
		return ExpenseRecord{}, err
	}

	return ExpenseRecord{
		Type:   typ,
		Remark: strings.TrimSpace(remark),
		Amount: value,
		Time:   date.Format(DateLayout),
	}, nil
}

// Validate checks an already-built record, e.g. one read back from storage.
func (r ExpenseRecord) Validate() error {
	_, err := NewExpenseRecord(r.Type, r.Remark, r.Amount, r.Time)
	return err
}

func coerceAmount(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		return ParseAmount(n.String())
	case string:
		return ParseAmount(n)
	default:
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, v)
	}
	return f, nil
}

// Equal reports whether two collections hold the same records in the same order.
func (c ExpenseCollection) Equal(other ExpenseCollection) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// Totals sums amounts per type. Non-finite amounts are ignored.
func (c ExpenseCollection) Totals() CategoryTotals {
	totals := make(CategoryTotals)
	for _, r := range c {
		if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) {
			continue
		}
		totals[r.Type] += r.Amount
	}
	return totals
}
