package core

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts lists every accepted input format. Date-only layouts are parsed
// in UTC; layouts carrying an offset keep the calendar date as written.
var dateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2006-1",
	time.RFC3339,
	"2006-1-2 15:04:05",
	"2006-1-2T15:04:05",
}

// ParseDate parses an expense date and returns midnight UTC of that calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidTime)
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
}

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int
	Month time.Month
}

// ParseMonthKey parses YYYY-MM. Full dates are accepted and truncated.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := ParseDate(s)
	if err != nil {
		return MonthKey{}, err
	}
	return MonthKeyOf(t), nil
}

func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// CurrentMonth returns the month containing now, in local time.
func CurrentMonth() MonthKey {
	return MonthKeyOf(time.Now())
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

func (k MonthKey) IsZero() bool {
	return k.Year == 0 && k.Month == 0
}

// Start returns the first day of the month at midnight UTC.
func (k MonthKey) Start() time.Time {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (k MonthKey) Prev() MonthKey {
	return MonthKeyOf(k.Start().AddDate(0, -1, 0))
}

func (k MonthKey) Next() MonthKey {
	return MonthKeyOf(k.Start().AddDate(0, 1, 0))
}

// Contains reports whether t falls within the month.
func (k MonthKey) Contains(t time.Time) bool {
	return t.Year() == k.Year && t.Month() == k.Month
}
