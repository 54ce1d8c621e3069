package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2024-04-15",
		"2024-4-15",
		"2024/04/15",
		" 2024-04-15 ",
		"2024-04-15 18:30:00",
		"2024-04-15T18:30:00",
		"2024-04-15T23:59:00-05:00",
	} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s -> %s", in, got)
	}

	month, err := ParseDate("2024-04")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), month)

	for _, in := range []string{"", "15/04/2024", "2024-13-01", "not a date"} {
		_, err := ParseDate(in)
		assert.ErrorIs(t, err, ErrInvalidTime, in)
	}
}

func TestMonthKey(t *testing.T) {
	k, err := ParseMonthKey("2024-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-01", k.String())
	assert.Equal(t, "2023-12", k.Prev().String())
	assert.Equal(t, "2024-02", k.Next().String())
	assert.Equal(t, "2025-01", MonthKey{Year: 2024, Month: time.December}.Next().String())

	assert.True(t, k.Contains(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, k.Contains(time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), k.Start())
	assert.False(t, k.IsZero())
	assert.True(t, MonthKey{}.IsZero())

	_, err = ParseMonthKey("garbage")
	assert.ErrorIs(t, err, ErrInvalidTime)
}
