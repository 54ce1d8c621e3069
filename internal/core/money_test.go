package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"1.23", 1.23, true},
		{"1,23", 1.23, true},
		{" 2.50 ", 2.5, true},
		{"-4", -4, true},
		{"0", 0, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"NaN", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.out, got, tc.in)
		} else {
			assert.ErrorIs(t, err, ErrInvalidAmount, tc.in)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "12.00", FormatAmount(12))
	assert.Equal(t, "0.10", FormatAmount(0.1))
	assert.Equal(t, "3.46", FormatAmount(3.456))
}

func TestSumAmounts(t *testing.T) {
	assert.Equal(t, 0.3, SumAmounts(0.1, 0.2))
	assert.Equal(t, 0.0, SumAmounts())
}

func TestChartSeries(t *testing.T) {
	s := ChartSeries{Labels: []string{"04-01", "04-02"}, Values: []float64{15, 20}}
	assert.Equal(t, 35.0, s.Sum())
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Equal(s.Clone()))
	assert.False(t, s.Equal(EmptySeries()))
	assert.True(t, EmptySeries().Equal(ChartSeries{}))
	assert.NotNil(t, EmptySeries().Labels)
}
