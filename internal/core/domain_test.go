package core

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExpenseRecord(t *testing.T) {
	cases := []struct {
		name    string
		typ     string
		remark  string
		amount  any
		time    string
		want    ExpenseRecord
		wantErr error
	}{
		{
			name: "float amount", typ: " food ", remark: " lunch ", amount: 12.5, time: "2024-04-15",
			want: ExpenseRecord{Type: "food", Remark: "lunch", Amount: 12.5, Time: "2024-04-15"},
		},
		{
			name: "string amount with comma", typ: "food", amount: "3,20", time: "2024/4/5",
			want: ExpenseRecord{Type: "food", Amount: 3.2, Time: "2024-04-05"},
		},
		{
			name: "int amount and rfc3339", typ: "rent", amount: 800, time: "2024-04-01T23:30:00+08:00",
			want: ExpenseRecord{Type: "rent", Amount: 800, Time: "2024-04-01"},
		},
		{
			name: "json number", typ: "rent", amount: json.Number("10.25"), time: "2024-04-01 08:00:00",
			want: ExpenseRecord{Type: "rent", Amount: 10.25, Time: "2024-04-01"},
		},
		{name: "empty type", typ: "  ", amount: 1, time: "2024-04-01", wantErr: ErrEmptyType},
		{name: "text amount", typ: "food", amount: "abc", time: "2024-04-01", wantErr: ErrInvalidAmount},
		{name: "nan amount", typ: "food", amount: math.NaN(), time: "2024-04-01", wantErr: ErrInvalidAmount},
		{name: "inf string", typ: "food", amount: "Inf", time: "2024-04-01", wantErr: ErrInvalidAmount},
		{name: "nil amount", typ: "food", amount: nil, time: "2024-04-01", wantErr: ErrInvalidAmount},
		{name: "bad time", typ: "food", amount: 1, time: "yesterday", wantErr: ErrInvalidTime},
		{name: "impossible day", typ: "food", amount: 1, time: "2024-02-30", wantErr: ErrInvalidTime},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewExpenseRecord(tc.typ, tc.remark, tc.amount, tc.time)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExpenseRecordValidate(t *testing.T) {
	assert.NoError(t, ExpenseRecord{Type: "a", Amount: 1, Time: "2024-01-01"}.Validate())
	assert.ErrorIs(t, ExpenseRecord{Type: "a", Amount: 1, Time: "nope"}.Validate(), ErrInvalidTime)
}

func TestExpenseCollectionEqual(t *testing.T) {
	a := ExpenseCollection{{Type: "food", Amount: 1, Time: "2024-01-01"}}
	b := ExpenseCollection{{Type: "food", Amount: 1, Time: "2024-01-01"}}
	c := ExpenseCollection{{Type: "food", Amount: 2, Time: "2024-01-01"}}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
	assert.True(t, ExpenseCollection{}.Equal(nil))
}

func TestExpenseCollectionTotals(t *testing.T) {
	c := ExpenseCollection{
		{Type: "food", Amount: 10},
		{Type: "food", Amount: 5},
		{Type: "transit", Amount: 20},
		{Type: "broken", Amount: math.Inf(1)},
	}
	assert.Equal(t, CategoryTotals{"food": 15, "transit": 20}, c.Totals())
}
