package chart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"homemoney/internal/core"
	"homemoney/internal/log"
)

var april = core.MonthKey{Year: 2024, Month: 4}

func sampleRecords() []core.ExpenseRecord {
	return []core.ExpenseRecord{
		{Type: "food", Amount: 10, Time: "2024-04-01"},
		{Type: "food", Amount: 5, Time: "2024-04-01"},
		{Type: "transit", Amount: 20, Time: "2024-04-02"},
	}
}

func TestAggregate_Scenario(t *testing.T) {
	trend, ranked := Aggregate(sampleRecords(), april, log.Discard())

	assert.Equal(t, core.ChartSeries{Labels: []string{"04-01", "04-02"}, Values: []float64{15, 20}}, trend)
	assert.Equal(t, core.ChartSeries{Labels: []string{"04-02", "04-01"}, Values: []float64{20, 15}}, ranked)
}

func TestAggregate_ExcludesOtherMonths(t *testing.T) {
	records := append(sampleRecords(),
		core.ExpenseRecord{Type: "rent", Amount: 800, Time: "2024-05-01"},
		core.ExpenseRecord{Type: "rent", Amount: 800, Time: "2023-04-01"},
	)
	trend, ranked := Aggregate(records, april, nil)

	assert.Equal(t, []string{"04-01", "04-02"}, trend.Labels)
	assert.Equal(t, 35.0, trend.Sum())
	assert.Equal(t, 35.0, ranked.Sum())
}

func TestAggregate_EmptyMonth(t *testing.T) {
	trend, ranked := Aggregate(sampleRecords(), core.MonthKey{Year: 2024, Month: 6}, nil)

	assert.NotNil(t, trend.Labels)
	assert.NotNil(t, trend.Values)
	assert.Empty(t, trend.Labels)
	assert.Equal(t, core.EmptySeries(), ranked)

	trend, _ = Aggregate(nil, april, nil)
	assert.Equal(t, core.EmptySeries(), trend)
}

func TestAggregate_SkipsMalformedRecords(t *testing.T) {
	records := []core.ExpenseRecord{
		{Type: "food", Amount: 10, Time: "2024-04-03"},
		{Type: "food", Amount: 10, Time: "someday"},
		{Type: "food", Amount: math.NaN(), Time: "2024-04-03"},
		{Type: "food", Amount: math.Inf(-1), Time: "2024-04-04"},
	}
	trend, _ := Aggregate(records, april, log.Discard())
	assert.Equal(t, core.ChartSeries{Labels: []string{"04-03"}, Values: []float64{10}}, trend)
}

func TestAggregate_MixedDateFormats(t *testing.T) {
	records := []core.ExpenseRecord{
		{Type: "a", Amount: 1, Time: "2024/04/09"},
		{Type: "a", Amount: 2, Time: "2024-04-09T20:00:00+02:00"},
		{Type: "a", Amount: 4, Time: "2024-04-10 08:00:00"},
	}
	trend, _ := Aggregate(records, april, nil)
	assert.Equal(t, []string{"04-09", "04-10"}, trend.Labels)
	assert.Equal(t, []float64{3, 4}, trend.Values)
}

func TestAggregate_RankedIsStableOnTies(t *testing.T) {
	records := []core.ExpenseRecord{
		{Type: "a", Amount: 5, Time: "2024-04-20"},
		{Type: "a", Amount: 5, Time: "2024-04-03"},
		{Type: "a", Amount: 9, Time: "2024-04-11"},
		{Type: "a", Amount: 5, Time: "2024-04-07"},
	}
	_, ranked := Aggregate(records, april, nil)
	assert.Equal(t, []string{"04-11", "04-03", "04-07", "04-20"}, ranked.Labels)
	assert.Equal(t, []float64{9, 5, 5, 5}, ranked.Values)
}

func TestAggregate_Properties(t *testing.T) {
	records := []core.ExpenseRecord{
		{Type: "a", Amount: 3.5, Time: "2024-04-30"},
		{Type: "b", Amount: -1, Time: "2024-04-02"},
		{Type: "c", Amount: 7.25, Time: "2024-04-15"},
		{Type: "d", Amount: 0.75, Time: "2024-04-02"},
		{Type: "e", Amount: 100, Time: "2024-03-31"},
	}
	trend, ranked := Aggregate(records, april, nil)

	for i := 1; i < len(trend.Labels); i++ {
		assert.LessOrEqual(t, trend.Labels[i-1], trend.Labels[i])
	}
	for i := 1; i < len(ranked.Values); i++ {
		assert.GreaterOrEqual(t, ranked.Values[i-1], ranked.Values[i])
	}
	assert.Len(t, trend.Values, len(trend.Labels))
	assert.InDelta(t, 10.5, trend.Sum(), 1e-9)
	assert.InDelta(t, trend.Sum(), ranked.Sum(), 1e-9)

	again, _ := Aggregate(records, april, nil)
	assert.True(t, trend.Equal(again))
}

func TestFingerprint(t *testing.T) {
	base := sampleRecords()
	fp := Fingerprint(base, april)

	assert.Equal(t, fp, Fingerprint(sampleRecords(), april))

	other := append(sampleRecords(), core.ExpenseRecord{Type: "x", Amount: 1, Time: "2024-05-01"})
	assert.Equal(t, fp, Fingerprint(other, april), "records outside the month do not matter")

	changed := sampleRecords()
	changed[0].Amount = 11
	assert.NotEqual(t, fp, Fingerprint(changed, april))
}
