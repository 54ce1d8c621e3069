package chart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homemoney/internal/cache"
	"homemoney/internal/core"
	"homemoney/internal/dateformat"
)

type fakeSource struct {
	mu      sync.Mutex
	records core.ExpenseCollection
	subs    map[int]func(core.ExpenseCollection)
	nextID  int
	reads   int
}

func newFakeSource(records ...core.ExpenseRecord) *fakeSource {
	return &fakeSource{records: records, subs: map[int]func(core.ExpenseCollection){}}
}

func (s *fakeSource) Expenses() core.ExpenseCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return s.records
}

func (s *fakeSource) Subscribe(fn func(core.ExpenseCollection)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *fakeSource) Replace(records ...core.ExpenseRecord) {
	s.mu.Lock()
	s.records = records
	subs := make([]func(core.ExpenseCollection), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(records)
	}
}

func (s *fakeSource) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func newTestAggregator(t *testing.T, src Source, opts ...Option) (*Aggregator, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	opts = append([]Option{WithClock(clock), WithMonth(april), WithDebounce(500 * time.Millisecond)}, opts...)
	a := New(src, opts...)
	t.Cleanup(a.Close)
	return a, clock
}

func TestAggregator_RecomputePublishes(t *testing.T) {
	src := newFakeSource(sampleRecords()...)
	a, _ := newTestAggregator(t, src)

	var updates []Update
	a.Subscribe(func(u Update) { updates = append(updates, u) })

	assert.Equal(t, core.EmptySeries(), a.Trend())
	assert.True(t, a.Recompute(context.Background()))

	require.Len(t, updates, 1)
	assert.Equal(t, []string{"04-01", "04-02"}, a.Trend().Labels)
	assert.Equal(t, []string{"04-02", "04-01"}, a.Ranked().Labels)
	assert.True(t, updates[0].TrendChanged)
	assert.True(t, updates[0].RankedChanged)
	assert.Equal(t, april, updates[0].Month)
}

func TestAggregator_SuppressesUnchangedSeries(t *testing.T) {
	src := newFakeSource(sampleRecords()...)
	a, clock := newTestAggregator(t, src)

	var count int
	a.Subscribe(func(Update) { count++ })
	a.Recompute(context.Background())
	first := a.Trend()

	// same content, new collection
	src.Replace(sampleRecords()...)
	clock.Advance(time.Second)

	assert.Equal(t, 1, count)
	assert.Same(t, &first.Labels[0], &a.Trend().Labels[0], "published reference is kept")

	// a record outside the month changes nothing visible
	src.Replace(append(sampleRecords(), core.ExpenseRecord{Type: "x", Amount: 1, Time: "2024-05-05"})...)
	clock.Advance(time.Second)
	assert.Equal(t, 1, count)
}

func TestAggregator_DataChangeIsDebounced(t *testing.T) {
	src := newFakeSource()
	a, clock := newTestAggregator(t, src)

	var updates []Update
	a.Subscribe(func(u Update) { updates = append(updates, u) })

	src.Replace(sampleRecords()[:1]...)
	clock.Advance(200 * time.Millisecond)
	src.Replace(sampleRecords()[:2]...)
	clock.Advance(200 * time.Millisecond)
	src.Replace(sampleRecords()...)
	assert.True(t, a.Pending())
	assert.Empty(t, updates)

	clock.Advance(500 * time.Millisecond)
	require.Len(t, updates, 1)
	assert.Equal(t, []float64{15, 20}, updates[0].Trend.Values)
	assert.False(t, a.Pending())
}

func TestAggregator_MonthNavigation(t *testing.T) {
	src := newFakeSource(append(sampleRecords(),
		core.ExpenseRecord{Type: "rent", Amount: 800, Time: "2024-03-01"},
	)...)
	a, clock := newTestAggregator(t, src)
	a.Recompute(context.Background())

	a.PrevMonth()
	assert.Equal(t, "2024-03", a.Month().String())
	assert.Equal(t, "March 2024", a.MonthLabel(dateformat.EnUS))
	assert.Equal(t, "2024年3月", a.MonthLabel(dateformat.ZhCN))

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, core.ChartSeries{Labels: []string{"03-01"}, Values: []float64{800}}, a.Trend())

	a.NextMonth()
	a.NextMonth()
	assert.Equal(t, "2024-05", a.Month().String())
	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, core.EmptySeries(), a.Trend())

	a.SetMonth(core.MonthKey{Year: 2024, Month: 5})
	assert.False(t, a.Pending(), "selecting the same month does not trigger")
}

func TestAggregator_ChartType(t *testing.T) {
	src := newFakeSource(sampleRecords()...)
	a, clock := newTestAggregator(t, src)
	a.Recompute(context.Background())

	assert.Equal(t, TrendChart, a.ChartType())
	assert.Equal(t, a.Trend(), a.Current())

	a.SetChartType(RankedChart)
	assert.Equal(t, RankedChart, a.ChartType())
	assert.Equal(t, a.Ranked(), a.Current())
	assert.True(t, a.Pending())
	clock.Advance(time.Second)

	a.SetChartType(Type(7))
	assert.Equal(t, RankedChart, a.ChartType())
	assert.False(t, a.Pending())
}

func TestAggregator_Unsubscribe(t *testing.T) {
	src := newFakeSource(sampleRecords()...)
	a, _ := newTestAggregator(t, src)

	var count int
	unsubscribe := a.Subscribe(func(Update) { count++ })
	unsubscribe()
	a.Recompute(context.Background())
	assert.Equal(t, 0, count)
}

func TestAggregator_UsesCache(t *testing.T) {
	clock := newFakeClock()
	store := cache.New("test", cache.WithClock(clock.Now))
	src := newFakeSource(sampleRecords()...)
	a, _ := newTestAggregator(t, src, WithCache(store, 30*time.Minute))

	a.Recompute(context.Background())

	var cached cachedChart
	require.True(t, store.GetJSON(context.Background(), "chartData:2024-04", &cached))
	assert.Equal(t, []float64{15, 20}, cached.Chart1.Values)
	assert.Equal(t, []float64{20, 15}, cached.Chart2.Values)
	assert.Equal(t, clock.Now().UnixMilli(), cached.Timestamp)
	assert.Equal(t, Fingerprint(sampleRecords(), april), cached.Fingerprint)

	// a second aggregator over the same data is served from the cache
	b, _ := newTestAggregator(t, src, WithCache(store, 30*time.Minute))
	poisoned := cached
	poisoned.Chart1 = core.ChartSeries{Labels: []string{"cached"}, Values: []float64{1}}
	store.Set(context.Background(), "chartData:2024-04", poisoned, cache.TTL(time.Minute))
	b.Recompute(context.Background())
	assert.Equal(t, []string{"cached"}, b.Trend().Labels)

	// a changed collection invalidates the entry through its fingerprint
	src.Replace(sampleRecords()[:1]...)
	b.Recompute(context.Background())
	assert.Equal(t, []float64{10}, b.Trend().Values)
}

func TestAggregator_CacheExpires(t *testing.T) {
	clock := newFakeClock()
	store := cache.New("test", cache.WithClock(clock.Now))
	src := newFakeSource(sampleRecords()...)
	a, _ := newTestAggregator(t, src, WithCache(store, time.Minute))
	a.Recompute(context.Background())

	clock.Advance(2 * time.Minute)
	var cached cachedChart
	assert.False(t, store.GetJSON(context.Background(), "chartData:2024-04", &cached))
}

func TestAggregator_CloseDetaches(t *testing.T) {
	src := newFakeSource(sampleRecords()...)
	a, clock := newTestAggregator(t, src)
	require.Equal(t, 1, src.subscribers())

	var count int
	a.Subscribe(func(Update) { count++ })
	src.Replace(sampleRecords()...)
	a.Close()
	clock.Advance(time.Second)

	assert.Equal(t, 0, count)
	assert.Equal(t, 0, src.subscribers())
}
