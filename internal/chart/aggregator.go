package chart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"homemoney/internal/cache"
	"homemoney/internal/core"
	"homemoney/internal/dateformat"
	"homemoney/internal/log"
)

// Type selects which series the dashboard shows.
type Type int

const (
	TrendChart  Type = 1
	RankedChart Type = 2
)

func (t Type) Valid() bool {
	return t == TrendChart || t == RankedChart
}

func (t Type) String() string {
	switch t {
	case TrendChart:
		return "trend"
	case RankedChart:
		return "ranked"
	default:
		return fmt.Sprintf("chart(%d)", int(t))
	}
}

const (
	DefaultDebounce = 500 * time.Millisecond
	DefaultCacheTTL = 30 * time.Minute

	cacheKeyPrefix   = "chartData:"
	recomputeTimeout = 5 * time.Second
)

// Source provides the expense collection and notifies on changes.
type Source interface {
	Expenses() core.ExpenseCollection
	Subscribe(fn func(core.ExpenseCollection)) (unsubscribe func())
}

// Update is delivered to subscribers when a published series changes.
type Update struct {
	Month         core.MonthKey
	ChartType     Type
	Trend         core.ChartSeries
	Ranked        core.ChartSeries
	TrendChanged  bool
	RankedChanged bool
}

// cachedChart is the value stored under chartData:<month>.
type cachedChart struct {
	Chart1      core.ChartSeries `json:"chart1"`
	Chart2      core.ChartSeries `json:"chart2"`
	Timestamp   int64            `json:"timestamp"`
	Fingerprint uint64           `json:"fingerprint"`
}

type subscriber struct {
	id int
	fn func(Update)
}

// Aggregator holds the selected month and chart type and the last published
// series. Data, month and chart type changes schedule a debounced recompute;
// subscribers hear only about series that actually changed.
type Aggregator struct {
	mu        sync.Mutex
	computeMu sync.Mutex

	source    Source
	month     core.MonthKey
	chartType Type
	trend     core.ChartSeries
	ranked    core.ChartSeries
	subs      []subscriber
	nextID    int

	store     *cache.Store
	ttl       time.Duration
	delay     time.Duration
	clock     Clock
	logger    *log.Logger
	debouncer *Debouncer
	unsub     func()
}

type Option func(*Aggregator)

// WithCache interposes store between the source and the series; entries live
// for ttl.
func WithCache(store *cache.Store, ttl time.Duration) Option {
	return func(a *Aggregator) {
		a.store = store
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

func WithDebounce(d time.Duration) Option {
	return func(a *Aggregator) { a.delay = d }
}

func WithClock(c Clock) Option {
	return func(a *Aggregator) { a.clock = c }
}

func WithLogger(logger *log.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger.WithComponent(log.ComponentChart)
		}
	}
}

// WithMonth sets the initially selected month; the default is the current one.
func WithMonth(m core.MonthKey) Option {
	return func(a *Aggregator) { a.month = m }
}

// New subscribes to source. Series start empty until the first recompute.
func New(source Source, opts ...Option) *Aggregator {
	a := &Aggregator{
		source:    source,
		month:     core.CurrentMonth(),
		chartType: TrendChart,
		trend:     core.EmptySeries(),
		ranked:    core.EmptySeries(),
		ttl:       DefaultCacheTTL,
		delay:     DefaultDebounce,
		clock:     realClock{},
		logger:    log.Discard().WithComponent(log.ComponentChart),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.debouncer = NewDebouncer(a.delay, a.debouncedRecompute, a.clock)
	a.unsub = source.Subscribe(func(core.ExpenseCollection) { a.Trigger() })
	return a
}

func (a *Aggregator) Month() core.MonthKey {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.month
}

// SetMonth selects m and schedules a recompute when it differs.
func (a *Aggregator) SetMonth(m core.MonthKey) {
	a.mu.Lock()
	if a.month == m {
		a.mu.Unlock()
		return
	}
	a.month = m
	a.mu.Unlock()
	a.Trigger()
}

func (a *Aggregator) PrevMonth() {
	a.SetMonth(a.Month().Prev())
}

func (a *Aggregator) NextMonth() {
	a.SetMonth(a.Month().Next())
}

func (a *Aggregator) ChartType() Type {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.chartType
}

// SetChartType selects t. Unknown types are ignored.
func (a *Aggregator) SetChartType(t Type) {
	if !t.Valid() {
		a.logger.Warn("Ignoring unknown chart type", "chart_type", int(t))
		return
	}
	a.mu.Lock()
	if a.chartType == t {
		a.mu.Unlock()
		return
	}
	a.chartType = t
	a.mu.Unlock()
	a.Trigger()
}

// MonthLabel renders the selected month for locale.
func (a *Aggregator) MonthLabel(locale string) string {
	return dateformat.FormatMonth(a.Month(), locale)
}

// Trend returns the published trend series. Callers must not modify it.
func (a *Aggregator) Trend() core.ChartSeries {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.trend
}

// Ranked returns the published ranked series. Callers must not modify it.
func (a *Aggregator) Ranked() core.ChartSeries {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ranked
}

// Current returns the series for the selected chart type.
func (a *Aggregator) Current() core.ChartSeries {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.chartType == RankedChart {
		return a.ranked
	}
	return a.trend
}

// Subscribe registers fn for series changes. fn runs outside any lock.
func (a *Aggregator) Subscribe(fn func(Update)) (unsubscribe func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	id := a.nextID
	a.subs = append(a.subs, subscriber{id: id, fn: fn})

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		for i, s := range a.subs {
			if s.id == id {
				a.subs = append(a.subs[:i:i], a.subs[i+1:]...)
				return
			}
		}
	}
}

// Trigger schedules a debounced recompute.
func (a *Aggregator) Trigger() {
	a.debouncer.Trigger()
}

// Pending reports whether a debounced recompute is scheduled.
func (a *Aggregator) Pending() bool {
	return a.debouncer.Pending()
}

func (a *Aggregator) debouncedRecompute() {
	ctx, cancel := context.WithTimeout(context.Background(), recomputeTimeout)
	defer cancel()
	a.Recompute(ctx)
}

// Recompute aggregates the selected month now and publishes the result. It
// reports whether any series changed.
func (a *Aggregator) Recompute(ctx context.Context) bool {
	a.computeMu.Lock()
	defer a.computeMu.Unlock()

	month := a.Month()
	records := a.source.Expenses()
	trend, ranked := a.compute(ctx, records, month)
	return a.publish(month, trend, ranked)
}

func (a *Aggregator) compute(ctx context.Context, records core.ExpenseCollection, month core.MonthKey) (core.ChartSeries, core.ChartSeries) {
	if a.store == nil {
		return Aggregate(records, month, a.logger)
	}

	key := cacheKeyPrefix + month.String()
	fp := Fingerprint(records, month)

	var cached cachedChart
	if a.store.GetJSON(ctx, key, &cached) && cached.Fingerprint == fp {
		a.logger.Debug("Chart cache hit", log.FieldMonth, month.String())
		return normalize(cached.Chart1), normalize(cached.Chart2)
	}

	trend, ranked := Aggregate(records, month, a.logger)
	a.store.Set(ctx, key, cachedChart{
		Chart1:      trend,
		Chart2:      ranked,
		Timestamp:   a.clock.Now().UnixMilli(),
		Fingerprint: fp,
	}, cache.TTL(a.ttl))
	return trend, ranked
}

func (a *Aggregator) publish(month core.MonthKey, trend, ranked core.ChartSeries) bool {
	a.mu.Lock()
	if a.month != month {
		// the month moved on while computing; its own recompute is scheduled
		a.mu.Unlock()
		return false
	}

	trendChanged := !a.trend.Equal(trend)
	rankedChanged := !a.ranked.Equal(ranked)
	if !trendChanged && !rankedChanged {
		a.mu.Unlock()
		return false
	}
	if trendChanged {
		a.trend = trend
	}
	if rankedChanged {
		a.ranked = ranked
	}

	update := Update{
		Month:         month,
		ChartType:     a.chartType,
		Trend:         a.trend,
		Ranked:        a.ranked,
		TrendChanged:  trendChanged,
		RankedChanged: rankedChanged,
	}
	subs := append([]subscriber(nil), a.subs...)
	a.mu.Unlock()

	a.logger.Debug("Chart series published",
		log.FieldMonth, month.String(), "trend_changed", trendChanged, "ranked_changed", rankedChanged)
	for _, s := range subs {
		s.fn(update)
	}
	return true
}

// Close stops pending recomputes and detaches from the source.
func (a *Aggregator) Close() {
	a.debouncer.Stop()
	if a.unsub != nil {
		a.unsub()
	}
}

func normalize(s core.ChartSeries) core.ChartSeries {
	if s.Labels == nil {
		s.Labels = []string{}
	}
	if s.Values == nil {
		s.Values = []float64{}
	}
	return s
}
