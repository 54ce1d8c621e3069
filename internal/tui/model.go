// Package tui implements the terminal expense dashboard.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"homemoney/internal/chart"
	"homemoney/internal/core"
)

// ExpenseSource is the part of the expense store the dashboard needs.
type ExpenseSource interface {
	ForceRefresh(ctx context.Context) error
	CategoryTotals() core.CategoryTotals
	Err() error
	Subscribe(fn func(core.ExpenseCollection)) (unsubscribe func())
}

// Chart is the part of the chart aggregator the dashboard needs.
type Chart interface {
	Month() core.MonthKey
	PrevMonth()
	NextMonth()
	ChartType() chart.Type
	SetChartType(t chart.Type)
	MonthLabel(locale string) string
	Current() core.ChartSeries
	Subscribe(fn func(chart.Update)) (unsubscribe func())
}

const eventBuffer = 16

// Model is the dashboard's bubbletea model.
type Model struct {
	ctx     context.Context
	store   ExpenseSource
	chart   Chart
	locale  string
	keys    KeyMap
	styles  Styles
	help    help.Model
	spinner spinner.Model

	events chan tea.Msg
	unsubs []func()

	loading bool
	err     error
	width   int
}

// NewModel subscribes to store and chart. Call Close when the program ends.
func NewModel(ctx context.Context, store ExpenseSource, c Chart, locale string) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:     ctx,
		store:   store,
		chart:   c,
		locale:  locale,
		keys:    DefaultKeyMap(),
		styles:  DefaultStyles(),
		help:    help.New(),
		spinner: sp,
		events:  make(chan tea.Msg, eventBuffer),
		loading: true,
	}
	m.unsubs = append(m.unsubs,
		store.Subscribe(func(core.ExpenseCollection) { m.send(expensesChangedMsg{}) }),
		c.Subscribe(func(u chart.Update) { m.send(chartUpdatedMsg{update: u}) }),
	)
	return m
}

// send drops the event when the buffer is full; the next render reads the
// current state anyway.
func (m *Model) send(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
	}
}

func (m *Model) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case <-m.ctx.Done():
			return tea.Quit()
		}
	}
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg{err: m.store.ForceRefresh(m.ctx)}
	}
}

// Close removes the store and chart subscriptions.
func (m *Model) Close() {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh(), m.wait())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case chartUpdatedMsg, expensesChangedMsg:
		return m, m.wait()

	case refreshDoneMsg:
		m.loading = false
		m.err = msg.err

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.PrevMonth):
		m.chart.PrevMonth()
	case key.Matches(msg, m.keys.NextMonth):
		m.chart.NextMonth()
	case key.Matches(msg, m.keys.Trend):
		m.chart.SetChartType(chart.TrendChart)
	case key.Matches(msg, m.keys.Ranked):
		m.chart.SetChartType(chart.RankedChart)
	case key.Matches(msg, m.keys.Refresh):
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.refresh())
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}
