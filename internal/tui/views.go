package tui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"homemoney/internal/chart"
	"homemoney/internal/core"
)

const (
	defaultWidth = 80
	minBarWidth  = 10
)

func (m *Model) View() string {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}

	title := m.styles.Title.Render("Home Money") + "  " + m.styles.Subtitle.Render(m.chart.MonthLabel(m.locale))
	if m.loading {
		title += "  " + m.spinner.View()
	}

	sections := []string{
		title,
		m.styles.Subtitle.Render(chartTitle(m.chart.ChartType())),
		renderBars(m.chart.Current(), width, m.styles),
		m.styles.Subtitle.Render("Totals by category"),
		renderTotals(m.store.CategoryTotals(), m.styles),
	}

	err := m.err
	if err == nil {
		err = m.store.Err()
	}
	if err != nil {
		sections = append(sections, m.styles.Error.Render("Error: "+err.Error()))
	}

	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func chartTitle(t chart.Type) string {
	if t == chart.RankedChart {
		return "Days by spending"
	}
	return "Daily spending"
}

// renderBars draws one horizontal bar per label, scaled to the largest value.
func renderBars(s core.ChartSeries, width int, styles Styles) string {
	if s.Len() == 0 {
		return styles.Muted.Render("No expenses this month")
	}

	labelWidth := 0
	valueWidth := 0
	maxValue := 0.0
	for i, label := range s.Labels {
		labelWidth = max(labelWidth, lipgloss.Width(label))
		valueWidth = max(valueWidth, len(core.FormatAmount(s.Values[i])))
		maxValue = max(maxValue, s.Values[i])
	}
	barWidth := max(width-labelWidth-valueWidth-4, minBarWidth)

	lines := make([]string, 0, s.Len())
	for i, label := range s.Labels {
		n := 0
		if maxValue > 0 && s.Values[i] > 0 {
			n = max(int(s.Values[i]/maxValue*float64(barWidth)), 1)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			styles.Label.Render(fmt.Sprintf("%-*s", labelWidth, label)),
			styles.Bar.Render(strings.Repeat("█", n)+strings.Repeat(" ", barWidth-n)),
			styles.Value.Render(fmt.Sprintf("%*s", valueWidth, core.FormatAmount(s.Values[i]))),
		))
	}
	return strings.Join(lines, "\n")
}

// renderTotals lists categories by descending total.
func renderTotals(totals core.CategoryTotals, styles Styles) string {
	if len(totals) == 0 {
		return styles.Muted.Render("No expenses")
	}

	types := make([]string, 0, len(totals))
	nameWidth := 0
	for typ := range totals {
		types = append(types, typ)
		nameWidth = max(nameWidth, lipgloss.Width(typ))
	}
	slices.SortFunc(types, func(a, b string) int {
		if c := cmp.Compare(totals[b], totals[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	lines := make([]string, 0, len(types))
	for _, typ := range types {
		pad := strings.Repeat(" ", nameWidth-lipgloss.Width(typ))
		lines = append(lines, styles.Label.Render(typ+pad)+"  "+styles.Value.Render(core.FormatAmount(totals[typ])))
	}
	return strings.Join(lines, "\n")
}
