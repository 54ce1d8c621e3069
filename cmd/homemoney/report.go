package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"homemoney/internal/core"
)

// writeSeries prints one "label  value" line per point.
func writeSeries(w io.Writer, title string, s core.ChartSeries) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	if s.Len() == 0 {
		_, err := fmt.Fprintln(w, "  no expenses")
		return err
	}
	for i, label := range s.Labels {
		if _, err := fmt.Fprintf(w, "  %s  %10s\n", label, core.FormatAmount(s.Values[i])); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "  %s  %10s\n", strings.Repeat(" ", len(s.Labels[0])), core.FormatAmount(s.Sum()))
	return err
}

// renderStats lays out per-type statistics as a table.
func renderStats(stats []core.Statistic) string {
	if len(stats) == 0 {
		return "no expenses"
	}
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{s.Type, core.FormatAmount(s.Total), fmt.Sprint(s.Count)})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Type", "Total", "Count").
		Rows(rows...).
		String()
}
