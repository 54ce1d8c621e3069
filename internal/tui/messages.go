package tui

import "homemoney/internal/chart"

// chartUpdatedMsg carries a published series change.
type chartUpdatedMsg struct {
	update chart.Update
}

// expensesChangedMsg is sent after the store replaced its collection.
type expensesChangedMsg struct{}

// refreshDoneMsg reports the outcome of a store refresh.
type refreshDoneMsg struct {
	err error
}
