package google

import (
	"fmt"
	"strings"

	"homemoney/internal/core"
)

// parseRows converts a Sheets values matrix laid out as Header into records.
// Rows that do not form a valid record are skipped and counted.
func parseRows(values [][]any) ([]core.ExpenseRecord, int) {
	records := make([]core.ExpenseRecord, 0, len(values))
	skipped := 0
	for _, row := range values {
		cells := toStrings(row)
		if isBlank(cells) {
			continue
		}
		rec, err := core.NewExpenseRecord(
			safeGet(cells, 1),
			safeGet(cells, 2),
			safeGet(cells, 3),
			safeGet(cells, 0),
		)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}

func toStrings(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
