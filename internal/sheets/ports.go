// Package sheets defines the outbound ports used to mirror expenses into a
// spreadsheet.
package sheets

import (
	"context"

	"homemoney/internal/core"
)

type (
	// ExpenseWriter appends one record and returns a reference to the row.
	ExpenseWriter interface {
		Append(ctx context.Context, rec core.ExpenseRecord) (rowRef string, err error)
	}

	// ExpenseLister returns every mirrored record.
	ExpenseLister interface {
		ListExpenses(ctx context.Context) ([]core.ExpenseRecord, error)
	}
)
