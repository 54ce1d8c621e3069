package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"homemoney/internal/core"
	"homemoney/internal/dateformat"
)

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Example: `  homemoney add --type Food --amount 12.50 --remark lunch
  homemoney add --type Rent --amount "850,00" --time 2024-03-01`,
		RunE: runAdd,
	}
	cmd.Flags().String("type", "", "expense category (required)")
	cmd.Flags().String("remark", "", "free-text note")
	cmd.Flags().String("amount", "", "amount, comma or dot decimals (required)")
	cmd.Flags().String("time", "", "date as YYYY-MM-DD (default: today)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func runAdd(cmd *cobra.Command, _ []string) error {
	cfg, err := settings()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)

	typ, _ := cmd.Flags().GetString("type")
	remark, _ := cmd.Flags().GetString("remark")
	amount, _ := cmd.Flags().GetString("amount")
	date, _ := cmd.Flags().GetString("time")
	if date == "" {
		date = time.Now().Format(core.DateLayout)
	}

	rec, err := core.NewExpenseRecord(typ, remark, amount, date)
	if err != nil {
		return err
	}
	if err := newAPIClient(cfg, logger).AddExpense(cmd.Context(), rec); err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s %s on %s\n",
		rec.Type, core.FormatAmount(rec.Amount), dateformat.FormatDate(rec.Time, cfg.Locale))
	return err
}
