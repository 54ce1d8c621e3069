package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"homemoney/internal/chart"
	"homemoney/internal/core"
	"homemoney/internal/dateformat"
)

func chartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Print the daily totals of a month",
		RunE:  runChart,
	}
	cmd.Flags().String("month", "", "month as YYYY-MM (default: current month)")
	cmd.Flags().Bool("ranked", false, "order days by amount instead of by date")
	return cmd
}

func runChart(cmd *cobra.Command, _ []string) error {
	cfg, err := settings()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)

	month := core.CurrentMonth()
	if v, _ := cmd.Flags().GetString("month"); v != "" {
		if month, err = core.ParseMonthKey(v); err != nil {
			return fmt.Errorf("invalid --month %q: %w", v, err)
		}
	}
	ranked, _ := cmd.Flags().GetBool("ranked")

	res := newAPIClient(cfg, logger).GetExpenses(cmd.Context())
	if res.Err != nil {
		return res.Err
	}

	trend, byAmount := chart.Aggregate(res.Data, month, logger)
	series := trend
	if ranked {
		series = byAmount
	}
	return writeSeries(cmd.OutOrStdout(), dateformat.FormatMonth(month, cfg.Locale), series)
}
