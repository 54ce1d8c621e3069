package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"homemoney/internal/dateformat"
)

func formatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format",
		Short: "Render a date or month the way the dashboard does",
		Example: `  homemoney format --date 2024-03-05 --locale ja-JP
  homemoney format --month 2024-03 --locale zh-TW`,
		RunE: runFormat,
	}
	cmd.Flags().String("date", "", "date to render")
	cmd.Flags().String("month", "", "YYYY-MM month to render")
	cmd.Flags().Bool("list", false, "list supported locales")
	cmd.MarkFlagsMutuallyExclusive("date", "month", "list")
	return cmd
}

func runFormat(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if list, _ := cmd.Flags().GetBool("list"); list {
		for _, l := range dateformat.Locales() {
			fmt.Fprintln(out, l)
		}
		return nil
	}

	// Formatting is offline, so the API settings are not validated here.
	locale := resolveLocale(viper.GetString("locale"), os.Getenv("LOCALE"), os.Getenv("LANG"))
	date, _ := cmd.Flags().GetString("date")
	month, _ := cmd.Flags().GetString("month")

	var s string
	switch {
	case date != "":
		s = dateformat.FormatDate(date, locale)
	case month != "":
		s = dateformat.FormatMonthLabel(month, locale)
	default:
		return errors.New("one of --date, --month or --list is required")
	}
	if s == "" {
		return fmt.Errorf("cannot parse %q", date+month)
	}
	_, err := fmt.Fprintln(out, s)
	return err
}
