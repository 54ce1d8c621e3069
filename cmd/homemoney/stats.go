package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print totals and counts per expense type",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := settings()
			if err != nil {
				return err
			}
			res := newAPIClient(cfg, newLogger(cfg, os.Stderr)).GetStatistics(cmd.Context())
			if res.Err != nil {
				return res.Err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderStats(res.Data))
			return err
		},
	}
}
