package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"homemoney/internal/importer"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import expenses from a CSV export or an OFX/QFX bank statement",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	cmd.Flags().String("type", "", "expense type for OFX debits (default: the transaction type)")
	cmd.Flags().Bool("dry-run", false, "parse and report without posting")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := settings()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)

	typ, _ := cmd.Flags().GetString("type")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	records, skipped, err := importer.ReadFile(args[0], typ)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Read %d expenses from %s (%d skipped)\n", len(records), args[0], skipped)
	if dryRun || len(records) == 0 {
		return nil
	}

	sum, err := importer.Import(cmd.Context(), newAPIClient(cfg, logger), records, cmd.ErrOrStderr(), logger)
	fmt.Fprintf(out, "Imported %d, failed %d\n", sum.Posted, sum.Failed)
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d expenses were not imported", sum.Failed)
	}
	return nil
}
