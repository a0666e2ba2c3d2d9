package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rustyeddy/tradejournal/ledger"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the journal to CSV or XLSX",
	Long: `Export the ledger to a spreadsheet.

--xlsx writes a workbook with a Ledger and a Trades sheet. --csv writes the
ledger entries, or the trades with --trades. Use "-" to write to stdout.

Examples:
  tradejournal export --xlsx journal.xlsx
  tradejournal export --csv - --trades`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var (
	exportXLSX   string
	exportCSV    string
	exportTrades bool
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportXLSX, "xlsx", "", "write an XLSX workbook to this path")
	exportCmd.Flags().StringVar(&exportCSV, "csv", "", "write CSV to this path")
	exportCmd.Flags().BoolVar(&exportTrades, "trades", false, "export trades instead of entries (CSV only)")
	exportCmd.MarkFlagsMutuallyExclusive("xlsx", "csv")
	exportCmd.MarkFlagsOneRequired("xlsx", "csv")
}

func runExport(cmd *cobra.Command, args []string) error {
	j, kv, err := openJournal()
	if err != nil {
		return err
	}
	defer kv.Close()

	path := exportCSV
	write := func(w io.Writer) error {
		if exportTrades {
			return ledger.WriteTradesCSV(w, j.Trades())
		}
		return ledger.WriteEntriesCSV(w, j.Entries())
	}
	if exportXLSX != "" {
		path = exportXLSX
		write = func(w io.Writer) error { return ledger.WriteXLSX(w, j.Snapshot()) }
	}

	if path == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	if err := write(f); err != nil {
		return errors.Join(err, f.Close())
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported to %s\n", path)
	return nil
}
