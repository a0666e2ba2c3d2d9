package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/rustyeddy/tradejournal/ledger"
	"github.com/rustyeddy/tradejournal/statement"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <statement-file>",
	Short: "Import a broker statement",
	Long: `Parse a broker statement export (XLSX or CSV) and add its trades to
the journal, one ledger entry per trading day.

A preview is shown first and nothing is written until it is confirmed.
Days already present in the ledger and tickets already imported are skipped.

Examples:
  tradejournal import ReportHistory.xlsx
  tradejournal import statement.csv --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	importYes   bool
	importPlain bool
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "commit without asking for confirmation")
	importCmd.Flags().BoolVar(&importPlain, "plain", false, "print the preview as raw markdown")
}

func statementOptions() statement.Options {
	opts := statement.DefaultOptions()
	opts.NoiseThreshold = decimal.NewFromFloat(cfg.Import.NoiseThreshold)
	if cfg.Import.HeaderScanRows > 0 {
		opts.HeaderScanRows = cfg.Import.HeaderScanRows
	}
	return opts
}

func runImport(cmd *cobra.Command, args []string) error {
	res, err := statement.ParseFile(args[0], statementOptions())
	if err != nil {
		return fmt.Errorf("parse statement: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := renderMarkdown(out, res.Preview.Markdown(cfg.Import.Currency)); err != nil {
		return err
	}
	if len(res.Trades) == 0 {
		fmt.Fprintln(out, "No trades found in statement")
		return nil
	}

	if !importYes {
		ok, err := confirm(cmd.InOrStdin(), out, fmt.Sprintf("Import %d trades?", len(res.Trades)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Import cancelled")
			return nil
		}
	}

	j, kv, err := openJournal()
	if err != nil {
		return err
	}
	defer kv.Close()

	cr, err := j.Commit(res.Trades)
	if err != nil {
		return err
	}
	if cr.Plan.NoNewData() && len(cr.Plan.Trades) == 0 {
		fmt.Fprintln(out, "No new data: every day in this statement is already in the ledger")
		return nil
	}

	fmt.Fprintf(out, "✓ Imported %d days, %d trades\n", len(cr.Plan.Entries), len(cr.Plan.Trades))
	if n := len(cr.Plan.SkippedDates); n > 0 {
		fmt.Fprintf(out, "  Skipped days: %s\n", strings.Join(cr.Plan.SkippedDates, ", "))
	}
	if n := len(cr.Plan.SkippedTickets); n > 0 {
		fmt.Fprintf(out, "  Skipped tickets: %d already imported\n", n)
	}
	fmt.Fprintf(out, "  Balance: %s\n", ledger.FormatMoney(cr.Balance, cfg.Import.Currency))

	syncAfter(cmd.Context(), j, kv)
	return nil
}

func renderMarkdown(w io.Writer, md string) error {
	if importPlain {
		_, err := io.WriteString(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	s, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render preview: %w", err)
	}
	_, err = io.WriteString(w, s)
	return err
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
