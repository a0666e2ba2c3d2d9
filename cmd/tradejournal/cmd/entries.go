package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rustyeddy/tradejournal/ledger"
	"github.com/spf13/cobra"
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List ledger entries",
	Long: `List daily results and withdrawals, newest first.

Examples:
  tradejournal entries
  tradejournal entries --from 2024-01-01 --to 2024-01-31
  tradejournal entries --org`,
	Args: cobra.NoArgs,
	RunE: runEntries,
}

var tradesCmd = &cobra.Command{
	Use:   "trades [YYYY-MM-DD]",
	Short: "List imported trades",
	Long: `List imported trades, optionally only those closed on a given day.

Examples:
  tradejournal trades
  tradejournal trades 2024-01-10 --org`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTrades,
}

var (
	entriesOrg  bool
	entriesFrom string
	entriesTo   string
	tradesOrg   bool
)

func init() {
	rootCmd.AddCommand(entriesCmd)
	rootCmd.AddCommand(tradesCmd)

	entriesCmd.Flags().BoolVar(&entriesOrg, "org", false, "print entries as Org-mode blocks")
	entriesCmd.Flags().StringVar(&entriesFrom, "from", "", "first day to include (YYYY-MM-DD)")
	entriesCmd.Flags().StringVar(&entriesTo, "to", "", "last day to include (YYYY-MM-DD)")
	tradesCmd.Flags().BoolVar(&tradesOrg, "org", false, "print trades as Org-mode blocks")
}

func runEntries(cmd *cobra.Command, args []string) error {
	j, kv, err := openJournal()
	if err != nil {
		return err
	}
	defer kv.Close()

	entries := j.Entries()
	if entriesFrom != "" || entriesTo != "" {
		start, end, err := entryRange(entriesFrom, entriesTo)
		if err != nil {
			return err
		}
		entries = j.Between(start, end)
	}

	out := cmd.OutOrStdout()
	if entriesOrg {
		fmt.Fprint(out, ledger.FormatEntriesOrg(entries))
		return nil
	}
	if err := printEntries(out, entries); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nBalance: %s\n", ledger.FormatMoney(j.Balance(), cfg.Import.Currency))
	return nil
}

// entryRange turns the inclusive --from/--to days into a half-open interval
// in UTC, matching the noon-UTC dates of import entries.
func entryRange(from, to string) (time.Time, time.Time, error) {
	start := time.Time{}
	end := time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	if from != "" {
		s, _, err := ledger.DayBounds(time.UTC, from)
		if err != nil {
			return start, end, fmt.Errorf("--from: %w", err)
		}
		start = s
	}
	if to != "" {
		_, e, err := ledger.DayBounds(time.UTC, to)
		if err != nil {
			return start, end, fmt.Errorf("--to: %w", err)
		}
		end = e
	}
	return start, end, nil
}

func printEntries(w io.Writer, entries []ledger.Entry) error {
	cur := cfg.Import.Currency
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tKIND\tAMOUNT\tBALANCE\tID\tNOTE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Day(), e.Kind, ledger.SignedMoney(e.Amount, cur), ledger.FormatMoney(e.BalanceAfter, cur), e.ID, e.Note)
	}
	return tw.Flush()
}

func runTrades(cmd *cobra.Command, args []string) error {
	j, kv, err := openJournal()
	if err != nil {
		return err
	}
	defer kv.Close()

	trades := j.Trades()
	if len(args) == 1 {
		if _, _, err := ledger.DayBounds(time.UTC, args[0]); err != nil {
			return fmt.Errorf("date: %w", err)
		}
		trades = ledger.TradesOn(trades, args[0])
	}

	out := cmd.OutOrStdout()
	if tradesOrg {
		for i, t := range trades {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprint(out, ledger.FormatTradeOrg(t))
		}
		return nil
	}

	cur := cfg.Import.Currency
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CLOSED\tTICKET\tSYMBOL\tTYPE\tVOLUME\tNET\tOUTCOME")
	for _, t := range trades {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.CloseTime, t.PositionID, t.Symbol, t.Direction, t.Volume.String(), ledger.SignedMoney(t.Net(), cur), t.Outcome)
	}
	return tw.Flush()
}
