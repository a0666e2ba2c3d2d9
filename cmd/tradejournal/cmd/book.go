package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/ledger"
	"github.com/rustyeddy/tradejournal/statement"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var withdrawCmd = &cobra.Command{
	Use:   "withdraw <amount>",
	Short: "Record a withdrawal",
	Long: `Record a cash withdrawal. The amount is given as a positive number.

Examples:
  tradejournal withdraw 250
  tradejournal withdraw 1,250.50 --date 2024-02-01 --note "tax reserve"`,
	Args: cobra.ExactArgs(1),
	RunE: runWithdraw,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <entry-id>",
	Short: "Delete a withdrawal",
	Long:  `Delete a single withdrawal. Imported days are removed with delete-date.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var deleteDateCmd = &cobra.Command{
	Use:   "delete-date <YYYY-MM-DD>",
	Short: "Delete an imported day and its trades",
	Long: `Remove the ledger entry imported for a day together with the trades
closed on it, so a corrected statement can be imported again.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeleteDate,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear imported reports",
	Long: `Remove every imported day and trade. Withdrawals are kept unless --all
is given. Settings are never cleared.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
	Long: `Show the journal settings, or change them with flags.

Examples:
  tradejournal settings
  tradejournal settings --capital 10000 --weekly 250 --monthly 1000 --show-targets`,
	Args: cobra.NoArgs,
	RunE: runSettings,
}

var (
	withdrawDate string
	withdrawNote string
	clearAll     bool

	settingsCapital     string
	settingsWeekly      string
	settingsMonthly     string
	settingsShowTargets bool
)

func init() {
	rootCmd.AddCommand(withdrawCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(deleteDateCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(settingsCmd)

	withdrawCmd.Flags().StringVar(&withdrawDate, "date", "", "withdrawal day (YYYY-MM-DD, default now)")
	withdrawCmd.Flags().StringVar(&withdrawNote, "note", "", "free text note")
	clearCmd.Flags().BoolVar(&clearAll, "all", false, "also remove withdrawals")

	settingsCmd.Flags().StringVar(&settingsCapital, "capital", "", "initial capital")
	settingsCmd.Flags().StringVar(&settingsWeekly, "weekly", "", "weekly target")
	settingsCmd.Flags().StringVar(&settingsMonthly, "monthly", "", "monthly target")
	settingsCmd.Flags().BoolVar(&settingsShowTargets, "show-targets", false, "show targets on the home screen")
}

func runWithdraw(cmd *cobra.Command, args []string) error {
	amount := statement.ParseNumber(args[0]).Abs()
	at := time.Now()
	if withdrawDate != "" {
		day, err := time.ParseInLocation("2006-01-02", withdrawDate, time.Local)
		if err != nil {
			return fmt.Errorf("--date: %w", err)
		}
		at = time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.Local)
	}

	j, kv, err := openJournal()
	if err != nil {
		return err
	}
	defer kv.Close()

	e, err := j.AddWithdrawal(amount, at, withdrawNote)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Recorded withdrawal %s (%s)\n", ledger.FormatMoney(e.Amount, cfg.Import.Currency), e.ID)
	fmt.Fprintf(out, "  Balance: %s\n", ledger.FormatMoney(e.BalanceAfter, cfg.Import.Currency))

	syncAfter(cmd.Context(), j, kv)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	j, kv, err := openJournal()
	if err != nil {
		return err
	}
	defer kv.Close()

	if err := j.DeleteEntry(args[0]); err != nil {
		if errors.Is(err, journal.ErrNotWithdrawal) {
			return fmt.Errorf("%w: use delete-date for imported days", err)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", args[0])

	syncAfter(cmd.Context(), j, kv)
	return nil
}

func runDeleteDate(cmd *cobra.Command, args []string) error {
	if _, _, err := ledger.DayBounds(time.UTC, args[0]); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	j, kv, err := openJournal()
	if err != nil {
		return err
	}
	defer kv.Close()

	entries, trades, err := j.DeleteByDate(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if entries == 0 && trades == 0 {
		fmt.Fprintf(out, "Nothing recorded on %s\n", args[0])
		return nil
	}
	fmt.Fprintf(out, "✓ Deleted %d entries and %d trades on %s\n", entries, trades, args[0])

	syncAfter(cmd.Context(), j, kv)
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	j, kv, err := openJournal()
	if err != nil {
		return err
	}
	defer kv.Close()

	if clearAll {
		err = j.ClearAll()
	} else {
		err = j.ClearReports()
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Journal cleared")

	syncAfter(cmd.Context(), j, kv)
	return nil
}

func runSettings(cmd *cobra.Command, args []string) error {
	j, kv, err := openJournal()
	if err != nil {
		return err
	}
	defer kv.Close()

	flags := cmd.Flags()
	changed := flags.Changed("capital") || flags.Changed("weekly") || flags.Changed("monthly") || flags.Changed("show-targets")
	if changed {
		amounts := map[string]*decimal.Decimal{}
		for name, raw := range map[string]string{"capital": settingsCapital, "weekly": settingsWeekly, "monthly": settingsMonthly} {
			if !flags.Changed(name) {
				continue
			}
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return fmt.Errorf("--%s: invalid amount %q", name, raw)
			}
			amounts[name] = &d
		}
		err := j.UpdateSettings(func(s *ledger.Settings) {
			if d := amounts["capital"]; d != nil {
				s.InitialCapital = *d
			}
			if d := amounts["weekly"]; d != nil {
				s.WeeklyTarget = *d
			}
			if d := amounts["monthly"]; d != nil {
				s.MonthlyTarget = *d
			}
			if flags.Changed("show-targets") {
				s.ShowTargetsOnHome = settingsShowTargets
			}
		})
		if err != nil {
			return err
		}
	}

	s := j.Settings()
	cur := cfg.Import.Currency
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initial capital: %s\n", ledger.FormatMoney(s.InitialCapital, cur))
	fmt.Fprintf(out, "Weekly target:   %s\n", ledger.FormatMoney(s.WeeklyTarget, cur))
	fmt.Fprintf(out, "Monthly target:  %s\n", ledger.FormatMoney(s.MonthlyTarget, cur))
	fmt.Fprintf(out, "Show targets:    %t\n", s.ShowTargetsOnHome)
	fmt.Fprintf(out, "Balance:         %s\n", ledger.FormatMoney(j.Balance(), cur))

	if changed {
		syncAfter(cmd.Context(), j, kv)
	}
	return nil
}
