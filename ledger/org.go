package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/tradejournal/pkg/id"
)

// FormatEntryOrg renders an Entry as an Org-mode block. Structured facts go in
// the PROPERTIES drawer so they stay searchable; the note becomes the body.
// Entries with a ULID id also get the creation time it encodes.
func FormatEntryOrg(e Entry) string {
	title := "Trading day"
	if e.Kind == KindWithdrawal {
		title = "Withdrawal"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "** %s %s (%s)\n", e.Day(), title, shortID(e.ID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":ID: %s\n", e.ID)
	if t, ok := id.Time(e.ID); ok {
		fmt.Fprintf(&b, ":CREATED: %s\n", t.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, ":DATE: %s\n", e.Date)
	fmt.Fprintf(&b, ":KIND: %s\n", e.Kind)
	fmt.Fprintf(&b, ":AMOUNT: %s\n", e.Amount.StringFixed(2))
	fmt.Fprintf(&b, ":BALANCE_BEFORE: %s\n", e.BalanceBefore.StringFixed(2))
	fmt.Fprintf(&b, ":BALANCE_AFTER: %s\n", e.BalanceAfter.StringFixed(2))
	if d := e.Detail; d != nil {
		fmt.Fprintf(&b, ":TRADES: %d\n", d.Trades)
		fmt.Fprintf(&b, ":WINS: %d\n", d.Wins)
		fmt.Fprintf(&b, ":LOSSES: %d\n", d.Losses)
		fmt.Fprintf(&b, ":COMMISSION: %s\n", d.Commission.StringFixed(2))
		fmt.Fprintf(&b, ":SWAP: %s\n", d.Swap.StringFixed(2))
		fmt.Fprintf(&b, ":SYMBOLS: %s\n", strings.Join(d.Symbols, " "))
	}
	b.WriteString(":END:\n")
	if e.Note != "" {
		b.WriteString("\n")
		b.WriteString(e.Note)
		b.WriteString("\n")
	}
	return b.String()
}

// FormatEntriesOrg renders multiple entries separated by blank lines.
func FormatEntriesOrg(entries []Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatEntryOrg(e))
	}
	return b.String()
}

// FormatTradeOrg renders one imported trade as an Org-mode block.
func FormatTradeOrg(t Trade) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*** %s %s (%s)\n", t.Symbol, t.Direction, t.PositionID)
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":POSITION_ID: %s\n", t.PositionID)
	fmt.Fprintf(&b, ":VOLUME: %s\n", t.Volume.String())
	fmt.Fprintf(&b, ":PROFIT: %s\n", t.Profit.StringFixed(2))
	fmt.Fprintf(&b, ":COMMISSION: %s\n", t.Commission.StringFixed(2))
	fmt.Fprintf(&b, ":SWAP: %s\n", t.Swap.StringFixed(2))
	fmt.Fprintf(&b, ":NET: %s\n", t.Net().StringFixed(2))
	fmt.Fprintf(&b, ":CLOSE_TIME: %s\n", t.CloseTime)
	fmt.Fprintf(&b, ":OUTCOME: %s\n", t.Outcome)
	b.WriteString(":END:\n")
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}
