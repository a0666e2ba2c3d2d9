package statement

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/tradejournal/ledger"
	"github.com/shopspring/decimal"
)

// Preview summarises a parsed statement for confirmation before anything is
// committed to the ledger.
type Preview struct {
	Trades     int
	Wins       int
	Losses     int
	Net        decimal.Decimal
	Commission decimal.Decimal
	Swap       decimal.Decimal
}

// BuildPreview aggregates the trades. A trade wins when its net result is
// strictly positive.
func BuildPreview(trades []ledger.Trade) Preview {
	var p Preview
	for _, t := range trades {
		p.Trades++
		net := t.Net()
		if net.IsPositive() {
			p.Wins++
		} else {
			p.Losses++
		}
		p.Net = p.Net.Add(net)
		p.Commission = p.Commission.Add(t.Commission)
		p.Swap = p.Swap.Add(t.Swap)
	}
	p.Net = ledger.Round2(p.Net)
	p.Commission = ledger.Round2(p.Commission)
	p.Swap = ledger.Round2(p.Swap)
	return p
}

// Markdown renders the preview as a small table.
func (p Preview) Markdown(currency string) string {
	var b strings.Builder
	b.WriteString("## Statement preview\n\n")
	b.WriteString("| | |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Trades | %d |\n", p.Trades)
	fmt.Fprintf(&b, "| Wins | %d |\n", p.Wins)
	fmt.Fprintf(&b, "| Losses | %d |\n", p.Losses)
	fmt.Fprintf(&b, "| Net result | %s |\n", ledger.SignedMoney(p.Net, currency))
	fmt.Fprintf(&b, "| Commission | %s |\n", ledger.FormatMoney(p.Commission, currency))
	fmt.Fprintf(&b, "| Swap | %s |\n", ledger.FormatMoney(p.Swap, currency))
	return b.String()
}
