package statement

import (
	"time"

	"github.com/rustyeddy/tradejournal/ledger"
)

// Aggregate turns accepted rows into trades keyed by ticket, keeping the order
// in which tickets first appear. Rows repeating a ticket are partial closes:
// their profit, commission and swap are added to the existing trade and
// rounded to cents after each addition. Tickets are merged unconditionally,
// even when the rows are far apart.
func Aggregate(rows [][]Cell, cols Columns, now time.Time) []ledger.Trade {
	var out []ledger.Trade
	index := make(map[string]int)

	for _, row := range rows {
		ticket := cols.Text(row, Ticket)
		profit := ParseCell(cols.Cell(row, Profit))
		commission := ParseCell(cols.Cell(row, Commission))
		swap := ParseCell(cols.Cell(row, Swap))

		if i, ok := index[ticket]; ok {
			t := &out[i]
			t.Profit = ledger.Round2(t.Profit.Add(profit))
			t.Commission = ledger.Round2(t.Commission.Add(commission))
			t.Swap = ledger.Round2(t.Swap.Add(swap))
			t.Derive()
			continue
		}

		dir := ledger.Sell
		if isBuy(cols.Text(row, Type)) {
			dir = ledger.Buy
		}
		closeTime := cols.Text(row, Time)
		if closeTime == "" {
			closeTime = now.UTC().Format(time.RFC3339)
		}
		t := ledger.Trade{
			PositionID: ticket,
			Symbol:     cols.Text(row, Symbol),
			Direction:  dir,
			Volume:     ParseCell(cols.Cell(row, Volume)),
			Profit:     ledger.Round2(profit),
			Commission: ledger.Round2(commission),
			Swap:       ledger.Round2(swap),
			CloseTime:  closeTime,
		}
		t.Derive()
		index[ticket] = len(out)
		out = append(out, t)
	}
	return out
}
