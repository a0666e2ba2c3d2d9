package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Group buckets trades by close date and emits one import-derived entry per
// day, sorted by date ascending. newID supplies entry ids and stamp becomes
// every entry's UpdatedAt.
func Group(trades []Trade, newID func() string, stamp int64) []Entry {
	type bucket struct {
		day     string
		detail  ImportDetail
		net     decimal.Decimal
		symbols map[string]bool
	}

	buckets := make(map[string]*bucket)
	var days []string
	for _, t := range trades {
		day := t.CloseDate()
		b, ok := buckets[day]
		if !ok {
			b = &bucket{day: day, symbols: make(map[string]bool)}
			buckets[day] = b
			days = append(days, day)
		}
		net := t.Net()
		b.net = b.net.Add(net)
		b.detail.Trades++
		b.detail.Commission = b.detail.Commission.Add(t.Commission)
		b.detail.Swap = b.detail.Swap.Add(t.Swap)
		if net.IsPositive() {
			b.detail.Wins++
		} else {
			b.detail.Losses++
		}
		if !b.symbols[t.Symbol] {
			b.symbols[t.Symbol] = true
			b.detail.Symbols = append(b.detail.Symbols, t.Symbol)
		}
	}
	sort.Strings(days)

	out := make([]Entry, 0, len(days))
	for _, day := range days {
		b := buckets[day]
		d := b.detail
		d.Commission = Round2(d.Commission)
		d.Swap = Round2(d.Swap)
		out = append(out, Entry{
			ID:           newID(),
			Date:         NoonUTC(day),
			Amount:       Round2(b.net),
			Kind:         KindTrade,
			SourceImport: true,
			Detail:       &d,
			Note:         importNote(d),
			UpdatedAt:    stamp,
		})
	}
	return out
}

func importNote(d ImportDetail) string {
	return fmt.Sprintf("Imported %d trades (%d won, %d lost) on %s",
		d.Trades, d.Wins, d.Losses, strings.Join(d.Symbols, ", "))
}

// ImportPlan is the set of mutations an import would apply to a ledger.
type ImportPlan struct {
	Entries        []Entry
	Trades         []Trade
	SkippedDates   []string
	SkippedTickets []string
}

// NoNewData reports that every candidate day already exists in the ledger.
// New trades may still be part of the plan.
func (p ImportPlan) NoNewData() bool {
	return len(p.Entries) == 0
}

// PlanImport groups the confirmed trades into daily entries and drops every
// day the ledger already has an import-derived entry for, and every trade whose
// ticket is already known. The comparison is by date only, so correcting a
// day requires deleting it first. Only import-derived entries count:
// a withdrawal recorded on a day does not block importing that day.
func PlanImport(st State, trades []Trade, newID func() string, stamp int64) ImportPlan {
	var plan ImportPlan

	haveDay := make(map[string]bool)
	for _, e := range st.Entries {
		if e.Kind == KindTrade {
			haveDay[e.Day()] = true
		}
	}
	running := st.Balance()
	for _, e := range Group(trades, newID, stamp) {
		if haveDay[e.Day()] {
			plan.SkippedDates = append(plan.SkippedDates, e.Day())
			continue
		}
		e.BalanceBefore = running
		running = running.Add(e.Amount)
		e.BalanceAfter = running
		plan.Entries = append(plan.Entries, e)
	}

	haveTicket := make(map[string]bool, len(st.Trades))
	for _, t := range st.Trades {
		haveTicket[t.PositionID] = true
	}
	for _, t := range trades {
		if haveTicket[t.PositionID] {
			plan.SkippedTickets = append(plan.SkippedTickets, t.PositionID)
			continue
		}
		haveTicket[t.PositionID] = true
		t.UpdatedAt = stamp
		plan.Trades = append(plan.Trades, t)
	}
	return plan
}
