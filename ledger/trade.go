// Package ledger holds the trading journal's data model: executed trades
// imported from broker statements, the daily ledger entries derived from
// them, the user settings and the snapshot exchanged with the remote store.
package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a position.
type Direction string

const (
	Buy  Direction = "Buy"
	Sell Direction = "Sell"
)

// Outcome classifies a trade by the sign of its net result.
type Outcome string

const (
	Win  Outcome = "Win"
	Loss Outcome = "Loss"
)

// OutcomeOf returns Win for a strictly positive net result, Loss otherwise.
func OutcomeOf(net decimal.Decimal) Outcome {
	if net.IsPositive() {
		return Win
	}
	return Loss
}

// Trade is one broker position, possibly closed across several partial-close
// rows of a statement. PositionID is the natural key.
type Trade struct {
	PositionID string          `json:"positionId"`
	Symbol     string          `json:"symbol"`
	Direction  Direction       `json:"type"`
	Volume     decimal.Decimal `json:"volume"`
	Profit     decimal.Decimal `json:"profit"`
	Commission decimal.Decimal `json:"commission"`
	Swap       decimal.Decimal `json:"swap"`
	CloseTime  string          `json:"closeTime"`
	Outcome    Outcome         `json:"outcome"`
	UpdatedAt  int64           `json:"updatedAt,omitempty"`
}

// Net is profit plus commission plus swap.
func (t Trade) Net() decimal.Decimal {
	return t.Profit.Add(t.Commission).Add(t.Swap)
}

// Derive recomputes the outcome from the current totals.
func (t *Trade) Derive() {
	t.Outcome = OutcomeOf(t.Net())
}

// CloseDate is the calendar day the trade closed on, as YYYY-MM-DD.
func (t Trade) CloseDate() string {
	return CloseDate(t.CloseTime)
}

func (t Trade) Key() string     { return t.PositionID }
func (t Trade) Version() int64  { return t.UpdatedAt }
func (t Trade) Recency() string { return t.CloseTime }

var dayLayouts = []string{"2006-01-02", "2006-1-2", "02-01-2006", "2-1-2006"}

// CloseDate reduces a close timestamp to a date-only string. ISO timestamps are
// cut at 'T'; broker timestamps such as "2024.01.10 10:00:00" are cut at the
// first space and have their dots turned into dashes. Day-first dates are
// rewritten as YYYY-MM-DD; anything unrecognised is returned as cut.
func CloseDate(closeTime string) string {
	s := strings.TrimSpace(closeTime)
	if i := strings.IndexByte(s, 'T'); i > 0 {
		return s[:i]
	}
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	s = strings.NewReplacer(".", "-", "/", "-").Replace(s)
	for _, layout := range dayLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return s
}
