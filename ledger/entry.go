package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind separates import-derived daily results from manual cash movements.
type Kind string

const (
	KindTrade      Kind = "trade"
	KindWithdrawal Kind = "withdrawal"
)

// ImportDetail carries the per-day aggregate of an imported statement.
type ImportDetail struct {
	Trades     int             `json:"tradesCount"`
	Wins       int             `json:"winCount"`
	Losses     int             `json:"lossCount"`
	Commission decimal.Decimal `json:"totalCommission"`
	Swap       decimal.Decimal `json:"totalSwap"`
	Symbols    []string        `json:"symbols"`
}

// Entry is one row of the daily P/L history.
type Entry struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	Kind          Kind            `json:"type"`
	SourceImport  bool            `json:"sourceImport"`
	Detail        *ImportDetail   `json:"importDetail,omitempty"`
	Note          string          `json:"note"`
	UpdatedAt     int64           `json:"updatedAt,omitempty"`
}

// Day is the entry's calendar date as YYYY-MM-DD.
func (e Entry) Day() string {
	return CloseDate(e.Date)
}

// Time parses the entry date. Unparseable dates yield the zero time.
func (e Entry) Time() time.Time {
	t, err := time.Parse(time.RFC3339, e.Date)
	if err != nil {
		t, _ = time.Parse("2006-01-02", e.Day())
	}
	return t
}

func (e Entry) Key() string     { return e.ID }
func (e Entry) Version() int64  { return e.UpdatedAt }
func (e Entry) Recency() string { return e.Date }

// NoonUTC pins a calendar day to 12:00 UTC so that later timezone
// conversions never move the entry onto a neighbouring day.
func NoonUTC(day string) string {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		return day + "T12:00:00.000Z"
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.UTC).Format(isoMillis)
}

const isoMillis = "2006-01-02T15:04:05.000Z07:00"
