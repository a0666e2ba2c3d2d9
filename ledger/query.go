package ledger

import (
	"sort"
	"time"
)

// EntriesBetween returns the entries dated within [start, end), oldest first.
func EntriesBetween(entries []Entry, start, end time.Time) []Entry {
	var out []Entry
	for _, e := range entries {
		t := e.Time()
		if t.IsZero() {
			continue
		}
		if !t.Before(start) && t.Before(end) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// TradesOn returns the trades closed on day (YYYY-MM-DD).
func TradesOn(trades []Trade, day string) []Trade {
	var out []Trade
	for _, t := range trades {
		if t.CloseDate() == day {
			out = append(out, t)
		}
	}
	return out
}

// DayBounds returns the [start, end) interval of a calendar day in loc.
func DayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1), nil
}
