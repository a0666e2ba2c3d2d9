package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settings are the scalar user preferences synchronised alongside the ledger.
type Settings struct {
	InitialCapital    decimal.Decimal `json:"initialCapital"`
	WeeklyTarget      decimal.Decimal `json:"weeklyTarget"`
	MonthlyTarget     decimal.Decimal `json:"monthlyTarget"`
	ShowTargetsOnHome bool            `json:"showTargetsOnHome"`
}

// Equal compares amounts by value.
func (s Settings) Equal(o Settings) bool {
	return s.InitialCapital.Equal(o.InitialCapital) &&
		s.WeeklyTarget.Equal(o.WeeklyTarget) &&
		s.MonthlyTarget.Equal(o.MonthlyTarget) &&
		s.ShowTargetsOnHome == o.ShowTargetsOnHome
}

// State is the full local book.
type State struct {
	Entries  []Entry
	Trades   []Trade
	Settings Settings
}

// Balance is the initial capital plus every entry amount.
func (s State) Balance() decimal.Decimal {
	b := s.Settings.InitialCapital
	for _, e := range s.Entries {
		b = b.Add(e.Amount)
	}
	return b
}

// Snapshot is the remote document stored per identity. It is written and
// read wholesale.
type Snapshot struct {
	Records           []Entry         `json:"records"`
	ReportTrades      []Trade         `json:"reportTrades"`
	InitialCapital    decimal.Decimal `json:"initialCapital"`
	WeeklyTarget      decimal.Decimal `json:"weeklyTarget"`
	MonthlyTarget     decimal.Decimal `json:"monthlyTarget"`
	ShowTargetsOnHome bool            `json:"showTargetsOnHome"`
	LastSynced        string          `json:"lastSynced"`
}

// NewSnapshot captures st stamped with at.
func NewSnapshot(st State, at time.Time) Snapshot {
	return Snapshot{
		Records:           append([]Entry(nil), st.Entries...),
		ReportTrades:      append([]Trade(nil), st.Trades...),
		InitialCapital:    st.Settings.InitialCapital,
		WeeklyTarget:      st.Settings.WeeklyTarget,
		MonthlyTarget:     st.Settings.MonthlyTarget,
		ShowTargetsOnHome: st.Settings.ShowTargetsOnHome,
		LastSynced:        FormatSyncTime(at),
	}
}

// Settings extracts the scalar settings.
func (s Snapshot) Settings() Settings {
	return Settings{
		InitialCapital:    s.InitialCapital,
		WeeklyTarget:      s.WeeklyTarget,
		MonthlyTarget:     s.MonthlyTarget,
		ShowTargetsOnHome: s.ShowTargetsOnHome,
	}
}

// SyncedAt parses LastSynced; a missing or malformed value is the zero time.
func (s Snapshot) SyncedAt() time.Time {
	return ParseSyncTime(s.LastSynced)
}

// FormatSyncTime renders a sync timestamp as an ISO string with milliseconds.
func FormatSyncTime(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

// ParseSyncTime is the inverse of FormatSyncTime.
func ParseSyncTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
