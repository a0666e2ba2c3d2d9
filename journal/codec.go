package journal

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rustyeddy/tradejournal/ledger"
	"github.com/rustyeddy/tradejournal/store"
	"github.com/shopspring/decimal"
)

// Store keys. They match the field names of the remote snapshot.
const (
	KeyRecords           = "records"
	KeyReportTrades      = "reportTrades"
	KeyInitialCapital    = "initialCapital"
	KeyWeeklyTarget      = "weeklyTarget"
	KeyMonthlyTarget     = "monthlyTarget"
	KeyShowTargetsOnHome = "showTargetsOnHome"
)

func encode(st ledger.State) (map[string]string, error) {
	entries := st.Entries
	if entries == nil {
		entries = []ledger.Entry{}
	}
	trades := st.Trades
	if trades == nil {
		trades = []ledger.Trade{}
	}
	records, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	reports, err := json.Marshal(trades)
	if err != nil {
		return nil, fmt.Errorf("encode trades: %w", err)
	}
	return map[string]string{
		KeyRecords:           string(records),
		KeyReportTrades:      string(reports),
		KeyInitialCapital:    st.Settings.InitialCapital.String(),
		KeyWeeklyTarget:      st.Settings.WeeklyTarget.String(),
		KeyMonthlyTarget:     st.Settings.MonthlyTarget.String(),
		KeyShowTargetsOnHome: strconv.FormatBool(st.Settings.ShowTargetsOnHome),
	}, nil
}

func load(kv store.KV) (ledger.State, error) {
	var st ledger.State
	if err := loadJSON(kv, KeyRecords, &st.Entries); err != nil {
		return st, err
	}
	if err := loadJSON(kv, KeyReportTrades, &st.Trades); err != nil {
		return st, err
	}
	var err error
	if st.Settings.InitialCapital, err = loadDecimal(kv, KeyInitialCapital); err != nil {
		return st, err
	}
	if st.Settings.WeeklyTarget, err = loadDecimal(kv, KeyWeeklyTarget); err != nil {
		return st, err
	}
	if st.Settings.MonthlyTarget, err = loadDecimal(kv, KeyMonthlyTarget); err != nil {
		return st, err
	}
	v, ok, err := kv.Get(KeyShowTargetsOnHome)
	if err != nil {
		return st, err
	}
	if ok {
		st.Settings.ShowTargetsOnHome, _ = strconv.ParseBool(v)
	}
	sortState(&st)
	return st, nil
}

func loadJSON(kv store.KV, key string, dst any) error {
	v, ok, err := kv.Get(key)
	if err != nil {
		return err
	}
	if !ok || v == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func loadDecimal(kv store.KV, key string) (decimal.Decimal, error) {
	v, ok, err := kv.Get(key)
	if err != nil || !ok || v == "" {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode %s: %w", key, err)
	}
	return d, nil
}
