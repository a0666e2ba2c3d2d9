package ledger

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestOutcome(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Win, trade("1", "A", "", "1", "0", "0").Outcome)
	assert.Equal(t, Loss, trade("1", "A", "", "1", "-1", "0").Outcome)
	assert.Equal(t, Loss, trade("1", "A", "", "-5", "0", "0").Outcome)
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "$1,234.56", FormatMoney(dec("1234.56"), "USD"))
	assert.Equal(t, "-$2.50", FormatMoney(dec("-2.5"), "USD"))
	assert.Equal(t, "+$0.01", SignedMoney(dec("0.005"), "USD"))
	assert.Equal(t, "102.50", FormatMoney(dec("102.5"), ""))
}

func TestSnapshotJSONFieldNames(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC)
	snap := NewSnapshot(State{
		Entries:  []Entry{{ID: "a", Date: NoonUTC("2024-01-10"), Kind: KindTrade}},
		Trades:   []Trade{trade("123456", "EURUSD", "2024.01.10 10:00:00", "1", "0", "0")},
		Settings: Settings{InitialCapital: dec("500"), ShowTargetsOnHome: true},
	}, at)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, k := range []string{"records", "reportTrades", "initialCapital", "weeklyTarget", "monthlyTarget", "showTargetsOnHome", "lastSynced"} {
		assert.Contains(t, m, k)
	}
	assert.Equal(t, `"2024-01-10T08:30:00.000Z"`, string(m["lastSynced"]))
	assert.True(t, snap.SyncedAt().Equal(at))
	assert.True(t, snap.Settings().InitialCapital.Equal(dec("500")))
	assert.True(t, ParseSyncTime("").IsZero())
}

func TestEntriesBetween(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{ID: "c", Date: NoonUTC("2024-01-12")},
		{ID: "a", Date: NoonUTC("2024-01-10")},
		{ID: "b", Date: NoonUTC("2024-01-11")},
		{ID: "bad", Date: "not a date"},
	}
	start, end, err := DayBounds(time.UTC, "2024-01-10")
	require.NoError(t, err)

	got := EntriesBetween(entries, start, end.AddDate(0, 0, 1))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	_, _, err = DayBounds(time.UTC, "10/01/2024")
	assert.Error(t, err)
}

func TestFormatEntryOrg(t *testing.T) {
	t.Parallel()

	e := Group([]Trade{trade("123456789", "EURUSD", "2024.01.10 10:00:00", "105.00", "-2.00", "-0.50")},
		func() string { return "01HMZ0000000000000ABCDEFGH" }, 1)[0]

	out := FormatEntryOrg(e)
	assert.Contains(t, out, "** 2024-01-10 Trading day (ABCDEFGH)")
	assert.Contains(t, out, ":AMOUNT: 102.50")
	assert.Contains(t, out, ":TRADES: 1")
	assert.Contains(t, out, ":SYMBOLS: EURUSD")
	assert.Contains(t, out, ":END:")

	w := Entry{ID: "w1", Date: NoonUTC("2024-01-11"), Kind: KindWithdrawal, Amount: dec("-50"), Note: "rent"}
	both := FormatEntriesOrg([]Entry{e, w})
	assert.Contains(t, both, "Withdrawal (w1)")
	assert.Contains(t, both, "rent")
	assert.NotContains(t, FormatEntryOrg(w), ":TRADES:")

	assert.Contains(t, FormatTradeOrg(trade("123456789", "EURUSD", "x", "1", "0", "0")), ":POSITION_ID: 123456789")
}

func TestFormatEntryOrgCreated(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	e := Entry{ID: ulid.MustNew(ulid.Timestamp(at), nil).String(), Date: NoonUTC("2024-03-05"), Kind: KindWithdrawal, Amount: dec("-10")}
	assert.Contains(t, FormatEntryOrg(e), ":CREATED: 2024-03-05T09:30:00Z")

	e.ID = "e01"
	assert.NotContains(t, FormatEntryOrg(e), ":CREATED:")
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	tr := trade("123456789", "EURUSD", "2024.01.10 10:00:00", "105.00", "-2.00", "-0.50")
	entries := Group([]Trade{tr}, seqIDs(), 1)

	var buf bytes.Buffer
	require.NoError(t, WriteEntriesCSV(&buf, entries))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, entryHeader, rows[0])
	assert.Equal(t, "2024-01-10", rows[1][1])
	assert.Equal(t, "102.50", rows[1][3])

	buf.Reset()
	require.NoError(t, WriteTradesCSV(&buf, []Trade{tr}))
	rows, err = csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "102.50", rows[1][7])
	assert.Equal(t, "Win", rows[1][9])
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()

	tr := trade("123456789", "EURUSD", "2024.01.10 10:00:00", "105.00", "-2.00", "-0.50")
	st := State{Entries: Group([]Trade{tr}, seqIDs(), 1), Trades: []Trade{tr}}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, st))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ledgerSheet, tradesSheet}, f.GetSheetList())
	rows, err := f.GetRows(tradesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "123456789", rows[1][0])
}
