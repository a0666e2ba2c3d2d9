package journal

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rustyeddy/tradejournal/ledger"
	"github.com/rustyeddy/tradejournal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestJournal(t *testing.T, kv store.KV) *Journal {
	t.Helper()

	n := 0
	j, err := Open(kv, Options{
		Now: func() time.Time { return t0 },
		NewID: func() string {
			n++
			return fmt.Sprintf("e%02d", n)
		},
	})
	require.NoError(t, err)
	return j
}

func trade(ticket, closeTime, profit string) ledger.Trade {
	t := ledger.Trade{
		PositionID: ticket,
		Symbol:     "EURUSD",
		Direction:  ledger.Buy,
		Volume:     dec("1"),
		Profit:     dec(profit),
		Commission: dec("-1"),
		CloseTime:  closeTime,
	}
	t.Derive()
	return t
}

type failingKV struct{ store.KV }

func (failingKV) SetMany(map[string]string) error { return errors.New("disk full") }

func TestCommitImport(t *testing.T) {
	t.Parallel()

	kv := store.NewMemory()
	j := newTestJournal(t, kv)
	require.NoError(t, j.UpdateSettings(func(s *ledger.Settings) { s.InitialCapital = dec("1000") }))

	var changes atomic.Int32
	j.OnChange(func() { changes.Add(1) })

	trades := []ledger.Trade{
		trade("100001", "2024.01.10 10:00:00", "20"),
		trade("100002", "2024.01.11 10:00:00", "-5"),
	}
	res, err := j.Commit(trades)
	require.NoError(t, err)
	assert.Len(t, res.Plan.Entries, 2)
	assert.Len(t, res.Plan.Trades, 2)
	assert.False(t, res.Plan.NoNewData())
	assert.True(t, dec("1013").Equal(res.Balance))
	assert.EqualValues(t, 1, changes.Load())

	entries := j.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "2024-01-11", entries[0].Day(), "newest first")
	assert.True(t, dec("1019").Equal(entries[1].BalanceAfter))

	// same statement again
	res, err = j.Commit(trades)
	require.NoError(t, err)
	assert.True(t, res.Plan.NoNewData())
	assert.Empty(t, res.Plan.Trades)
	assert.Equal(t, []string{"100001", "100002"}, res.Plan.SkippedTickets)
	assert.EqualValues(t, 1, changes.Load(), "no-op import does not notify")

	reopened := newTestJournal(t, kv)
	want, err := encode(j.Snapshot())
	require.NoError(t, err)
	got, err := encode(reopened.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCommitIsAtomic(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t, failingKV{store.NewMemory()})
	_, err := j.Commit([]ledger.Trade{trade("100001", "2024.01.10 10:00:00", "20")})
	require.Error(t, err)
	assert.Empty(t, j.Entries())
	assert.Empty(t, j.Trades())
}

func TestWithdrawals(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t, store.NewMemory())
	require.NoError(t, j.UpdateSettings(func(s *ledger.Settings) { s.InitialCapital = dec("500") }))

	_, err := j.AddWithdrawal(dec("0"), t0, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	w, err := j.AddWithdrawal(dec("120.5"), t0, "rent")
	require.NoError(t, err)
	assert.Equal(t, ledger.KindWithdrawal, w.Kind)
	assert.True(t, dec("-120.5").Equal(w.Amount))
	assert.True(t, dec("379.5").Equal(w.BalanceAfter))
	assert.Equal(t, "2024-01-15T09:00:00.000Z", w.Date)

	_, err = j.Commit([]ledger.Trade{trade("100001", "2024.01.10 10:00:00", "20")})
	require.NoError(t, err)
	var imported ledger.Entry
	for _, e := range j.Entries() {
		if e.Kind == ledger.KindTrade {
			imported = e
		}
	}

	assert.ErrorIs(t, j.DeleteEntry(imported.ID), ErrNotWithdrawal)
	assert.ErrorIs(t, j.DeleteEntry("nope"), ErrNotFound)
	require.NoError(t, j.DeleteEntry(w.ID))
	assert.Len(t, j.Entries(), 1)
}

func TestDeleteByDateAllowsReimport(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t, store.NewMemory())
	_, err := j.Commit([]ledger.Trade{
		trade("100001", "2024.01.10 10:00:00", "20"),
		trade("100002", "2024.01.10 11:00:00", "5"),
		trade("100003", "2024.01.11 10:00:00", "-5"),
	})
	require.NoError(t, err)

	entries, trades, err := j.DeleteByDate("2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, 1, entries)
	assert.Equal(t, 2, trades)

	res, err := j.Commit([]ledger.Trade{trade("100001", "2024.01.10 10:00:00", "30")})
	require.NoError(t, err)
	require.Len(t, res.Plan.Entries, 1)
	assert.True(t, dec("29").Equal(res.Plan.Entries[0].Amount))
}

func TestClear(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t, store.NewMemory())
	require.NoError(t, j.UpdateSettings(func(s *ledger.Settings) { s.WeeklyTarget = dec("100") }))
	_, err := j.Commit([]ledger.Trade{trade("100001", "2024.01.10 10:00:00", "20")})
	require.NoError(t, err)
	_, err = j.AddWithdrawal(dec("10"), t0, "")
	require.NoError(t, err)

	require.NoError(t, j.ClearReports())
	assert.Empty(t, j.Trades())
	require.Len(t, j.Entries(), 1)
	assert.Equal(t, ledger.KindWithdrawal, j.Entries()[0].Kind)

	require.NoError(t, j.ClearAll())
	assert.Empty(t, j.Entries())
	assert.True(t, dec("100").Equal(j.Settings().WeeklyTarget))
}

func TestStampsAreMonotonic(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t, store.NewMemory())
	remote := []ledger.Entry{{ID: "r1", Date: "2024-01-01T12:00:00.000Z", Kind: ledger.KindTrade, UpdatedAt: t0.UnixMilli() + 5000}}
	require.NoError(t, j.ApplyRemote(remote, nil, ledger.Settings{}))

	w1, err := j.AddWithdrawal(dec("1"), t0, "")
	require.NoError(t, err)
	w2, err := j.AddWithdrawal(dec("1"), t0, "")
	require.NoError(t, err)
	assert.Greater(t, w1.UpdatedAt, remote[0].UpdatedAt)
	assert.Greater(t, w2.UpdatedAt, w1.UpdatedAt)
}

func TestApplyRemoteDoesNotNotify(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t, store.NewMemory())
	var changes atomic.Int32
	j.OnChange(func() { changes.Add(1) })

	settings := ledger.Settings{InitialCapital: dec("2000"), ShowTargetsOnHome: true}
	require.NoError(t, j.ApplyRemote(
		[]ledger.Entry{{ID: "a", Date: "2024-01-02T12:00:00.000Z", Amount: dec("5"), Kind: ledger.KindTrade}},
		[]ledger.Trade{trade("100001", "2024.01.02 10:00:00", "6")},
		settings,
	))
	assert.Zero(t, changes.Load())
	assert.True(t, dec("2005").Equal(j.Balance()))
	assert.True(t, j.Settings().ShowTargetsOnHome)
}

func TestMergeRemoteBlocksEdits(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t, store.NewMemory())
	started := make(chan struct{})
	release := make(chan struct{})
	merged := make(chan error, 1)
	go func() {
		merged <- j.MergeRemote(func(cur ledger.State) ledger.State {
			close(started)
			<-release
			cur.Entries = append(cur.Entries, ledger.Entry{ID: "r1", Date: "2024-01-02T12:00:00.000Z", Amount: dec("5"), Kind: ledger.KindTrade})
			return cur
		})
	}()

	<-started
	added := make(chan error, 1)
	go func() {
		_, err := j.AddWithdrawal(dec("50"), t0, "during merge")
		added <- err
	}()
	select {
	case <-added:
		t.Fatal("edit landed while the merge held the book")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)

	require.NoError(t, <-merged)
	require.NoError(t, <-added)
	assert.Len(t, j.Entries(), 2)
	assert.True(t, dec("-45").Equal(j.Balance()))
}

func TestReloadFromSQLite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.db")
	kv, err := store.NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	j := newTestJournal(t, kv)
	other := newTestJournal(t, kv)

	_, err = other.Commit([]ledger.Trade{trade("100001", "2024.01.10 10:00:00", "20")})
	require.NoError(t, err)
	assert.Empty(t, j.Entries())

	require.NoError(t, j.Reload())
	assert.Len(t, j.Entries(), 1)
	assert.Len(t, j.Trades(), 1)
}

func TestStale(t *testing.T) {
	t.Parallel()

	kv := store.NewMemory()
	j := newTestJournal(t, kv)
	other := newTestJournal(t, kv)

	stale, err := j.Stale()
	require.NoError(t, err)
	assert.False(t, stale)

	require.NoError(t, kv.Set("lastSynced", "2024-01-15T09:00:00.000Z"))
	stale, err = j.Stale()
	require.NoError(t, err)
	assert.False(t, stale, "foreign keys are not part of the book")

	_, err = other.Commit([]ledger.Trade{trade("100001", "2024.01.10 10:00:00", "20")})
	require.NoError(t, err)
	stale, err = j.Stale()
	require.NoError(t, err)
	assert.True(t, stale)

	require.NoError(t, j.Reload())
	stale, err = j.Stale()
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestBetween(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t, store.NewMemory())
	_, err := j.Commit([]ledger.Trade{
		trade("100001", "2024.01.10 10:00:00", "20"),
		trade("100002", "2024.01.20 10:00:00", "5"),
	})
	require.NoError(t, err)

	got := j.Between(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-10", got[0].Day())
}
