package reconcile

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/rustyeddy/tradejournal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id, date string, updatedAt int64) ledger.Entry {
	return ledger.Entry{ID: id, Date: date, Kind: ledger.KindTrade, UpdatedAt: updatedAt}
}

func TestMergeLastWriterWins(t *testing.T) {
	t.Parallel()

	local := []ledger.Entry{
		entry("a", "2024-01-02T12:00:00.000Z", 100),
		entry("b", "2024-01-01T12:00:00.000Z", 50),
	}
	remote := []ledger.Entry{
		entry("a", "2024-01-02T12:00:00.000Z", 200),
	}
	remote[0].Note = "remote"

	got := MergeEntries(local, remote)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "remote", got[0].Note)
	assert.EqualValues(t, 200, got[0].UpdatedAt)
	assert.Equal(t, local[1], got[1])
}

func TestMergeTiesKeepLocal(t *testing.T) {
	t.Parallel()

	l := entry("a", "2024-01-02T12:00:00.000Z", 7)
	l.Note = "local"
	r := entry("a", "2024-01-02T12:00:00.000Z", 7)
	r.Note = "remote"

	for i := 0; i < 10; i++ {
		got := MergeEntries([]ledger.Entry{l}, []ledger.Entry{r})
		require.Len(t, got, 1)
		assert.Equal(t, "local", got[0].Note)
	}

	// missing timestamps count as zero
	r.UpdatedAt = 0
	l.UpdatedAt = 0
	assert.Equal(t, "local", MergeEntries([]ledger.Entry{l}, []ledger.Entry{r})[0].Note)
}

func TestMergeSortsByRecency(t *testing.T) {
	t.Parallel()

	trades := MergeTrades(
		[]ledger.Trade{{PositionID: "2", CloseTime: "2024.01.10 10:00:00"}, {PositionID: "3", CloseTime: "2024.01.12 10:00:00"}},
		[]ledger.Trade{{PositionID: "1", CloseTime: "2024.01.10 10:00:00"}, {PositionID: "4", CloseTime: "2024.01.11 10:00:00"}},
	)
	var ids []string
	for _, tr := range trades {
		ids = append(ids, tr.PositionID)
	}
	assert.Equal(t, []string{"3", "4", "1", "2"}, ids)
}

func TestMergeLaw(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	gen := func() []ledger.Entry {
		var out []ledger.Entry
		for i := 0; i < 20; i++ {
			if rng.Intn(2) == 0 {
				continue
			}
			out = append(out, entry(fmt.Sprintf("k%02d", i), fmt.Sprintf("2024-01-%02dT12:00:00.000Z", rng.Intn(28)+1), int64(rng.Intn(5))))
		}
		return out
	}

	for round := 0; round < 50; round++ {
		local, remote := gen(), gen()
		merged := MergeEntries(local, remote)

		byKey := func(es []ledger.Entry) map[string]ledger.Entry {
			m := make(map[string]ledger.Entry)
			for _, e := range es {
				m[e.ID] = e
			}
			return m
		}
		l, r, m := byKey(local), byKey(remote), byKey(merged)
		assert.Len(t, merged, len(m), "each key once")

		for k := range l {
			assert.Contains(t, m, k)
		}
		for k, re := range r {
			require.Contains(t, m, k)
			le, inLocal := l[k]
			switch {
			case !inLocal:
				assert.Equal(t, re, m[k])
			case re.UpdatedAt > le.UpdatedAt:
				assert.Equal(t, re, m[k])
			default:
				assert.Equal(t, le, m[k])
			}
		}
		assert.Len(t, m, len(unionKeys(l, r)))
	}
}

func unionKeys(a, b map[string]ledger.Entry) map[string]bool {
	out := make(map[string]bool)
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

func TestAhead(t *testing.T) {
	t.Parallel()

	remote := []ledger.Entry{entry("a", "", 2)}
	assert.False(t, ahead([]ledger.Entry{entry("a", "", 2)}, remote))
	assert.True(t, ahead([]ledger.Entry{entry("a", "", 3)}, remote))
	assert.True(t, ahead([]ledger.Entry{entry("a", "", 2), entry("b", "", 1)}, remote))
}
