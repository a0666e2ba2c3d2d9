// Package reconcile keeps the local journal and the remote snapshot in step:
// last-writer-wins per entity, debounced pushes, polled pulls and a guard
// window that keeps a merge's own writes from being pushed back as edits.
package reconcile

import (
	"sort"

	"github.com/rustyeddy/tradejournal/ledger"
)

// Versioned is an entity that can be merged.
type Versioned interface {
	Key() string
	Version() int64
	Recency() string
}

// Merge unions local and remote by key. When both sides hold a key the
// strictly newer version wins and ties keep the local one. The result is
// sorted by recency, newest first, then by key.
func Merge[T Versioned](local, remote []T) []T {
	byKey := make(map[string]T, len(local)+len(remote))
	for _, r := range remote {
		if cur, ok := byKey[r.Key()]; !ok || r.Version() > cur.Version() {
			byKey[r.Key()] = r
		}
	}
	for _, l := range local {
		if cur, ok := byKey[l.Key()]; !ok || l.Version() >= cur.Version() {
			byKey[l.Key()] = l
		}
	}

	out := make([]T, 0, len(byKey))
	for _, v := range byKey {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Recency(), out[j].Recency()
		if ri != rj {
			return ri > rj
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}

func MergeEntries(local, remote []ledger.Entry) []ledger.Entry {
	return Merge(local, remote)
}

func MergeTrades(local, remote []ledger.Trade) []ledger.Trade {
	return Merge(local, remote)
}

// ahead reports whether merged holds anything remote lacks or holds older.
func ahead[T Versioned](merged, remote []T) bool {
	have := make(map[string]int64, len(remote))
	for _, r := range remote {
		have[r.Key()] = r.Version()
	}
	for _, m := range merged {
		v, ok := have[m.Key()]
		if !ok || m.Version() > v {
			return true
		}
	}
	return false
}
