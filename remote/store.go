// Package remote holds the per-identity snapshot document the sync engine
// pushes to and pulls from.
package remote

import (
	"context"
	"errors"
	"sync"

	"github.com/rustyeddy/tradejournal/ledger"
	"github.com/shopspring/decimal"
)

// ErrNotFound means no snapshot exists yet for the identity.
var ErrNotFound = errors.New("snapshot not found")

// Store reads and writes one snapshot document per identity. Fetch and Upsert
// always move the whole document.
type Store interface {
	Fetch(ctx context.Context, uid string) (ledger.Snapshot, error)
	Upsert(ctx context.Context, uid string, snap ledger.Snapshot) error
	Close() error
}

// Memory is a Store kept in process memory.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]ledger.Snapshot
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]ledger.Snapshot)}
}

func (m *Memory) Fetch(ctx context.Context, uid string) (ledger.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Snapshot{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.docs[uid]
	if !ok {
		return ledger.Snapshot{}, ErrNotFound
	}
	return copySnapshot(snap), nil
}

func (m *Memory) Upsert(ctx context.Context, uid string, snap ledger.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.docs[uid] = copySnapshot(snap)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

func copySnapshot(s ledger.Snapshot) ledger.Snapshot {
	s.Records = append([]ledger.Entry(nil), s.Records...)
	s.ReportTrades = append([]ledger.Trade(nil), s.ReportTrades...)
	return s
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
