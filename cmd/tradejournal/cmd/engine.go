package cmd

import (
	"context"
	"fmt"

	"github.com/rustyeddy/tradejournal/internal/logger"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/reconcile"
	"github.com/rustyeddy/tradejournal/remote"
	"github.com/rustyeddy/tradejournal/store"
)

// newEngine builds a reconciliation engine over the configured remote. It
// returns a nil engine when no remote is configured.
func newEngine(ctx context.Context, j *journal.Journal, kv store.KV, polling bool) (*reconcile.Engine, remote.Store, error) {
	rs, err := remote.Open(ctx, cfg.Remote)
	if err != nil {
		return nil, nil, fmt.Errorf("open remote: %w", err)
	}
	if rs == nil {
		return nil, nil, nil
	}

	// Validate has already rejected malformed durations.
	debounce, _ := cfg.Sync.PushDebounceDuration()
	guard, _ := cfg.Sync.GuardWindowDuration()
	poll, _ := cfg.Sync.PollIntervalDuration()

	e := reconcile.New(j, rs, kv, reconcile.Options{
		PushDebounce:   debounce,
		GuardWindow:    guard,
		PollInterval:   poll,
		DisablePolling: !polling,
	})
	j.OnChange(e.LocalChanged)
	return e, rs, nil
}

// syncAfter runs a one-shot sync for the stored identity once a command has
// changed the journal. Failures are logged; the local write already stands.
func syncAfter(ctx context.Context, j *journal.Journal, kv store.KV) {
	e, rs, err := newEngine(ctx, j, kv, false)
	if err != nil {
		logger.Warnf("sync: %v", err)
		return
	}
	if e == nil {
		return
	}
	defer rs.Close()
	defer e.Close()

	ok, err := e.Resume(ctx)
	if err != nil {
		logger.Warnf("sync: resume: %v", err)
		return
	}
	if !ok {
		logger.Debugf("sync: not signed in, keeping changes local")
		return
	}
	if err := e.Sync(ctx); err != nil {
		logger.Warnf("sync: changes stay local until the next sync: %v", err)
	}
}
