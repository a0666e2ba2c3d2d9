package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/tradejournal/internal/logger"
	"github.com/rustyeddy/tradejournal/ledger"
	"github.com/rustyeddy/tradejournal/remote"
	"github.com/rustyeddy/tradejournal/store"
)

var (
	// ErrSyncFailure wraps every remote I/O error.
	ErrSyncFailure = errors.New("sync failed")
	ErrNotSignedIn = errors.New("not signed in")
	// ErrBusy is returned by a user-triggered push or pull that cannot run
	// now. The work is retried by the engine itself.
	ErrBusy = errors.New("sync busy")
)

// KV keys owned by the engine.
const (
	KeyLastSynced = "lastSynced"
	KeyIdentity   = "identity"
)

const (
	DefaultPushDebounce = 1500 * time.Millisecond
	DefaultGuardWindow  = 2 * time.Second
	DefaultPollInterval = 30 * time.Second
)

// State is the engine's sync phase.
type State int

const (
	Idle State = iota
	Pushing
	Pulling
	// ApplyingMerge lasts from the start of a merge until its guard window
	// has elapsed.
	ApplyingMerge
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pushing:
		return "pushing"
	case Pulling:
		return "pulling"
	case ApplyingMerge:
		return "applying-merge"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Identity is the signed-in user. The engine only uses UID.
type Identity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Local is the book the engine merges into.
type Local interface {
	Snapshot() ledger.State
	// MergeRemote replaces the book with fn(current) atomically with respect
	// to local edits. It must not report the write as a local change.
	MergeRemote(fn func(cur ledger.State) ledger.State) error
}

type Options struct {
	PushDebounce time.Duration
	GuardWindow  time.Duration
	PollInterval time.Duration
	// DisablePolling keeps SignIn from starting the poll loop; pulls then
	// only happen through Pull and Sync.
	DisablePolling bool
	// Visible reports whether anyone is looking; polls are skipped when it
	// returns false. Nil means always visible.
	Visible func() bool
	Now     func() time.Time
}

// Status is a point-in-time view of the engine.
type Status struct {
	State      State
	Identity   *Identity
	LastSynced time.Time
	Pending    bool
	Pulled     bool
}

// Engine drives push and pull for one signed-in identity at a time. All
// exported methods are safe for concurrent use.
type Engine struct {
	local  Local
	remote remote.Store
	kv     store.KV
	opts   Options

	mu         sync.Mutex
	state      State
	idle       chan struct{}
	identity   *Identity
	lastSynced time.Time
	pulled     bool
	pending    bool
	gen        uint64
	sessionCtx context.Context
	cancel     context.CancelFunc
	loopDone   chan struct{}
	debounce   *time.Timer
	guard      *time.Timer
}

func New(local Local, rs remote.Store, kv store.KV, opts Options) *Engine {
	if opts.PushDebounce <= 0 {
		opts.PushDebounce = DefaultPushDebounce
	}
	if opts.GuardWindow <= 0 {
		opts.GuardWindow = DefaultGuardWindow
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		local:      local,
		remote:     rs,
		kv:         kv,
		opts:       opts,
		idle:       make(chan struct{}),
		sessionCtx: context.Background(),
	}
}

// Status returns the current sync status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{
		State:      e.state,
		LastSynced: e.lastSynced,
		Pending:    e.pending,
		Pulled:     e.pulled,
	}
	if e.identity != nil {
		id := *e.identity
		st.Identity = &id
	}
	return st
}

// StoredIdentity returns the identity persisted by a previous SignIn.
func (e *Engine) StoredIdentity() (Identity, bool, error) {
	v, ok, err := e.kv.Get(KeyIdentity)
	if err != nil || !ok || v == "" {
		return Identity{}, false, err
	}
	var id Identity
	if err := json.Unmarshal([]byte(v), &id); err != nil {
		return Identity{}, false, fmt.Errorf("decode identity: %w", err)
	}
	return id, id.UID != "", nil
}

// Resume signs the stored identity back in, if there is one.
func (e *Engine) Resume(ctx context.Context) (bool, error) {
	id, ok, err := e.StoredIdentity()
	if err != nil || !ok {
		return false, err
	}
	return true, e.SignIn(ctx, id)
}

// SignIn starts a session for id. Any other session is signed out first.
// The last sync time is restored when the store belongs to the same identity,
// and the poll loop starts with an immediate pull.
func (e *Engine) SignIn(ctx context.Context, id Identity) error {
	if id.UID == "" {
		return errors.New("identity uid is required")
	}
	if cur := e.Status().Identity; cur != nil {
		if cur.UID == id.UID {
			return nil
		}
		if err := e.SignOut(); err != nil {
			return err
		}
	}

	stored, _, err := e.StoredIdentity()
	if err != nil {
		return err
	}
	var last time.Time
	if stored.UID == id.UID {
		if v, ok, err := e.kv.Get(KeyLastSynced); err != nil {
			return err
		} else if ok {
			last = ledger.ParseSyncTime(v)
		}
	} else if err := e.kv.Remove(KeyLastSynced); err != nil {
		return err
	}
	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	if err := e.kv.Set(KeyIdentity, string(data)); err != nil {
		return err
	}

	e.mu.Lock()
	e.gen++
	e.identity = &id
	e.lastSynced = last
	e.pulled = false
	e.pending = false
	e.setState(Idle)
	e.sessionCtx, e.cancel = context.WithCancel(ctx)
	gen, sessionCtx := e.gen, e.sessionCtx
	var done chan struct{}
	if !e.opts.DisablePolling {
		done = make(chan struct{})
		e.loopDone = done
	}
	e.mu.Unlock()

	logger.Infof("sync: signed in as %s", id.UID)
	if done != nil {
		go e.run(sessionCtx, gen, done)
	}
	return nil
}

// SignOut stops the session and forgets every piece of sync state, in memory
// and in the store, so nothing leaks to the next identity.
func (e *Engine) SignOut() error {
	e.stop()
	if err := e.kv.Remove(KeyLastSynced, KeyIdentity); err != nil {
		return fmt.Errorf("clear sync state: %w", err)
	}
	logger.Infof("sync: signed out")
	return nil
}

// Close stops the session but keeps the stored identity for Resume.
func (e *Engine) Close() {
	e.stop()
}

func (e *Engine) stop() {
	e.mu.Lock()
	e.gen++
	stopTimer(&e.debounce)
	stopTimer(&e.guard)
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	done := e.loopDone
	e.loopDone = nil
	e.identity = nil
	e.lastSynced = time.Time{}
	e.pulled = false
	e.pending = false
	e.setState(Idle)
	e.mu.Unlock()

	if done != nil {
		<-done
	}
}

// LocalChanged reports an edit made in this process. The push is debounced;
// it is deferred while a pull is running or being applied, and until the
// first pull after sign-in has completed.
func (e *Engine) LocalChanged() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.changedLocked()
}

// ExternalChanged reports that the local store was written by someone else.
// It is ignored while a merge is being applied since those writes are the
// merge's own. The return value tells whether the change was taken.
func (e *Engine) ExternalChanged() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == ApplyingMerge {
		logger.Debugf("sync: ignoring store write during merge")
		return false
	}
	e.changedLocked()
	return true
}

func (e *Engine) changedLocked() {
	if e.identity == nil {
		return
	}
	if e.state != Idle || !e.pulled {
		e.pending = true
		return
	}
	e.armDebounceLocked()
}

func (e *Engine) armDebounceLocked() {
	stopTimer(&e.debounce)
	gen, ctx := e.gen, e.sessionCtx
	e.debounce = time.AfterFunc(e.opts.PushDebounce, func() {
		e.mu.Lock()
		stale := gen != e.gen
		e.mu.Unlock()
		if !stale {
			_ = e.Push(ctx, true)
		}
	})
}

// Push writes the whole local book to the remote snapshot. Silent pushes log
// failures and return nil; a failed push is retried after the next pull.
func (e *Engine) Push(ctx context.Context, silent bool) error {
	e.mu.Lock()
	if e.identity == nil {
		e.mu.Unlock()
		return ErrNotSignedIn
	}
	if e.state != Idle || !e.pulled {
		e.pending = true
		state, pulled := e.state, e.pulled
		e.mu.Unlock()
		logger.Debugf("sync: push deferred (%s, pulled=%t)", state, pulled)
		return e.result(silent, ErrBusy)
	}
	stopTimer(&e.debounce)
	e.pending = false
	e.setState(Pushing)
	uid, gen := e.identity.UID, e.gen
	e.mu.Unlock()

	at := e.opts.Now()
	snap := ledger.NewSnapshot(e.local.Snapshot(), at)
	err := e.remote.Upsert(ctx, uid, snap)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return nil
	}
	e.setState(Idle)
	if err != nil {
		e.pending = true
		return e.result(silent, fmt.Errorf("%w: push: %v", ErrSyncFailure, err))
	}
	e.recordSyncLocked(ledger.ParseSyncTime(snap.LastSynced))
	logger.Debugf("sync: pushed %d records, %d trades", len(snap.Records), len(snap.ReportTrades))
	if e.pending {
		e.armDebounceLocked()
	}
	return nil
}

// Pull fetches the remote snapshot and merges it when it is newer than the
// last sync, or always on the first pull of a session. A missing snapshot is
// created by pushing. After a merge the engine stays in ApplyingMerge for the
// guard window, then flushes any deferred push.
func (e *Engine) Pull(ctx context.Context, silent bool) error {
	e.mu.Lock()
	if e.identity == nil {
		e.mu.Unlock()
		return ErrNotSignedIn
	}
	if e.state != Idle {
		e.mu.Unlock()
		return e.result(silent, ErrBusy)
	}
	e.setState(Pulling)
	uid, gen, first, since := e.identity.UID, e.gen, !e.pulled, e.lastSynced
	e.mu.Unlock()

	snap, err := e.remote.Fetch(ctx, uid)
	if errors.Is(err, remote.ErrNotFound) {
		if !e.finishPull(gen) {
			return nil
		}
		logger.Infof("sync: no remote snapshot for %s, creating it", uid)
		return e.Push(ctx, silent)
	}
	if err != nil {
		e.mu.Lock()
		if gen == e.gen {
			e.setState(Idle)
		}
		e.mu.Unlock()
		return e.result(silent, fmt.Errorf("%w: pull: %v", ErrSyncFailure, err))
	}

	remoteAt := snap.SyncedAt()
	if !first && !remoteAt.After(since) {
		e.finishPull(gen)
		return nil
	}

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return nil
	}
	e.setState(ApplyingMerge)
	e.mu.Unlock()

	var entries []ledger.Entry
	var trades []ledger.Trade
	var settings ledger.Settings
	applyErr := e.local.MergeRemote(func(cur ledger.State) ledger.State {
		entries = MergeEntries(cur.Entries, snap.Records)
		trades = MergeTrades(cur.Trades, snap.ReportTrades)
		// Settings are not merged per field. The remote copy wins only when it
		// was written after our last sync; otherwise the local copy is newer.
		settings = snap.Settings()
		if !remoteAt.After(since) {
			settings = cur.Settings
		}
		return ledger.State{Entries: entries, Trades: trades, Settings: settings}
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return nil
	}
	if applyErr != nil {
		e.setState(Idle)
		return e.result(silent, fmt.Errorf("apply merge: %w", applyErr))
	}
	e.pulled = true
	if ahead(entries, snap.Records) || ahead(trades, snap.ReportTrades) || !settings.Equal(snap.Settings()) {
		e.pending = true
	}
	e.recordSyncLocked(remoteAt)
	logger.Debugf("sync: merged remote snapshot from %s (%d records, %d trades)",
		snap.LastSynced, len(entries), len(trades))

	stopTimer(&e.guard)
	e.guard = time.AfterFunc(e.opts.GuardWindow, func() { e.endGuard(gen) })
	return nil
}

// finishPull ends a pull that applied nothing. It reports false when the
// session changed meanwhile.
func (e *Engine) finishPull(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return false
	}
	e.pulled = true
	e.setState(Idle)
	if e.pending {
		e.armDebounceLocked()
	}
	return true
}

func (e *Engine) endGuard(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || e.state != ApplyingMerge {
		e.mu.Unlock()
		return
	}
	e.guard = nil
	e.setState(Idle)
	flush, ctx := e.pending, e.sessionCtx
	e.mu.Unlock()

	if flush {
		logger.Debugf("sync: guard window over, flushing deferred push")
		_ = e.Push(ctx, true)
	}
}

// Sync is a user-triggered pull followed by a push. Errors are returned.
func (e *Engine) Sync(ctx context.Context) error {
	if err := e.Pull(ctx, false); err != nil {
		return err
	}
	for {
		if err := e.WaitIdle(ctx); err != nil {
			return err
		}
		err := e.Push(ctx, false)
		if !errors.Is(err, ErrBusy) {
			return err
		}
	}
}

// WaitIdle blocks until the engine is idle.
func (e *Engine) WaitIdle(ctx context.Context) error {
	for {
		e.mu.Lock()
		if e.state == Idle {
			e.mu.Unlock()
			return nil
		}
		ch := e.idle
		e.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (e *Engine) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.opts.PollInterval)
	defer ticker.Stop()

	for {
		e.poll(ctx, gen)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (e *Engine) poll(ctx context.Context, gen uint64) {
	if e.opts.Visible != nil && !e.opts.Visible() {
		return
	}
	e.mu.Lock()
	skip := gen != e.gen || e.state != Idle
	e.mu.Unlock()
	if skip {
		return
	}
	_ = e.Pull(ctx, true)
}

func (e *Engine) recordSyncLocked(at time.Time) {
	if !at.After(e.lastSynced) {
		return
	}
	e.lastSynced = at
	if err := e.kv.Set(KeyLastSynced, ledger.FormatSyncTime(at)); err != nil {
		logger.Warnf("sync: record last sync time: %v", err)
	}
}

// setState must be called with e.mu held.
func (e *Engine) setState(s State) {
	if s == Idle && e.state != Idle {
		close(e.idle)
		e.idle = make(chan struct{})
	}
	e.state = s
}

func (e *Engine) result(silent bool, err error) error {
	if errors.Is(err, ErrBusy) {
		if silent {
			return nil
		}
		return err
	}
	logger.Warnf("sync: %v", err)
	if silent {
		return nil
	}
	return err
}

func stopTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
