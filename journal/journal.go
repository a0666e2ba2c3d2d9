// Package journal is the local book: the in-memory ledger, trades and
// settings that the rest of the program reads, persisted to a store.KV after
// every committed mutation.
package journal

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/tradejournal/ledger"
	"github.com/rustyeddy/tradejournal/pkg/id"
	"github.com/rustyeddy/tradejournal/store"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("entry not found")
	ErrNotWithdrawal = errors.New("only withdrawals can be deleted individually")
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Options configure a Journal. Zero fields get defaults.
type Options struct {
	Now   func() time.Time
	NewID func() string
}

// Journal is safe for concurrent use. Change listeners run after the lock is
// released.
type Journal struct {
	kv    store.KV
	now   func() time.Time
	newID func() string

	mu        sync.Mutex
	state     ledger.State
	lastStamp int64
	listeners []func()
}

// Open loads the journal held in kv. Missing keys yield an empty book.
func Open(kv store.KV, opts Options) (*Journal, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = id.New
	}
	j := &Journal{kv: kv, now: opts.Now, newID: opts.NewID}
	st, err := load(kv)
	if err != nil {
		return nil, err
	}
	j.state = st
	j.observe(st)
	return j, nil
}

// OnChange registers fn to run after every local mutation. Writes made by
// MergeRemote, ApplyRemote and Reload do not trigger it.
func (j *Journal) OnChange(fn func()) {
	j.mu.Lock()
	j.listeners = append(j.listeners, fn)
	j.mu.Unlock()
}

// CommitResult describes what an import actually changed.
type CommitResult struct {
	Plan    ledger.ImportPlan
	Balance decimal.Decimal
}

// Commit groups the confirmed trades into daily entries and applies the
// import atomically. Days already in the ledger and known tickets are
// skipped; when nothing is new the store is not touched.
func (j *Journal) Commit(trades []ledger.Trade) (CommitResult, error) {
	j.mu.Lock()
	plan := ledger.PlanImport(j.state, trades, j.newID, j.stamp())
	if len(plan.Entries) == 0 && len(plan.Trades) == 0 {
		res := CommitResult{Plan: plan, Balance: j.state.Balance()}
		j.mu.Unlock()
		return res, nil
	}

	next := cloneState(j.state)
	next.Entries = append(next.Entries, plan.Entries...)
	next.Trades = append(next.Trades, plan.Trades...)
	if err := j.persist(next); err != nil {
		j.mu.Unlock()
		return CommitResult{}, fmt.Errorf("commit import: %w", err)
	}
	res := CommitResult{Plan: plan, Balance: j.state.Balance()}
	j.mu.Unlock()

	j.notify()
	return res, nil
}

// AddWithdrawal records a cash withdrawal of amount (given as a positive
// number) at the given time.
func (j *Journal) AddWithdrawal(amount decimal.Decimal, at time.Time, note string) (ledger.Entry, error) {
	if !amount.IsPositive() {
		return ledger.Entry{}, ErrInvalidAmount
	}
	j.mu.Lock()
	before := j.state.Balance()
	e := ledger.Entry{
		ID:            j.newID(),
		Date:          ledger.FormatSyncTime(at),
		Amount:        ledger.Round2(amount.Neg()),
		BalanceBefore: before,
		Kind:          ledger.KindWithdrawal,
		Note:          note,
		UpdatedAt:     j.stamp(),
	}
	e.BalanceAfter = before.Add(e.Amount)

	next := cloneState(j.state)
	next.Entries = append(next.Entries, e)
	if err := j.persist(next); err != nil {
		j.mu.Unlock()
		return ledger.Entry{}, fmt.Errorf("add withdrawal: %w", err)
	}
	j.mu.Unlock()

	j.notify()
	return e, nil
}

// DeleteEntry removes a single withdrawal. Import-derived entries can only be
// removed by date.
func (j *Journal) DeleteEntry(entryID string) error {
	j.mu.Lock()
	idx := -1
	for i, e := range j.state.Entries {
		if e.ID == entryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		j.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, entryID)
	}
	if j.state.Entries[idx].Kind != ledger.KindWithdrawal {
		j.mu.Unlock()
		return ErrNotWithdrawal
	}

	next := cloneState(j.state)
	next.Entries = append(next.Entries[:idx], next.Entries[idx+1:]...)
	if err := j.persist(next); err != nil {
		j.mu.Unlock()
		return fmt.Errorf("delete entry: %w", err)
	}
	j.mu.Unlock()

	j.notify()
	return nil
}

// DeleteByDate removes the import entries dated day (YYYY-MM-DD) and the
// trades that closed on it, so that a corrected statement can be imported.
func (j *Journal) DeleteByDate(day string) (entries, trades int, err error) {
	return j.removeWhere(
		func(e ledger.Entry) bool { return e.Kind == ledger.KindTrade && e.Day() == day },
		func(t ledger.Trade) bool { return t.CloseDate() == day },
	)
}

// ClearReports drops every trade and import-derived entry. Withdrawals stay.
func (j *Journal) ClearReports() error {
	_, _, err := j.removeWhere(
		func(e ledger.Entry) bool { return e.Kind == ledger.KindTrade },
		func(ledger.Trade) bool { return true },
	)
	return err
}

// ClearAll drops all entries and trades. Settings are kept.
func (j *Journal) ClearAll() error {
	_, _, err := j.removeWhere(
		func(ledger.Entry) bool { return true },
		func(ledger.Trade) bool { return true },
	)
	return err
}

func (j *Journal) removeWhere(dropEntry func(ledger.Entry) bool, dropTrade func(ledger.Trade) bool) (int, int, error) {
	j.mu.Lock()
	next := ledger.State{Settings: j.state.Settings}
	for _, e := range j.state.Entries {
		if !dropEntry(e) {
			next.Entries = append(next.Entries, e)
		}
	}
	for _, t := range j.state.Trades {
		if !dropTrade(t) {
			next.Trades = append(next.Trades, t)
		}
	}
	entries := len(j.state.Entries) - len(next.Entries)
	trades := len(j.state.Trades) - len(next.Trades)
	if entries == 0 && trades == 0 {
		j.mu.Unlock()
		return 0, 0, nil
	}
	if err := j.persist(next); err != nil {
		j.mu.Unlock()
		return 0, 0, fmt.Errorf("remove: %w", err)
	}
	j.mu.Unlock()

	j.notify()
	return entries, trades, nil
}

// UpdateSettings applies fn to a copy of the settings and persists the result.
func (j *Journal) UpdateSettings(fn func(*ledger.Settings)) error {
	j.mu.Lock()
	next := cloneState(j.state)
	fn(&next.Settings)
	if next.Settings.Equal(j.state.Settings) {
		j.mu.Unlock()
		return nil
	}
	if err := j.persist(next); err != nil {
		j.mu.Unlock()
		return fmt.Errorf("update settings: %w", err)
	}
	j.mu.Unlock()

	j.notify()
	return nil
}

// ApplyRemote replaces the book with a merge result. It does not notify
// change listeners: a merge must never look like a fresh local edit.
func (j *Journal) ApplyRemote(entries []ledger.Entry, trades []ledger.Trade, settings ledger.Settings) error {
	return j.MergeRemote(func(ledger.State) ledger.State {
		return ledger.State{
			Entries:  append([]ledger.Entry(nil), entries...),
			Trades:   append([]ledger.Trade(nil), trades...),
			Settings: settings,
		}
	})
}

// MergeRemote computes the next book from the current one with fn and stores
// it, all under the journal lock, so no mutation can land between the read
// and the write. Listeners are not notified.
func (j *Journal) MergeRemote(fn func(cur ledger.State) ledger.State) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	next := fn(cloneState(j.state))
	if err := j.persist(next); err != nil {
		return fmt.Errorf("apply remote: %w", err)
	}
	j.observe(next)
	return nil
}

// Reload re-reads the book from the store after another process wrote it.
func (j *Journal) Reload() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	st, err := load(j.kv)
	if err != nil {
		return err
	}
	j.state = st
	j.observe(st)
	return nil
}

// Stale reports whether the store holds a different book than the one in
// memory. Keys the journal does not own are ignored.
func (j *Journal) Stale() (bool, error) {
	st, err := load(j.kv)
	if err != nil {
		return false, err
	}
	stored, err := encode(st)
	if err != nil {
		return false, err
	}
	cur, err := encode(j.Snapshot())
	if err != nil {
		return false, err
	}
	return !maps.Equal(stored, cur), nil
}

// Snapshot returns a copy of the whole book.
func (j *Journal) Snapshot() ledger.State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return cloneState(j.state)
}

// Entries are returned newest first.
func (j *Journal) Entries() []ledger.Entry {
	return j.Snapshot().Entries
}

// Trades are returned most recently closed first.
func (j *Journal) Trades() []ledger.Trade {
	return j.Snapshot().Trades
}

func (j *Journal) Settings() ledger.Settings {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state.Settings
}

func (j *Journal) Balance() decimal.Decimal {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state.Balance()
}

// Between returns the entries dated within [start, end).
func (j *Journal) Between(start, end time.Time) []ledger.Entry {
	return ledger.EntriesBetween(j.Entries(), start, end)
}

// persist writes next and swaps it in. Callers hold j.mu.
func (j *Journal) persist(next ledger.State) error {
	sortState(&next)
	pairs, err := encode(next)
	if err != nil {
		return err
	}
	if err := j.kv.SetMany(pairs); err != nil {
		return err
	}
	j.state = next
	return nil
}

// stamp returns a write timestamp in unix milliseconds, strictly greater than
// any stamp this journal has issued or loaded. Callers hold j.mu.
func (j *Journal) stamp() int64 {
	s := j.now().UnixMilli()
	if s <= j.lastStamp {
		s = j.lastStamp + 1
	}
	j.lastStamp = s
	return s
}

func (j *Journal) observe(st ledger.State) {
	for _, e := range st.Entries {
		j.lastStamp = max(j.lastStamp, e.UpdatedAt)
	}
	for _, t := range st.Trades {
		j.lastStamp = max(j.lastStamp, t.UpdatedAt)
	}
}

func (j *Journal) notify() {
	j.mu.Lock()
	fns := append([]func(){}, j.listeners...)
	j.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func cloneState(st ledger.State) ledger.State {
	return ledger.State{
		Entries:  append([]ledger.Entry(nil), st.Entries...),
		Trades:   append([]ledger.Trade(nil), st.Trades...),
		Settings: st.Settings,
	}
}

func sortState(st *ledger.State) {
	sort.SliceStable(st.Entries, func(a, b int) bool {
		ea, eb := st.Entries[a], st.Entries[b]
		if ea.Date != eb.Date {
			return ea.Date > eb.Date
		}
		return ea.ID < eb.ID
	})
	sort.SliceStable(st.Trades, func(a, b int) bool {
		ta, tb := st.Trades[a], st.Trades[b]
		if ta.CloseTime != tb.CloseTime {
			return ta.CloseTime > tb.CloseTime
		}
		return ta.PositionID < tb.PositionID
	})
}
