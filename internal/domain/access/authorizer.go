package access

import (
	"context"
	"log/slog"
	"sync"
)

type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Table sources reported to the Observer.
const (
	SourceStore   = "store"
	SourceDefault = "default"
	SourceLive    = "live"
	SourceCommit  = "commit"
)

// Observer receives decision and table update events, typically metrics.
type Observer interface {
	ObserveDecision(allowed bool)
	ObserveTableUpdate(source string)
}

type nopObserver struct{}

func (nopObserver) ObserveDecision(bool)       {}
func (nopObserver) ObserveTableUpdate(string) {}

type Option func(*Authorizer)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Authorizer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(a *Authorizer) {
		if observer != nil {
			a.observer = observer
		}
	}
}

// Authorizer owns the live permission table for a process and answers page
// access questions against it. Until the first load completes it answers
// from DefaultTable; Check waits for that load instead.
type Authorizer struct {
	store    PermissionStore
	logger   *slog.Logger
	observer Observer

	mu         sync.RWMutex
	state      State
	table      Table
	generation uint64
	lastErr    error
	closed     bool
	stopWatch  func()
	subs       map[int]func(Table)
	nextSub    int

	ready     chan struct{}
	readyOnce sync.Once
}

func NewAuthorizer(store PermissionStore, opts ...Option) *Authorizer {
	a := &Authorizer{
		store:    store,
		logger:   slog.Default(),
		observer: nopObserver{},
		table:    DefaultTable(),
		subs:     map[int]func(Table){},
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start subscribes to the store and performs the first load. An empty store
// is seeded with DefaultTable; a failed read degrades to DefaultTable. Both
// cases end in StateReady and are reported through LastError.
func (a *Authorizer) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.state != StateUninitialized {
		a.mu.Unlock()
		return ErrAlreadyStarted
	}
	a.state = StateLoading
	gen := a.generation
	a.mu.Unlock()

	stop, err := a.store.Watch(ctx, a.onUpdate)
	if err != nil {
		a.logger.Warn("permission table watch failed", "err", err)
	} else {
		a.mu.Lock()
		if a.closed {
			a.mu.Unlock()
			stop()
			return ErrClosed
		}
		a.stopWatch = stop
		a.mu.Unlock()
	}

	table, exists, err := a.store.Load(ctx)
	switch {
	case err != nil:
		a.logger.Warn("permission table load failed, using defaults", "err", err)
		a.applyIfCurrent(gen, DefaultTable(), SourceDefault, &PersistenceError{Kind: ErrStoreRead, Err: err})
	case !exists:
		defaults := DefaultTable()
		if a.applyIfCurrent(gen, defaults, SourceDefault, nil) {
			if err := a.store.Save(ctx, defaults); err != nil {
				a.logger.Warn("permission table write-back failed", "err", err)
				a.setLastError(&PersistenceError{Kind: ErrStoreWrite, Err: err})
			}
		}
	default:
		a.applyIfCurrent(gen, Normalize(table), SourceStore, nil)
	}
	return nil
}

// Close detaches the live listener. The last snapshot stays readable.
func (a *Authorizer) Close() {
	a.mu.Lock()
	stop := a.stopWatch
	a.stopWatch = nil
	a.closed = true
	a.subs = map[int]func(Table){}
	a.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (a *Authorizer) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Ready is closed once the first table is in place.
func (a *Authorizer) Ready() <-chan struct{} {
	return a.ready
}

// LastError returns the most recent degraded load or write-back failure.
func (a *Authorizer) LastError() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastErr
}

// Snapshot returns a copy of the current table.
func (a *Authorizer) Snapshot() Table {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.table.Clone()
}

// Allowed answers against the current snapshot without waiting.
func (a *Authorizer) Allowed(p *Principal, path string) bool {
	a.mu.RLock()
	t := a.table
	a.mu.RUnlock()
	allowed := Allowed(t, p, path)
	a.observer.ObserveDecision(allowed)
	return allowed
}

// Check is the route guard variant of Allowed: it waits for the first load
// unless the answer does not depend on the table.
func (a *Authorizer) Check(ctx context.Context, p *Principal, path string) (bool, error) {
	if IsPublicPath(path) || p.IsSuperAdmin() {
		return a.Allowed(p, path), nil
	}
	select {
	case <-a.ready:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	return a.Allowed(p, path), nil
}

// Commit persists t as a whole. On failure the live table is untouched and
// the error matches ErrStoreWrite. A live update delivered while the save
// was in flight is newer than t and stays in place.
func (a *Authorizer) Commit(ctx context.Context, t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	normalized := Normalize(t)
	a.mu.RLock()
	gen := a.generation
	a.mu.RUnlock()
	if err := a.store.Save(ctx, normalized); err != nil {
		return &PersistenceError{Kind: ErrStoreWrite, Err: err}
	}
	a.applyIfCurrent(gen, normalized, SourceCommit, nil)
	return nil
}

// Subscribe registers fn for every table replacement. fn runs on the
// goroutine that delivered the update and must not block.
func (a *Authorizer) Subscribe(fn func(Table)) func() {
	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	a.mu.Unlock()
	return func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
}

func (a *Authorizer) onUpdate(u Update) {
	switch {
	case u.Err != nil:
		a.logger.Warn("permission table update failed, using defaults", "err", u.Err)
		a.setLastError(&PersistenceError{Kind: ErrStoreRead, Err: u.Err})
		a.apply(DefaultTable(), SourceDefault)
	case !u.Exists:
		a.apply(DefaultTable(), SourceDefault)
	default:
		a.apply(Normalize(u.Table), SourceLive)
	}
}

func (a *Authorizer) apply(t Table, source string) {
	a.mu.Lock()
	a.replaceLocked(t)
	subs := a.subscribersLocked()
	a.mu.Unlock()
	a.published(t, source, subs)
}

// applyIfCurrent applies t only when no live update arrived since gen was
// read, so a slow initial load never overwrites a newer delivery. It still
// marks the authorizer ready.
func (a *Authorizer) applyIfCurrent(gen uint64, t Table, source string, loadErr error) bool {
	a.mu.Lock()
	if loadErr != nil {
		a.lastErr = loadErr
	}
	if a.generation != gen {
		a.mu.Unlock()
		a.markReady()
		return false
	}
	a.replaceLocked(t)
	subs := a.subscribersLocked()
	a.mu.Unlock()
	a.published(t, source, subs)
	return true
}

func (a *Authorizer) replaceLocked(t Table) {
	a.table = t
	a.generation++
	a.state = StateReady
}

func (a *Authorizer) subscribersLocked() []func(Table) {
	subs := make([]func(Table), 0, len(a.subs))
	for _, fn := range a.subs {
		subs = append(subs, fn)
	}
	return subs
}

func (a *Authorizer) published(t Table, source string, subs []func(Table)) {
	a.markReady()
	a.observer.ObserveTableUpdate(source)
	for _, fn := range subs {
		fn(t.Clone())
	}
}

func (a *Authorizer) setLastError(err error) {
	a.mu.Lock()
	a.lastErr = err
	a.mu.Unlock()
}

func (a *Authorizer) markReady() {
	a.readyOnce.Do(func() { close(a.ready) })
}
