// Package progress provides a lightweight tracker that keeps aggregated
// scheduler counters (tasks submitted, executed, stolen, …) for a single
// pool run.  The tracker instance lives in the scheduler context – every
// component that receives the context can atomically update the counters via
// the Delta helper without requiring a global registry.

package progress

import (
	"context"
	"sync"
	"time"

	"github.com/aovestdipaperino/worksteal/internal/clock"
)

// Delta represents an incremental counter change emitted by the scheduler or
// one of its workers.  The fields are signed and therefore can be either
// positive (increment) or negative (decrement).
type Delta struct {
	Submitted int
	Injected  int
	Executed  int
	Stolen    int
	Faulted   int
	Pending   int
}

// WorkerCounters keeps the per-worker totals reported at shutdown.
type WorkerCounters struct {
	Executed int
	Stolen   int
}

// Progress keeps aggregated task counters for a scheduler run.  It is safe
// for concurrent use.
type Progress struct {
	// Identification – informative only, filled when the pool starts.
	PoolID    string
	StartedAt time.Time

	// Counters – modified via Update().
	SubmittedTasks int
	InjectedTasks  int
	ExecutedTasks  int
	StolenTasks    int
	FaultedTasks   int
	PendingTasks   int

	// Workers holds per-worker totals, indexed by worker index.
	Workers []WorkerCounters

	mu       sync.Mutex
	onChange func(Progress)
}

// New creates a tracker for a pool with the supplied number of workers.
func New(poolID string, workers int) *Progress {
	return &Progress{
		PoolID:    poolID,
		StartedAt: clock.Now(),
		Workers:   make([]WorkerCounters, workers),
	}
}

// Update applies the supplied delta to the tracker.  It is safe to call from
// multiple goroutines.  If an onChange callback has been registered it will
// be invoked with a copy of the updated tracker outside the critical section
// so that the callback can perform slow operations (e.g. JSON encoding, I/O)
// without blocking scheduler internals.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}

	p.mu.Lock()

	p.SubmittedTasks += d.Submitted
	p.InjectedTasks += d.Injected
	p.ExecutedTasks += d.Executed
	p.StolenTasks += d.Stolen
	p.FaultedTasks += d.Faulted
	p.PendingTasks += d.Pending

	snapshot := p.copyLocked()
	cb := p.onChange

	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// UpdateWorker applies a per-worker delta.  Executed, Stolen and Faulted are
// also added to the pool-wide totals so that Snapshot stays internally
// consistent.
func (p *Progress) UpdateWorker(index int, d Delta) {
	if p == nil {
		return
	}

	p.mu.Lock()

	if index >= 0 && index < len(p.Workers) {
		p.Workers[index].Executed += d.Executed
		p.Workers[index].Stolen += d.Stolen
	}
	p.ExecutedTasks += d.Executed
	p.StolenTasks += d.Stolen
	p.FaultedTasks += d.Faulted
	p.PendingTasks += d.Pending

	snapshot := p.copyLocked()
	cb := p.onChange

	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// copyLocked builds a snapshot field by field with its own Workers slice.
// The mutex is deliberately not copied so the snapshot starts unlocked and
// concurrent lockers never race with the copy.  Callers must hold the lock.
func (p *Progress) copyLocked() Progress {
	return Progress{
		PoolID:         p.PoolID,
		StartedAt:      p.StartedAt,
		SubmittedTasks: p.SubmittedTasks,
		InjectedTasks:  p.InjectedTasks,
		ExecutedTasks:  p.ExecutedTasks,
		StolenTasks:    p.StolenTasks,
		FaultedTasks:   p.FaultedTasks,
		PendingTasks:   p.PendingTasks,
		Workers:        append([]WorkerCounters(nil), p.Workers...),
	}
}

// Snapshot returns a copy of the tracker suitable for read-only inspection.
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.copyLocked()
}

// OnChange registers a callback that is invoked after every successful
// Update.  Passing nil disables the callback.  Only one callback can be
// active; subsequent calls overwrite the previous value.
func (p *Progress) OnChange(cb func(Progress)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}

// ----------------------------------------------------------------------------
// Context helpers
// ----------------------------------------------------------------------------

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithTracker embeds the supplied tracker in a derived context.
func WithTracker(ctx context.Context, tr *Progress) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, tr)
}

// FromContext extracts the Progress tracker from ctx.  It returns (tracker,
// ok).  The second return value is false when the context carries no tracker.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// UpdateCtx is a helper that looks up the tracker in ctx (if any) and applies
// the supplied delta.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
