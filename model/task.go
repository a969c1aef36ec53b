package model

import (
	"context"
	"time"

	"github.com/aovestdipaperino/worksteal/internal/clock"
	"github.com/aovestdipaperino/worksteal/internal/idgen"
)

// Func is the unit of deferred work accepted by the scheduler. It receives
// the context of the worker that ultimately runs it; the context is cancelled
// only when the whole pool stops, individual tasks are not cancellable.
type Func func(ctx context.Context)

// Task wraps a Func with an opaque identity. A task is immutable once
// created and is executed exactly once, either by the worker that owns the
// queue it was pushed to or by a stealing peer.
type Task struct {
	ID        string
	Func      Func
	CreatedAt time.Time
}

// NewTask creates a task for the supplied function.
func NewTask(fn Func) *Task {
	return &Task{
		ID:        idgen.New(),
		Func:      fn,
		CreatedAt: clock.Now(),
	}
}
