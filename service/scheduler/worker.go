package scheduler

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/aovestdipaperino/worksteal/internal/clock"
	"github.com/aovestdipaperino/worksteal/model"
	"github.com/aovestdipaperino/worksteal/progress"
	"github.com/aovestdipaperino/worksteal/service/deque"
	"github.com/aovestdipaperino/worksteal/tracing"
)

// stealBackoff is the pause before re-probing when queued work exists but
// every attempt to take it lost a race.
const stealBackoff = 50 * time.Microsecond

type worker struct {
	index   int
	service *Service
	deque   *deque.Deque
	rand    *rand.Rand
	done    atomic.Bool
}

// taskFaultError carries a recovered task panic into the tracing span.
type taskFaultError struct {
	taskID    string
	recovered interface{}
}

func (e *taskFaultError) Error() string {
	return fmt.Sprintf("task %s panicked: %v", e.taskID, e.recovered)
}

func newWorker(index int, service *Service) *worker {
	return &worker{
		index:   index,
		service: service,
		deque:   deque.New(),
		rand:    rand.New(rand.NewSource(clock.Now().UnixNano() + int64(index))),
	}
}

type workerKeyT struct{}

var workerKey workerKeyT

func withWorker(ctx context.Context, w *worker) context.Context {
	return context.WithValue(ctx, workerKey, w)
}

// workerFromContext returns the worker executing the current task, if any.
func workerFromContext(ctx context.Context) *worker {
	if ctx == nil {
		return nil
	}
	w, _ := ctx.Value(workerKey).(*worker)
	return w
}

// run drives the worker state machine: execute local work, then injected
// work, then steal; park when nothing is queued anywhere; exit once shutdown
// has begun and every queue is empty.
func (w *worker) run(ctx context.Context) {
	defer w.service.workerWg.Done()
	defer w.done.Store(true)

	for {
		// Running-local: the own deque first, newest task first.
		if task, ok := w.deque.Pop(); ok {
			w.service.pending.Add(-1)
			w.execute(ctx, task, false)
			continue
		}

		// The global injector next, oldest submission first.
		if task, ok := w.service.injector.TryConsume(); ok {
			w.service.pending.Add(-1)
			w.execute(ctx, task, false)
			continue
		}

		// Stealing: bounded rounds over randomly permuted victims.
		if batch, ok := w.stealRound(); ok {
			for _, task := range batch {
				w.execute(ctx, task, true)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		if w.service.draining.Load() && w.service.pending.Load() == 0 {
			return
		}

		// Queued work exists but every take lost a race; re-probe shortly
		// instead of parking.
		if w.service.pending.Load() > 0 {
			time.Sleep(stealBackoff)
			continue
		}

		// Idle: take a wake token, re-check once, then park. Anything
		// submitted after the token was taken invalidates it, so the final
		// check cannot miss a wakeup.
		token := w.service.wakeToken()
		if w.service.pending.Load() > 0 || w.service.draining.Load() {
			continue
		}
		w.service.park(token)
	}
}

// stealRound attempts to steal a batch from a random victim, retrying over a
// bounded number of full permutations. Transient lock contention moves on to
// the next victim.
func (w *worker) stealRound() ([]*model.Task, bool) {
	workers := w.service.workers
	if len(workers) < 2 {
		return nil, false
	}
	for attempt := 0; attempt < w.service.config.StealAttempts; attempt++ {
		for _, victim := range w.rand.Perm(len(workers)) {
			if victim == w.index {
				continue
			}
			batch, outcome := workers[victim].deque.Steal(w.service.config.StealBatch)
			if outcome == deque.StealSuccess {
				w.service.pending.Add(-int64(len(batch)))
				return batch, true
			}
			// StealRetry and StealEmpty both move on to the next victim.
		}
	}
	return nil, false
}

// execute runs a single task to completion. A panic inside the task is
// isolated to this iteration: it is logged, reported to fault listeners and
// counted, but the worker and the rest of the pool keep running.
func (w *worker) execute(ctx context.Context, task *model.Task, stolen bool) {
	taskCtx, span := tracing.StartSpan(withWorker(ctx, w), "task.run", "CONSUMER")
	span.WithAttributes(map[string]string{"task.id": task.ID})

	delta := progress.Delta{Executed: 1, Pending: -1}
	if stolen {
		delta.Stolen = 1
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("worker %d: task %s panicked: %v\n%s", w.index, task.ID, r, debug.Stack())
			delta.Faulted = 1
			w.service.notifyFault(task, r)
			tracing.EndSpan(span, &taskFaultError{taskID: task.ID, recovered: r})
		} else {
			tracing.EndSpan(span, nil)
		}
		w.service.tracker.UpdateWorker(w.index, delta)
	}()

	task.Func(taskCtx)
}
