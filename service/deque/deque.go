package deque

import (
	"sync"

	"github.com/aovestdipaperino/worksteal/model"
)

// Outcome classifies the result of a steal attempt. A transient loss of the
// race for the deque lock is reported as StealRetry so that thieves can
// distinguish "try again" from "nothing there".
type Outcome int

const (
	// StealSuccess indicates at least one task was stolen.
	StealSuccess Outcome = iota

	// StealEmpty indicates the deque was observed empty.
	StealEmpty

	// StealRetry indicates the attempt raced with the owner or another
	// thief and should be retried or treated as empty by the caller.
	StealRetry
)

// Deque is a double-ended task queue with one privileged owner end and one
// contended thief end. The owning worker pushes and pops at the back (LIFO,
// preserving locality for dependent task chains); thieves take batches from
// the front (FIFO, so the oldest work migrates first). A mutex guards the
// slice; steals are infrequent relative to local pops, so contention stays
// low without a lock-free ring buffer.
type Deque struct {
	mu    sync.Mutex
	items []*model.Task
}

// New creates an empty deque.
func New() *Deque {
	return &Deque{}
}

// Push adds a task at the owner end. Only the owning worker (or the producer
// seeding that worker before it starts) may call Push.
func (d *Deque) Push(task *model.Task) {
	d.mu.Lock()
	d.items = append(d.items, task)
	d.mu.Unlock()
}

// Pop removes and returns the most recently pushed task. Only the owning
// worker may call Pop.
func (d *Deque) Pop() (*model.Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.items)
	if n == 0 {
		return nil, false
	}
	task := d.items[n-1]
	d.items[n-1] = nil
	d.items = d.items[:n-1]
	return task, true
}

// Steal removes up to max tasks from the thief end and returns them oldest
// first. The batch is handed to the thief for direct execution; stolen tasks
// are never re-inserted into any deque, which keeps the exactly-once
// guarantee trivially true. Thieves only try the lock: a failed attempt is a
// transient condition (the owner always wins) reported as StealRetry.
func (d *Deque) Steal(max int) ([]*model.Task, Outcome) {
	if max <= 0 {
		return nil, StealEmpty
	}
	if !d.mu.TryLock() {
		return nil, StealRetry
	}
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return nil, StealEmpty
	}
	if max > len(d.items) {
		max = len(d.items)
	}
	batch := make([]*model.Task, max)
	copy(batch, d.items[:max])
	remaining := len(d.items) - max
	copy(d.items, d.items[max:])
	for i := remaining; i < len(d.items); i++ {
		d.items[i] = nil
	}
	d.items = d.items[:remaining]
	return batch, StealSuccess
}

// Len returns the number of queued tasks.
func (d *Deque) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}
