package injector

import (
	"sync"

	"github.com/aovestdipaperino/worksteal/model"
)

// Queue is the global submission queue. Producers outside the worker pool
// publish here; workers consume it between emptying their local deque and
// attempting to steal from peers. The queue is FIFO, unbounded and never
// blocks a producer.
type Queue struct {
	mu    sync.Mutex
	items []*model.Task
}

// New creates an empty injector queue.
func New() *Queue {
	return &Queue{}
}

// Publish appends a task. It always succeeds.
func (q *Queue) Publish(task *model.Task) {
	q.mu.Lock()
	q.items = append(q.items, task)
	q.mu.Unlock()
}

// TryConsume removes and returns the oldest task, or (nil, false) when the
// queue is empty. It never blocks.
func (q *Queue) TryConsume() (*model.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	task := q.items[0]
	copy(q.items, q.items[1:])
	q.items[len(q.items)-1] = nil
	q.items = q.items[:len(q.items)-1]
	return task, true
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
