package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aovestdipaperino/worksteal/internal/idgen"
	"github.com/aovestdipaperino/worksteal/model"
	"github.com/aovestdipaperino/worksteal/progress"
	"github.com/aovestdipaperino/worksteal/service/injector"
	"github.com/aovestdipaperino/worksteal/tracing"
)

// Config represents scheduler service configuration
type Config struct {
	// WorkerCount is the number of workers executing tasks
	WorkerCount int

	// StealBatch is the maximum number of tasks taken from a victim in a
	// single steal
	StealBatch int

	// StealAttempts is the number of full victim rounds a worker tries
	// before parking
	StealAttempts int

	// ShutdownTimeout bounds the drain on Shutdown; zero waits forever
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		WorkerCount:   runtime.NumCPU(),
		StealBatch:    4,
		StealAttempts: 2,
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c.WorkerCount <= 0 {
		return fmt.Errorf("workerCount must be > 0")
	}
	if c.StealBatch <= 0 {
		return fmt.Errorf("stealBatch must be > 0")
	}
	if c.StealAttempts <= 0 {
		return fmt.Errorf("stealAttempts must be > 0")
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdownTimeout must not be negative")
	}
	return nil
}

// FaultListener is invoked after a task panic has been recovered. Listeners
// run on the worker goroutine that executed the task and must not block.
type FaultListener func(task *model.Task, recovered interface{})

// Service owns a fixed set of workers, their local deques and the global
// injector queue. The worker set is created once at Start and never grows or
// shrinks.
type Service struct {
	config         Config
	poolID         string
	injector       *injector.Queue
	workers        []*worker
	tracker        *progress.Progress
	faultListeners []FaultListener

	// pending counts tasks enqueued anywhere (deques plus injector) that no
	// worker has taken yet. It tells idle workers apart from workers that
	// merely lost a steal race.
	pending atomic.Int64

	// draining flips under drainMu while Submit holds the read side across
	// its check-and-enqueue, so an accepted task is always enqueued before
	// the flag is observable and the drain cannot miss it.
	drainMu  sync.RWMutex
	draining atomic.Bool
	started  atomic.Bool
	workerWg sync.WaitGroup

	// park/wake primitive shared by all workers. wakeSeq is bumped under
	// parkMu on every submission and on shutdown so a worker that read its
	// token before the wake never sleeps through it.
	parkMu   sync.Mutex
	parkCond *sync.Cond
	wakeSeq  uint64
}

// New creates a new scheduler service
func New(options ...Option) (*Service, error) {
	s := &Service{
		config:   DefaultConfig(),
		injector: injector.New(),
	}
	for _, opt := range options {
		opt(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if s.poolID == "" {
		s.poolID = idgen.New()
	}
	if s.tracker == nil {
		s.tracker = progress.New(s.poolID, s.config.WorkerCount)
	}
	s.parkCond = sync.NewCond(&s.parkMu)
	return s, nil
}

// Tracker returns the progress tracker for this pool.
func (s *Service) Tracker() *progress.Progress {
	return s.tracker
}

// Start spawns the worker goroutines. The supplied context is propagated to
// every task; cancelling it stops the workers without draining.
func (s *Service) Start(ctx context.Context) error {
	if s.draining.Load() {
		return fmt.Errorf("scheduler is shut down")
	}
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("scheduler already started")
	}
	ctx = progress.WithTracker(ctx, s.tracker)
	for i := 0; i < s.config.WorkerCount; i++ {
		w := newWorker(i, s)
		s.workers = append(s.workers, w)
	}
	// Workers steal from each other, so the full set must exist before any
	// of them runs.
	for _, w := range s.workers {
		s.workerWg.Add(1)
		go w.run(ctx)
	}
	return nil
}

// Submit enqueues a task for execution. It never blocks. Calls made from
// inside a running task push onto the executing worker's own deque (owner
// end, LIFO); calls from any other goroutine publish to the global injector
// so that the single-owner contract on every deque is preserved. Once
// shutdown has begun Submit fails with ErrSubmitRejected and the task is
// guaranteed never to run; conversely a nil return guarantees the task is
// enqueued ahead of the drain and will execute.
func (s *Service) Submit(ctx context.Context, task *model.Task) (err error) {
	ctx, span := tracing.StartSpan(ctx, "scheduler.Submit", "PRODUCER")
	defer func() { tracing.EndSpan(span, err) }()
	if task == nil || task.Func == nil {
		err = ErrNilTask
		return err
	}
	span.WithAttributes(map[string]string{"task.id": task.ID, "pool.id": s.poolID})

	s.drainMu.RLock()
	if s.draining.Load() {
		s.drainMu.RUnlock()
		err = ErrSubmitRejected
		return err
	}
	s.pending.Add(1)
	if w := workerFromContext(ctx); w != nil && w.service == s {
		w.deque.Push(task)
		s.tracker.Update(progress.Delta{Submitted: 1, Pending: 1})
	} else {
		s.injector.Publish(task)
		s.tracker.Update(progress.Delta{Submitted: 1, Injected: 1, Pending: 1})
	}
	s.drainMu.RUnlock()
	s.wakeAll()
	return nil
}

// SubmitFunc wraps fn in a new task and submits it.
func (s *Service) SubmitFunc(ctx context.Context, fn model.Func) (*model.Task, error) {
	if fn == nil {
		return nil, ErrNilTask
	}
	task := model.NewTask(fn)
	if err := s.Submit(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Shutdown stops the scheduler: no new submissions are accepted, queued work
// is drained (executed) and the call blocks until every worker has exited.
// When the configured ShutdownTimeout (or the context deadline) elapses
// first, a ShutdownTimeoutError naming the unresponsive workers is returned.
// Shutdown is idempotent; concurrent calls all wait for the same drain.
func (s *Service) Shutdown(ctx context.Context) (err error) {
	_, span := tracing.StartSpan(ctx, "scheduler.Shutdown", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	if !s.started.Load() {
		return ErrNotStarted
	}
	s.drainMu.Lock()
	s.draining.Store(true)
	s.drainMu.Unlock()
	s.wakeAll()

	done := make(chan struct{})
	go func() {
		s.workerWg.Wait()
		close(done)
	}()

	var timeout <-chan time.Time
	if s.config.ShutdownTimeout > 0 {
		timer := time.NewTimer(s.config.ShutdownTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
	case <-timeout:
	}
	err = &ShutdownTimeoutError{Workers: s.runningWorkers()}
	return err
}

// runningWorkers returns the indexes of workers that have not terminated.
func (s *Service) runningWorkers() []int {
	var running []int
	for _, w := range s.workers {
		if !w.done.Load() {
			running = append(running, w.index)
		}
	}
	return running
}

func (s *Service) notifyFault(task *model.Task, recovered interface{}) {
	for _, listener := range s.faultListeners {
		listener(task, recovered)
	}
}

// wakeAll bumps the wake sequence and unparks every idle worker.
func (s *Service) wakeAll() {
	s.parkMu.Lock()
	s.wakeSeq++
	s.parkCond.Broadcast()
	s.parkMu.Unlock()
}

// wakeToken samples the current wake sequence. A worker takes a token, then
// re-checks all work sources; park is a no-op if anything was submitted
// after the token was taken.
func (s *Service) wakeToken() uint64 {
	s.parkMu.Lock()
	defer s.parkMu.Unlock()
	return s.wakeSeq
}

// park blocks the calling worker until the wake sequence moves past token.
func (s *Service) park(token uint64) {
	s.parkMu.Lock()
	for s.wakeSeq == token {
		s.parkCond.Wait()
	}
	s.parkMu.Unlock()
}
