package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aovestdipaperino/worksteal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		config    Config
		expectErr bool
	}{
		{
			name:      "defaults are valid",
			config:    DefaultConfig(),
			expectErr: false,
		},
		{
			name:      "zero workers",
			config:    Config{WorkerCount: 0, StealBatch: 4, StealAttempts: 2},
			expectErr: true,
		},
		{
			name:      "zero steal batch",
			config:    Config{WorkerCount: 2, StealBatch: 0, StealAttempts: 2},
			expectErr: true,
		},
		{
			name:      "zero steal attempts",
			config:    Config{WorkerCount: 2, StealBatch: 4, StealAttempts: 0},
			expectErr: true,
		},
		{
			name:      "negative shutdown timeout",
			config:    Config{WorkerCount: 2, StealBatch: 4, StealAttempts: 2, ShutdownTimeout: -time.Second},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

// TestService_ExactlyOnceExecution submits N tasks and verifies exactly N
// executions happen in total, with nothing lost and nothing duplicated.
func TestService_ExactlyOnceExecution(t *testing.T) {
	for _, total := range []int{0, 1, 100, 10_000} {
		t.Run(fmt.Sprintf("%d tasks", total), func(t *testing.T) {
			service, err := New(WithWorkers(4))
			require.NoError(t, err)

			ctx := context.Background()
			require.NoError(t, service.Start(ctx))

			var executed atomic.Int64
			for i := 0; i < total; i++ {
				_, err := service.SubmitFunc(ctx, func(ctx context.Context) {
					executed.Add(1)
				})
				require.NoError(t, err)
			}

			require.NoError(t, service.Shutdown(ctx))

			assert.Equal(t, int64(total), executed.Load())
			snapshot := service.Tracker().Snapshot()
			assert.Equal(t, total, snapshot.SubmittedTasks)
			assert.Equal(t, total, snapshot.ExecutedTasks)
			assert.Equal(t, 0, snapshot.PendingTasks)
		})
	}
}

func TestService_SubmitAfterShutdownRejected(t *testing.T) {
	service, err := New(WithWorkers(2))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, service.Start(ctx))
	require.NoError(t, service.Shutdown(ctx))

	var executed atomic.Bool
	task := model.NewTask(func(ctx context.Context) {
		executed.Store(true)
	})
	err = service.Submit(ctx, task)
	assert.ErrorIs(t, err, ErrSubmitRejected)

	time.Sleep(50 * time.Millisecond)
	assert.False(t, executed.Load(), "rejected task must never run")
	assert.Equal(t, 0, service.Tracker().Snapshot().SubmittedTasks)
}

// TestService_AcceptedSubmitsAlwaysExecute races external submitters against
// shutdown: every Submit that returned nil must have executed by the time
// Shutdown returns, even when the submission lands right as draining begins.
func TestService_AcceptedSubmitsAlwaysExecute(t *testing.T) {
	service, err := New(WithWorkers(2))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, service.Start(ctx))

	var accepted, executed atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, err := service.SubmitFunc(ctx, func(ctx context.Context) {
					executed.Add(1)
				})
				if err != nil {
					assert.ErrorIs(t, err, ErrSubmitRejected)
					return
				}
				accepted.Add(1)
			}
		}()
	}

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, service.Shutdown(ctx))
	wg.Wait()

	assert.Equal(t, accepted.Load(), executed.Load())
}

func TestService_SubmitNilTask(t *testing.T) {
	service, err := New(WithWorkers(1))
	require.NoError(t, err)
	require.NoError(t, service.Start(context.Background()))
	defer service.Shutdown(context.Background())

	assert.ErrorIs(t, service.Submit(context.Background(), nil), ErrNilTask)
	assert.ErrorIs(t, service.Submit(context.Background(), &model.Task{ID: "no-func"}), ErrNilTask)
	_, err = service.SubmitFunc(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilTask)
}

func TestService_ShutdownBeforeStart(t *testing.T) {
	service, err := New(WithWorkers(1))
	require.NoError(t, err)
	assert.ErrorIs(t, service.Shutdown(context.Background()), ErrNotStarted)
}

// TestService_ShutdownIdleReturnsQuickly verifies shutdown with all workers
// parked completes without waiting on anything.
func TestService_ShutdownIdleReturnsQuickly(t *testing.T) {
	service, err := New(WithWorkers(4))
	require.NoError(t, err)
	require.NoError(t, service.Start(context.Background()))

	// Let the workers reach the parked state.
	time.Sleep(20 * time.Millisecond)

	started := time.Now()
	require.NoError(t, service.Shutdown(context.Background()))
	assert.Less(t, time.Since(started), time.Second)
	assert.Equal(t, 0, service.Tracker().Snapshot().PendingTasks)
}

// TestService_LocalSubmitIsLIFO checks that tasks submitted from inside a
// running task land on the executing worker's own deque and are popped
// newest first.
func TestService_LocalSubmitIsLIFO(t *testing.T) {
	service, err := New(WithWorkers(1))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, service.Start(ctx))

	var mu sync.Mutex
	var order []string

	// Shutdown must not begin before the children are on the deque, so the
	// parent signals once its submissions are done.
	submitted := make(chan struct{})
	_, err = service.SubmitFunc(ctx, func(taskCtx context.Context) {
		defer close(submitted)
		for _, name := range []string{"T1", "T2", "T3"} {
			name := name
			task := model.NewTask(func(ctx context.Context) {
				mu.Lock()
				order = append(order, name)
				mu.Unlock()
			})
			task.ID = name
			if err := service.Submit(taskCtx, task); err != nil {
				t.Errorf("submit %s: %v", name, err)
			}
		}
	})
	require.NoError(t, err)
	<-submitted
	require.NoError(t, service.Shutdown(ctx))

	assert.Equal(t, []string{"T3", "T2", "T1"}, order)

	snapshot := service.Tracker().Snapshot()
	// Only the parent went through the injector; the children were pushed
	// onto the worker's own deque.
	assert.Equal(t, 1, snapshot.InjectedTasks)
	assert.Equal(t, 4, snapshot.ExecutedTasks)
}

// TestService_StealingMovesWork pins one worker with a blocking task whose
// children can only be executed by the stealing peer.
func TestService_StealingMovesWork(t *testing.T) {
	const children = 8

	service, err := New(WithWorkers(2), WithStealBatch(2))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, service.Start(ctx))

	var executed atomic.Int64
	// The parent signals once every child has run on the peer; Shutdown
	// waits for that so the children are never rejected mid-submission.
	parentDone := make(chan struct{})
	_, err = service.SubmitFunc(ctx, func(taskCtx context.Context) {
		defer close(parentDone)
		for i := 0; i < children; i++ {
			if _, err := service.SubmitFunc(taskCtx, func(ctx context.Context) {
				executed.Add(1)
			}); err != nil {
				t.Errorf("submit child: %v", err)
			}
		}
		// Hold this worker until a peer has stolen and executed every
		// child.
		deadline := time.Now().Add(5 * time.Second)
		for executed.Load() < children {
			if time.Now().After(deadline) {
				t.Error("children were not stolen in time")
				return
			}
			time.Sleep(time.Millisecond)
		}
	})
	require.NoError(t, err)
	<-parentDone
	require.NoError(t, service.Shutdown(ctx))

	assert.Equal(t, int64(children), executed.Load())
	snapshot := service.Tracker().Snapshot()
	assert.Equal(t, children, snapshot.StolenTasks)
	assert.Equal(t, children+1, snapshot.ExecutedTasks)
}

// TestService_PanicIsolation verifies a faulting task degrades nothing but
// its own iteration.
func TestService_PanicIsolation(t *testing.T) {
	const wellBehaved = 100

	var faults []string
	var faultMu sync.Mutex
	service, err := New(
		WithWorkers(2),
		WithFaultListeners(func(task *model.Task, recovered interface{}) {
			faultMu.Lock()
			faults = append(faults, fmt.Sprintf("%s: %v", task.ID, recovered))
			faultMu.Unlock()
		}),
	)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, service.Start(ctx))

	task := model.NewTask(func(ctx context.Context) {
		panic("poison")
	})
	task.ID = "bad-task"
	require.NoError(t, service.Submit(ctx, task))

	var executed atomic.Int64
	for i := 0; i < wellBehaved; i++ {
		_, err := service.SubmitFunc(ctx, func(ctx context.Context) {
			executed.Add(1)
		})
		require.NoError(t, err)
	}

	require.NoError(t, service.Shutdown(ctx))

	assert.Equal(t, int64(wellBehaved), executed.Load())
	snapshot := service.Tracker().Snapshot()
	assert.Equal(t, wellBehaved+1, snapshot.ExecutedTasks)
	assert.Equal(t, 1, snapshot.FaultedTasks)
	assert.Equal(t, []string{"bad-task: poison"}, faults)
}

func TestService_ShutdownTimeoutReportsStuckWorkers(t *testing.T) {
	service, err := New(WithWorkers(2), WithShutdownTimeout(100*time.Millisecond))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, service.Start(ctx))

	gate := make(chan struct{})
	running := make(chan struct{})
	_, err = service.SubmitFunc(ctx, func(ctx context.Context) {
		close(running)
		<-gate
	})
	require.NoError(t, err)
	<-running

	err = service.Shutdown(ctx)
	var timeoutErr *ShutdownTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Len(t, timeoutErr.Workers, 1)

	// Release the stuck task; the second Shutdown observes the completed
	// drain.
	close(gate)
	require.NoError(t, service.Shutdown(ctx))
}

func TestService_DoubleStart(t *testing.T) {
	service, err := New(WithWorkers(1))
	require.NoError(t, err)
	require.NoError(t, service.Start(context.Background()))
	assert.Error(t, service.Start(context.Background()))
	require.NoError(t, service.Shutdown(context.Background()))
}
