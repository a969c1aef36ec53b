package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrSubmitRejected is returned by Submit once shutdown has begun. The
	// rejected task is never enqueued and never executed.
	ErrSubmitRejected = errors.New("scheduler is shutting down, submission rejected")

	// ErrNilTask is returned when Submit is called without a runnable task.
	ErrNilTask = errors.New("task cannot be nil")

	// ErrNotStarted is returned by Shutdown when the service never started.
	ErrNotStarted = errors.New("scheduler is not started")
)

// ShutdownTimeoutError reports that the drain did not complete within the
// allowed bound. Workers lists the indexes of the workers that had not
// terminated when the bound elapsed, typically because a task is stuck.
type ShutdownTimeoutError struct {
	Workers []int
}

func (e *ShutdownTimeoutError) Error() string {
	return fmt.Sprintf("shutdown timed out, workers still running: %v", e.Workers)
}
