package scheduler

import (
	"time"

	"github.com/aovestdipaperino/worksteal/progress"
)

// Option customises a scheduler Service.
type Option func(*Service)

// WithWorkers sets the number of worker goroutines
func WithWorkers(count int) Option {
	return func(s *Service) {
		s.config.WorkerCount = count
	}
}

// WithStealBatch sets the maximum number of tasks taken in a single steal
func WithStealBatch(size int) Option {
	return func(s *Service) {
		s.config.StealBatch = size
	}
}

// WithStealAttempts sets the number of victim rounds tried before parking
func WithStealAttempts(attempts int) Option {
	return func(s *Service) {
		s.config.StealAttempts = attempts
	}
}

// WithShutdownTimeout bounds the Shutdown drain; zero waits forever
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		s.config.ShutdownTimeout = timeout
	}
}

// WithPoolID sets an explicit pool identifier instead of a generated one
func WithPoolID(id string) Option {
	return func(s *Service) {
		s.poolID = id
	}
}

// WithTracker sets a caller-owned progress tracker
func WithTracker(tracker *progress.Progress) Option {
	return func(s *Service) {
		s.tracker = tracker
	}
}

// WithFaultListeners registers callbacks invoked after every recovered task
// panic.
func WithFaultListeners(fns ...FaultListener) Option {
	return func(s *Service) {
		if len(fns) == 0 {
			return
		}
		s.faultListeners = append(s.faultListeners, fns...)
	}
}

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}
