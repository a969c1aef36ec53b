package worksteal

import (
	"context"

	"github.com/aovestdipaperino/worksteal/model"
	"github.com/aovestdipaperino/worksteal/progress"
	"github.com/aovestdipaperino/worksteal/service/scheduler"
)

// Service is the high-level façade over the work-stealing pool. It owns the
// scheduler and exposes the submit / shutdown contract to host applications.
type Service struct {
	config           *Config
	schedulerOptions []scheduler.Option
	scheduler        *scheduler.Service
}

// New creates a pool service. The configuration is validated eagerly so that
// a misconfigured pool fails at construction rather than at first use.
func New(options ...Option) (*Service, error) {
	s := &Service{config: DefaultConfig()}
	for _, option := range options {
		option(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	opts := append([]scheduler.Option{scheduler.WithConfig(s.config.Scheduler)}, s.schedulerOptions...)
	sched, err := scheduler.New(opts...)
	if err != nil {
		return nil, err
	}
	s.scheduler = sched
	return s, nil
}

// Scheduler exposes the underlying scheduler service.
func (s *Service) Scheduler() *scheduler.Service {
	return s.scheduler
}

// Start spawns the worker pool.
func (s *Service) Start(ctx context.Context) error {
	return s.scheduler.Start(ctx)
}

// Submit enqueues a task. See scheduler.Service.Submit for the placement
// rules.
func (s *Service) Submit(ctx context.Context, task *model.Task) error {
	return s.scheduler.Submit(ctx, task)
}

// SubmitFunc wraps fn in a new task and submits it.
func (s *Service) SubmitFunc(ctx context.Context, fn model.Func) (*model.Task, error) {
	return s.scheduler.SubmitFunc(ctx, fn)
}

// Shutdown drains the pool and blocks until every worker has exited or the
// configured timeout elapses.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.scheduler.Shutdown(ctx)
}

// Progress returns a point-in-time snapshot of the pool counters.
func (s *Service) Progress() progress.Progress {
	return s.scheduler.Tracker().Snapshot()
}
