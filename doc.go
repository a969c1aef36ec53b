// Package worksteal provides an embeddable work-stealing task scheduler.
//
// A fixed pool of workers each owns a local double-ended queue: the owner
// pops newest-first for cache locality while idle peers steal oldest-first
// batches from the other end.  Work submitted from outside the pool enters
// through a global injector queue so that every deque keeps a single owner.
//
// End-users typically interact with the pool via the high-level Service
// façade exposed by the root package:
//
//	srv, _ := worksteal.New(worksteal.WithWorkers(4))
//	_ = srv.Start(ctx)
//	_, _ = srv.SubmitFunc(ctx, func(ctx context.Context) { work() })
//	_ = srv.Shutdown(ctx)
//
// Shutdown drains every queue: all submitted tasks are executed exactly once
// before the workers exit.  For more details see the individual sub-packages.
package worksteal
