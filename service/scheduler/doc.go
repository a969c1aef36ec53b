// Package scheduler hosts the worker pool that executes submitted tasks with
// a work-stealing strategy.  Every worker owns a local deque it pops LIFO;
// when it runs dry it consumes the global injector and then steals FIFO
// batches from randomly chosen peers.  Workers that find no work anywhere
// park on a shared wake primitive until a submission or shutdown arrives.
package scheduler
