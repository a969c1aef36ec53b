// Package injector holds the pool-wide submission queue that decouples
// external producers from the per-worker deques: only a worker mutates the
// owner end of its own deque, so work submitted from outside the pool enters
// through the injector and is picked up by whichever worker runs dry first.
package injector
