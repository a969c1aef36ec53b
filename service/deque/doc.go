// Package deque implements the per-worker local task queue: LIFO for the
// owning worker, FIFO batch removal for stealing peers. It is safe for one
// owner and many concurrent thieves.
package deque
