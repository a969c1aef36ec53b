// Package model contains the in-memory task representation shared by the
// scheduler, the per-worker deques and the global injector. A task is a
// closure plus an opaque identity; it carries no state of its own and ceases
// to exist after execution.
package model
