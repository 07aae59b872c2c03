// Package progress keeps aggregated kernel activity counters (processes
// created, dispatched, blocked, woken, ...) so that demos, tests and the
// logging listener can observe scheduling without walking kernel queues.
package progress
