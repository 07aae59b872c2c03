// Package idgen provides the identifier sources used by the kernel: a
// monotonic integer Sequence for process and semaphore identifiers, and a
// UUID generator for opaque identifiers (kernel instances, queued messages).
// Both can be stubbed in tests.
package idgen
