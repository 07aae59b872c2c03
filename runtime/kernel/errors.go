package kernel

import (
	"errors"

	"github.com/viant/rtk/runtime/queue"
)

var (
	// ErrEmptyQueue is returned by Step when no process is ready.
	ErrEmptyQueue = queue.ErrEmptyQueue

	// ErrNotFound is returned when no live process has the supplied ID.
	ErrNotFound = queue.ErrNotFound

	// ErrInvalidTransition is returned when the process cannot take the
	// requested transition from the queue it is in (e.g. Block on a running
	// process, Unblock on a semaphore waiter).
	ErrInvalidTransition = errors.New("kernel: invalid transition")

	// ErrNoProcess is returned when a blocking call is made from a context
	// that does not belong to a running process.
	ErrNoProcess = errors.New("kernel: no running process in context")

	// ErrDeleted is returned to an execution context whose process was deleted.
	ErrDeleted = errors.New("kernel: process deleted")

	// ErrInvalidClass is returned for an unknown priority class.
	ErrInvalidClass = errors.New("kernel: invalid priority class")

	// ErrNilEntry is returned when a process is created without an entry point.
	ErrNilEntry = errors.New("kernel: nil entry point")

	// ErrInvalidValue is returned for a negative initial semaphore value.
	ErrInvalidValue = errors.New("kernel: invalid semaphore value")

	// ErrInconsistent reports a violated kernel invariant.
	ErrInconsistent = errors.New("kernel: inconsistent state")
)
