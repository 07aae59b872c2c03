package queue

import "errors"

var (
	// ErrEmptyQueue is returned by Dequeue when the queue holds no PCB.
	ErrEmptyQueue = errors.New("queue: empty")

	// ErrNotFound is returned when no PCB with the requested ID is queued, or
	// when an insert position lies beyond the end of the queue.
	ErrNotFound = errors.New("queue: not found")

	// ErrCorrupted reports a broken queue invariant.
	ErrCorrupted = errors.New("queue: corrupted")
)
