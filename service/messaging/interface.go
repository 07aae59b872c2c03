// Package messaging defines the queue abstraction the kernel uses to ship
// transition events to listeners without holding kernel locks.
package messaging

import (
	"context"
)

// Vendor represents the name of a queue implementation
type Vendor string

const (
	VendorMemory Vendor = "memory"
	VendorFs     Vendor = "fs"
	// VendorNone disables event delivery.
	VendorNone Vendor = "none"
)

// Queue represents an abstract message queue for any payload type
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message from the queue; implementations that
	// cannot block return a nil message when the queue is empty.
	Consume(ctx context.Context) (Message[T], error)
}

// Message represents a message retrieved from a queue
type Message[T any] interface {
	// T returns the payload of this message
	T() *T

	// Ack acknowledges successful processing of this message
	Ack() error

	// Nack indicates failure in processing this message
	Nack(err error) error
}
