package event

import (
	"context"

	"github.com/viant/rtk/service/messaging"
)

// Publisher ships typed events onto a queue
type Publisher[T any] struct {
	queue messaging.Queue[Event[T]]
}

// NewPublisher creates a publisher over the supplied queue
func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{queue: queue}
}

// Publish adds the event to the queue
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	return p.queue.Publish(ctx, event)
}

// Consume returns the next event, or nil when a non-blocking queue is empty
func (p *Publisher[T]) Consume(ctx context.Context) (*Event[T], error) {
	msg, err := p.queue.Consume(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}
