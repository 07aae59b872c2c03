package event

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Listener drains a publisher's queue in its own goroutine and hands every
// event to the handler.
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	poll      time.Duration
	cancel    context.CancelFunc
	done      chan struct{}
	once      sync.Once
}

// NewListener creates a listener; poll is the back-off used when the queue
// has nothing to deliver.
func NewListener[T any](publisher *Publisher[T], handler func(*Event[T]), poll time.Duration) *Listener[T] {
	if poll <= 0 {
		poll = 20 * time.Millisecond
	}
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		poll:      poll,
		done:      make(chan struct{}),
	}
}

// Start begins consuming in the background
func (l *Listener[T]) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	go func() {
		defer close(l.done)
		for {
			event, err := l.publisher.Consume(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("event listener: consume failed", "error", err)
			}
			if event == nil {
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.poll):
				}
				continue
			}
			l.handler(event)
		}
	}()
}

// Stop cancels the listener and waits for its goroutine to exit
func (l *Listener[T]) Stop() {
	l.once.Do(func() {
		if l.cancel == nil {
			close(l.done)
			return
		}
		l.cancel()
		<-l.done
	})
}
