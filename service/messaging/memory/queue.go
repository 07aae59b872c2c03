package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/rtk/internal/clock"
	"github.com/viant/rtk/internal/idgen"
	"github.com/viant/rtk/service/messaging"
)

// Config for memory queue implementation
type Config struct {
	MaxRetries  int
	DeadLetter  bool
	QueueBuffer int
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		DeadLetter:  true,
		QueueBuffer: 100,
	}
}

// Message implements messaging.Message for the in-memory queue
type Message[T any] struct {
	id         string
	payload    T
	queue      *Queue[T]
	retryCount int
	mu         sync.Mutex
	processed  bool
	createdAt  time.Time
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.payload
}

// ID returns the message identifier
func (m *Message[T]) ID() string {
	return m.id
}

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.id)
	}
	m.processed = true
	return nil
}

// Nack requeues the message while it is under the retry limit, otherwise it
// moves to the dead letter list (when enabled).
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.id)
	}
	m.processed = true
	m.retryCount++
	if m.retryCount <= m.queue.config.MaxRetries {
		retry := &Message[T]{
			id:         m.id,
			payload:    m.payload,
			queue:      m.queue,
			retryCount: m.retryCount,
			createdAt:  clock.Now(),
		}
		select {
		case m.queue.messages <- retry:
			return nil
		default:
		}
	}
	if m.queue.config.DeadLetter {
		m.queue.dlqMu.Lock()
		m.queue.dlq = append(m.queue.dlq, m)
		m.queue.dlqMu.Unlock()
	}
	return nil
}

// Queue implements an in-memory messaging.Queue backed by a buffered channel
type Queue[T any] struct {
	messages chan *Message[T]
	dlq      []*Message[T]
	config   Config
	dlqMu    sync.Mutex
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		config:   config,
	}
}

// Publish adds a new item to the queue, blocking while the buffer is full
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &Message[T]{
		id:        idgen.New(),
		payload:   *t,
		queue:     q,
		createdAt: clock.Now(),
	}
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume blocks until a message is available or ctx is done
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// DLQSize returns the number of messages in the dead letter queue
func (q *Queue[T]) DLQSize() int {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return len(q.dlq)
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
