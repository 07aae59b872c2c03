package boundedbuffer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/rtk/model/pcb"
	"github.com/viant/rtk/runtime/kernel"
)

// Pipe is a buffer with its producer and consumer processes
type Pipe struct {
	*Buffer
	ProducerID int
	ConsumerID int
	kernel     *kernel.Kernel
}

type options struct {
	name  string
	class pcb.Class
}

// Option customises Start
type Option func(o *options)

// WithName sets the process name prefix
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithClass sets the priority class of both processes
func WithClass(class pcb.Class) Option {
	return func(o *options) { o.class = class }
}

// Start creates a buffer and registers producer and consumer processes
func Start(k *kernel.Kernel, source Source, sink Sink, opts ...Option) (*Pipe, error) {
	o := &options{name: "copy", class: pcb.ClassTimeShared}
	for _, opt := range opts {
		opt(o)
	}
	buffer, err := New(k)
	if err != nil {
		return nil, err
	}
	producerID, err := k.CreateProcess(o.name+".producer", o.class, buffer.Producer(source))
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	consumerID, err := k.CreateProcess(o.name+".consumer", o.class, buffer.Consumer(sink))
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}
	return &Pipe{Buffer: buffer, ProducerID: producerID, ConsumerID: consumerID, kernel: k}, nil
}

// Wait blocks until the consumer ends and the producer process is gone, then
// returns the joined task errors. When the consumer failed, the producer can
// no longer hand over a byte, so it is deleted instead of awaited.
func (p *Pipe) Wait(ctx context.Context) error {
	select {
	case <-p.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if p.ConsumerFailed() {
		if _, err := p.kernel.DeleteProcess(p.ProducerID); err != nil && !errors.Is(err, kernel.ErrNotFound) {
			return errors.Join(p.Err(), err)
		}
		return p.Err()
	}
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		if _, err := p.kernel.Process(p.ProducerID); errors.Is(err, kernel.ErrNotFound) {
			return p.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
