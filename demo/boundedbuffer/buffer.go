// Package boundedbuffer implements the single-slot producer/consumer handshake
// on top of kernel semaphores. The slot has no lock of its own: the empty and
// full semaphores alternate ownership of it.
package boundedbuffer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/viant/rtk/model/pcb"
	"github.com/viant/rtk/runtime/kernel"
)

// Sentinel marks the end of the stream in the slot
const Sentinel byte = 0

// Buffer is a one-byte bounded buffer
type Buffer struct {
	empty *kernel.Semaphore
	full  *kernel.Semaphore
	slot  byte

	mu          sync.Mutex
	transferred int
	errs           []error
	consumerFailed bool
	done           chan struct{}
	doneOnce       sync.Once
}

// New creates a buffer with empty=1 and full=0
func New(k *kernel.Kernel) (*Buffer, error) {
	empty, err := k.SemaphoreInit(1)
	if err != nil {
		return nil, err
	}
	full, err := k.SemaphoreInit(0)
	if err != nil {
		return nil, err
	}
	return &Buffer{empty: empty, full: full, done: make(chan struct{})}, nil
}

// Producer returns the entry point copying source into the slot. A source
// that cannot be opened still delivers the sentinel so the consumer stops.
func (b *Buffer) Producer(source Source) pcb.Runnable {
	return pcb.RunnableFunc(func(ctx context.Context) {
		if err := b.produce(ctx, source); err != nil {
			b.fail(fmt.Errorf("producer: %w", err))
		}
	})
}

// Consumer returns the entry point copying the slot into sink until the
// sentinel arrives. A sink that cannot be opened ends the consumer alone.
func (b *Buffer) Consumer(sink Sink) pcb.Runnable {
	return pcb.RunnableFunc(func(ctx context.Context) {
		defer b.finish()
		if err := b.consume(ctx, sink); err != nil {
			b.mu.Lock()
			b.consumerFailed = true
			b.mu.Unlock()
			b.fail(fmt.Errorf("consumer: %w", err))
		}
	})
}

// Done is closed when the consumer ends
func (b *Buffer) Done() <-chan struct{} { return b.done }

// Transferred returns the number of bytes delivered to the sink
func (b *Buffer) Transferred() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transferred
}

// ConsumerFailed reports whether the consumer ended on an error
func (b *Buffer) ConsumerFailed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consumerFailed
}

// Err returns producer and consumer failures joined
func (b *Buffer) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return errors.Join(b.errs...)
}

func (b *Buffer) produce(ctx context.Context, source Source) error {
	reader, err := source(ctx)
	if err != nil {
		if hErr := b.put(ctx, Sentinel); hErr != nil {
			return errors.Join(err, hErr)
		}
		return err
	}
	defer reader.Close()

	var readErr error
	in := bufio.NewReader(reader)
	for {
		c, err := in.ReadByte()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			break
		}
		if c == Sentinel {
			slog.Warn("boundedbuffer: sentinel byte in source ends the stream early")
		}
		if err = b.put(ctx, c); err != nil {
			return err
		}
		if c == Sentinel {
			return nil
		}
	}
	if err := b.put(ctx, Sentinel); err != nil {
		return errors.Join(readErr, err)
	}
	return readErr
}

func (b *Buffer) put(ctx context.Context, c byte) error {
	if err := b.empty.Wait(ctx); err != nil {
		return err
	}
	b.slot = c
	return b.full.Signal()
}

func (b *Buffer) consume(ctx context.Context, sink Sink) error {
	writer, err := sink(ctx)
	if err != nil {
		return err
	}
	var writeErr error
	for {
		if err := b.full.Wait(ctx); err != nil {
			writeErr = err
			break
		}
		c := b.slot
		if c == Sentinel {
			break
		}
		if _, err := writer.Write([]byte{c}); err != nil && writeErr == nil {
			writeErr = err
		}
		b.mu.Lock()
		b.transferred++
		b.mu.Unlock()
		if err := b.empty.Signal(); err != nil {
			writeErr = err
			break
		}
	}
	if err := writer.Close(); err != nil {
		return errors.Join(writeErr, err)
	}
	return writeErr
}

func (b *Buffer) fail(err error) {
	slog.Error("boundedbuffer: task failed", "error", err)
	b.mu.Lock()
	b.errs = append(b.errs, err)
	b.mu.Unlock()
}

func (b *Buffer) finish() {
	b.doneOnce.Do(func() { close(b.done) })
}
