package pcb

import (
	"context"
	"time"
)

// NoSemaphore marks a PCB that is not waiting on any semaphore.
const NoSemaphore = -1

// Register slots of the illustrative register snapshot.
const (
	RegPC = iota
	RegA
	RegB
	RegC
)

// Registers is an opaque register snapshot; the kernel never interprets it.
type Registers [4]int

// Runnable is the work a process performs once dispatched. Run is invoked
// exactly once, on the first dispatch; later dispatches resume the context
// parked inside Run.
type Runnable interface {
	Run(ctx context.Context)
}

// RunnableFunc adapts an ordinary function to Runnable
type RunnableFunc func(ctx context.Context)

// Run calls f(ctx)
func (f RunnableFunc) Run(ctx context.Context) { f(ctx) }

// PCB represents a process control block
type PCB struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Class       Class     `json:"class"`
	State       State     `json:"state"`
	Registers   Registers `json:"registers"`
	SemaphoreID int       `json:"semaphoreId"`
	CreatedAt   time.Time `json:"createdAt"`
	Entry       Runnable  `json:"-"`
}

// Option customises a PCB at creation time
type Option func(p *PCB)

// WithRegisters sets the initial register snapshot
func WithRegisters(registers Registers) Option {
	return func(p *PCB) {
		p.Registers = registers
	}
}

// New creates a Ready PCB
func New(id int, name string, class Class, entry Runnable, createdAt time.Time, options ...Option) *PCB {
	ret := &PCB{
		ID:          id,
		Name:        name,
		Class:       class,
		State:       StateReady,
		SemaphoreID: NoSemaphore,
		CreatedAt:   createdAt,
		Entry:       entry,
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Clone returns a detached copy suitable for reads outside the kernel lock.
func (p *PCB) Clone() *PCB {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// IsBlockedOnSemaphore returns true when the PCB sits in a semaphore wait queue
func (p *PCB) IsBlockedOnSemaphore() bool {
	return p.State == StateBlocked && p.SemaphoreID != NoSemaphore
}

// Key returns the PCB identifier; used as the process table key selector.
func Key(p *PCB) int {
	return p.ID
}

type contextKey struct{}

// WithProcess returns a context carrying the running PCB
func WithProcess(ctx context.Context, p *PCB) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the PCB the calling execution context belongs to, or nil
func FromContext(ctx context.Context) *PCB {
	if ctx == nil {
		return nil
	}
	if p, ok := ctx.Value(contextKey{}).(*PCB); ok {
		return p
	}
	return nil
}
