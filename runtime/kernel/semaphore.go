package kernel

import (
	"context"
	"fmt"

	"github.com/viant/rtk/model/pcb"
	"github.com/viant/rtk/runtime/queue"
)

// Semaphore is a counting semaphore with a FIFO wait queue. A negative value
// equals minus the number of waiters.
type Semaphore struct {
	ID      int
	kernel  *Kernel
	initial int
	value   int
	waiters *queue.Queue
}

// SemaphoreInit creates a semaphore with the supplied non-negative value
func (k *Kernel) SemaphoreInit(value int) (*Semaphore, error) {
	if value < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidValue, value)
	}
	id := k.sids.Next()
	s := &Semaphore{
		ID:      id,
		kernel:  k,
		initial: value,
		value:   value,
		waiters: queue.New(fmt.Sprintf("semaphore-%d", id)),
	}
	k.mu.Lock()
	k.semaphores[id] = s
	k.mu.Unlock()
	return s, nil
}

// Semaphore returns a registered semaphore
func (k *Kernel) Semaphore(id int) (*Semaphore, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, ok := k.semaphores[id]
	if !ok {
		return nil, fmt.Errorf("semaphore %d: %w", id, ErrNotFound)
	}
	return s, nil
}

// Wait decrements the counter. When the result is negative the running process
// owning ctx is appended to the wait queue and suspended until a Signal makes
// it ready and the dispatcher resumes it. Wait does not observe ctx
// cancellation; a deleted waiter returns ErrDeleted.
func (s *Semaphore) Wait(ctx context.Context) error {
	k := s.kernel
	p := pcb.FromContext(ctx)
	k.mu.Lock()
	if p != nil && k.deleted[p.ID] {
		k.mu.Unlock()
		return fmt.Errorf("process %d: %w", p.ID, ErrDeleted)
	}
	s.value--
	if s.value >= 0 {
		k.assertLocked()
		k.mu.Unlock()
		return nil
	}
	if err := k.checkCallerLocked(p); err != nil {
		s.value++
		k.mu.Unlock()
		return fmt.Errorf("semaphore %d wait: %w", s.ID, err)
	}
	k.takeLocked(k.running, p.ID)
	from := p.State
	p.State = pcb.StateBlocked
	p.SemaphoreID = s.ID
	k.place(s.waiters, p)
	resume := k.parkLocked(p.ID)
	rec := newRecord(KindBlocked, p, from, s.waiters.Name())
	k.assertLocked()
	k.mu.Unlock()

	k.notify(rec)
	return k.suspend(ctx, resume, s.waiters.Name())
}

// TryWait decrements the counter only when it is positive
func (s *Semaphore) TryWait() bool {
	k := s.kernel
	k.mu.Lock()
	defer k.mu.Unlock()
	if s.value <= 0 {
		return false
	}
	s.value--
	k.assertLocked()
	return true
}

// Signal increments the counter. When the result is not positive the oldest
// waiter becomes ready at the tail of its class queue.
func (s *Semaphore) Signal() error {
	k := s.kernel
	k.mu.Lock()
	s.value++
	if s.value > 0 {
		k.assertLocked()
		k.mu.Unlock()
		return nil
	}
	p, err := s.waiters.Dequeue()
	if err != nil {
		s.value--
		k.violationLocked(fmt.Errorf("semaphore %d value %d without waiters", s.ID, s.value))
		k.mu.Unlock()
		return fmt.Errorf("semaphore %d signal: %w", s.ID, ErrInconsistent)
	}
	delete(k.owner, p.ID)
	from := p.State
	p.State = pcb.StateReady
	p.SemaphoreID = pcb.NoSemaphore
	dest := k.readyQueue(p.Class)
	k.place(dest, p)
	rec := newRecord(KindWoken, p, from, dest.Name())
	rec.transition.SemaphoreID = s.ID
	k.assertLocked()
	k.mu.Unlock()

	k.notify(rec)
	k.wake()
	return nil
}

// Value returns the current counter
func (s *Semaphore) Value() int {
	s.kernel.mu.Lock()
	defer s.kernel.mu.Unlock()
	return s.value
}

// Initial returns the value the semaphore was created with
func (s *Semaphore) Initial() int { return s.initial }

// Waiting returns the number of suspended waiters
func (s *Semaphore) Waiting() int {
	s.kernel.mu.Lock()
	defer s.kernel.mu.Unlock()
	return s.waiters.Len()
}

// Waiters returns IDs of suspended waiters, oldest first
func (s *Semaphore) Waiters() []int {
	s.kernel.mu.Lock()
	defer s.kernel.mu.Unlock()
	return s.waiters.IDs()
}
