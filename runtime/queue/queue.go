// Package queue provides the ordered PCB container used for every kernel
// queue: intake, ready queues, running and blocked sets and semaphore wait
// queues. The queue owns the PCBs it holds; Dequeue and TakeByID move a PCB
// out, after which the caller is its sole owner.
package queue

import (
	"fmt"
	"sync"

	"github.com/gammazero/deque"
	"github.com/viant/rtk/model/pcb"
)

// Queue is a mutation-safe FIFO of PCBs
type Queue struct {
	name  string
	mu    sync.RWMutex
	items deque.Deque[*pcb.PCB]
}

// New creates an empty named queue
func New(name string) *Queue {
	return &Queue{name: name}
}

// Name returns the queue name
func (q *Queue) Name() string {
	return q.name
}

// Enqueue appends p at the tail
func (q *Queue) Enqueue(p *pcb.PCB) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items.PushBack(p)
}

// Dequeue removes and returns the head PCB
func (q *Queue) Dequeue() (*pcb.PCB, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", q.name, ErrEmptyQueue)
	}
	return q.items.PopFront(), nil
}

// TakeByID unlinks the PCB with the supplied ID, keeping the order of the rest
func (q *Queue) TakeByID(id int) (*pcb.PCB, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	index := q.indexOf(id)
	if index == -1 {
		return nil, fmt.Errorf("%s: pcb %d: %w", q.name, id, ErrNotFound)
	}
	return q.items.Remove(index), nil
}

// InsertAt inserts p at the ordinal position; 0 makes p the new head and
// Len() makes it the new tail. Any other position discards the insert.
func (q *Queue) InsertAt(p *pcb.PCB, position int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	size := q.items.Len()
	if position < 0 || position > size {
		return fmt.Errorf("%s: position %d beyond size %d: %w", q.name, position, size, ErrNotFound)
	}
	if position == size {
		q.items.PushBack(p)
		return nil
	}
	q.items.Insert(position, p)
	return nil
}

// FindByID returns the queued PCB without removing it
func (q *Queue) FindByID(id int) (*pcb.PCB, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	index := q.indexOf(id)
	if index == -1 {
		return nil, fmt.Errorf("%s: pcb %d: %w", q.name, id, ErrNotFound)
	}
	return q.items.At(index), nil
}

// Contains returns true if a PCB with the ID is queued
func (q *Queue) Contains(id int) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.indexOf(id) != -1
}

// Len returns the number of queued PCBs
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.items.Len()
}

// Head returns the head PCB or nil
func (q *Queue) Head() *pcb.PCB {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.items.Len() == 0 {
		return nil
	}
	return q.items.Front()
}

// Tail returns the tail PCB or nil
func (q *Queue) Tail() *pcb.PCB {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.items.Len() == 0 {
		return nil
	}
	return q.items.Back()
}

// IDs returns queued identifiers in queue order
func (q *Queue) IDs() []int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	ret := make([]int, 0, q.items.Len())
	for i := 0; i < q.items.Len(); i++ {
		ret = append(ret, q.items.At(i).ID)
	}
	return ret
}

// Check verifies the queue invariants: the walk from head reaches tail in
// Len()-1 steps, there is no nil entry and no identifier appears twice.
func (q *Queue) Check() error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	size := q.items.Len()
	if size == 0 {
		return nil
	}
	seen := make(map[int]bool, size)
	steps := 0
	for i := 0; i < size; i++ {
		item := q.items.At(i)
		if item == nil {
			return fmt.Errorf("%s: nil entry at %d: %w", q.name, i, ErrCorrupted)
		}
		if seen[item.ID] {
			return fmt.Errorf("%s: pcb %d queued twice: %w", q.name, item.ID, ErrCorrupted)
		}
		seen[item.ID] = true
		if item == q.items.Back() {
			break
		}
		steps++
	}
	if steps != size-1 {
		return fmt.Errorf("%s: tail reached after %d steps, expected %d: %w", q.name, steps, size-1, ErrCorrupted)
	}
	return nil
}

func (q *Queue) indexOf(id int) int {
	return q.items.Index(func(p *pcb.PCB) bool {
		return p.ID == id
	})
}
