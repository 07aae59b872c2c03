package kernel

import (
	"errors"
	"fmt"
	"sort"

	"github.com/viant/rtk/model/pcb"
	"github.com/viant/rtk/runtime/queue"
)

// Snapshot captures queue membership at one instant
type Snapshot struct {
	Intake     []int                     `json:"intake"`
	RTQ        []int                     `json:"rtq"`
	TSQ        []int                     `json:"tsq"`
	Running    []int                     `json:"running"`
	Blocked    []int                     `json:"blocked"`
	Semaphores map[int]SemaphoreSnapshot `json:"semaphores"`
}

// SemaphoreSnapshot captures a semaphore counter and its waiters
type SemaphoreSnapshot struct {
	Value   int   `json:"value"`
	Waiting []int `json:"waiting"`
}

// Snapshot returns queue membership
func (k *Kernel) Snapshot() Snapshot {
	k.mu.Lock()
	defer k.mu.Unlock()
	ret := Snapshot{
		Intake:     k.intake.IDs(),
		RTQ:        k.rtq.IDs(),
		TSQ:        k.tsq.IDs(),
		Running:    k.running.IDs(),
		Blocked:    k.blocked.IDs(),
		Semaphores: make(map[int]SemaphoreSnapshot, len(k.semaphores)),
	}
	for id, s := range k.semaphores {
		ret.Semaphores[id] = SemaphoreSnapshot{Value: s.value, Waiting: s.waiters.IDs()}
	}
	return ret
}

// Verify checks every kernel invariant and returns the violations found
func (k *Kernel) Verify() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.verifyLocked()
}

func (k *Kernel) verifyLocked() error {
	var errs []error
	seen := make(map[int]string)
	check := func(q *queue.Queue, accept func(p *pcb.PCB) error) {
		if err := q.Check(); err != nil {
			errs = append(errs, err)
		}
		for _, id := range q.IDs() {
			if other, ok := seen[id]; ok {
				errs = append(errs, fmt.Errorf("process %d held by %s and %s", id, other, q.Name()))
				continue
			}
			seen[id] = q.Name()
			if k.owner[id] != q {
				errs = append(errs, fmt.Errorf("process %d in %s but owner is %s", id, q.Name(), nameOf(k.owner[id])))
			}
			p, err := q.FindByID(id)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if err := accept(p); err != nil {
				errs = append(errs, fmt.Errorf("%s: process %d: %w", q.Name(), id, err))
			}
		}
	}
	readyOf := func(class pcb.Class) func(p *pcb.PCB) error {
		return func(p *pcb.PCB) error {
			if p.State != pcb.StateReady {
				return fmt.Errorf("state %s", p.State)
			}
			if class != "" && p.Class != class {
				return fmt.Errorf("class %s", p.Class)
			}
			return nil
		}
	}
	check(k.intake, readyOf(""))
	check(k.rtq, readyOf(pcb.ClassRealTime))
	check(k.tsq, readyOf(pcb.ClassTimeShared))
	check(k.running, func(p *pcb.PCB) error {
		if p.State != pcb.StateRunning {
			return fmt.Errorf("state %s", p.State)
		}
		return nil
	})
	check(k.blocked, func(p *pcb.PCB) error {
		if p.State != pcb.StateBlocked || p.SemaphoreID != pcb.NoSemaphore {
			return fmt.Errorf("state %s semaphore %d", p.State, p.SemaphoreID)
		}
		return nil
	})

	ids := make([]int, 0, len(k.semaphores))
	for id := range k.semaphores {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		s := k.semaphores[id]
		check(s.waiters, func(p *pcb.PCB) error {
			if p.State != pcb.StateBlocked || p.SemaphoreID != s.ID {
				return fmt.Errorf("state %s semaphore %d", p.State, p.SemaphoreID)
			}
			return nil
		})
		waiting := s.waiters.Len()
		switch {
		case s.value < 0 && waiting != -s.value:
			errs = append(errs, fmt.Errorf("semaphore %d value %d with %d waiters", id, s.value, waiting))
		case s.value >= 0 && waiting != 0:
			errs = append(errs, fmt.Errorf("semaphore %d value %d with %d waiters", id, s.value, waiting))
		}
	}

	if len(seen) != len(k.owner) {
		errs = append(errs, fmt.Errorf("owner map tracks %d processes, queues hold %d", len(k.owner), len(seen)))
	}
	live, err := k.table.List(k.ctx)
	if err != nil {
		errs = append(errs, err)
	} else if len(live) != len(seen) {
		errs = append(errs, fmt.Errorf("process table holds %d processes, queues hold %d", len(live), len(seen)))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInconsistent, errors.Join(errs...))
}

func (k *Kernel) assertLocked() {
	if !k.config.Assertions {
		return
	}
	if err := k.verifyLocked(); err != nil {
		panic(err)
	}
}

func (k *Kernel) violationLocked(err error) {
	if k.config.Assertions {
		panic(fmt.Errorf("%w: %w", ErrInconsistent, err))
	}
	k.logger.Error("kernel: invariant violated", "error", err)
}

func nameOf(q *queue.Queue) string {
	if q == nil {
		return "none"
	}
	return q.Name()
}
