package kernel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/viant/rtk/internal/clock"
	"github.com/viant/rtk/internal/idgen"
	"github.com/viant/rtk/model/pcb"
	"github.com/viant/rtk/progress"
	"github.com/viant/rtk/runtime/queue"
	"github.com/viant/rtk/service/dao"
	"github.com/viant/rtk/service/dao/criteria"
	"github.com/viant/rtk/service/dao/store"
	"github.com/viant/rtk/service/event"
)

// Queue names used in transition events and snapshots
const (
	QueueIntake  = "intake"
	QueueRTQ     = "RTQ"
	QueueTSQ     = "TSQ"
	QueueRunning = "running"
	QueueBlocked = "blocked"
)

// Kernel owns every PCB and moves them between queues. A live PCB is held by
// exactly one queue at any instant: intake, RTQ, TSQ, running, blocked or the
// wait queue of one semaphore.
type Kernel struct {
	id     string
	config Config
	logger *slog.Logger

	mu         sync.Mutex
	intake     *queue.Queue
	rtq        *queue.Queue
	tsq        *queue.Queue
	running    *queue.Queue
	blocked    *queue.Queue
	owner      map[int]*queue.Queue
	semaphores map[int]*Semaphore
	parked     map[int]chan error
	deleted    map[int]bool

	table     dao.Service[int, pcb.PCB]
	pids      *idgen.Sequence
	sids      *idgen.Sequence
	stats     *progress.Progress
	publisher *event.Publisher[Transition]

	ctx          context.Context
	cancel       context.CancelFunc
	kick         chan struct{}
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// New creates a kernel
func New(options ...Option) (*Kernel, error) {
	k := &Kernel{
		config:     DefaultConfig(),
		logger:     slog.Default(),
		intake:     queue.New(QueueIntake),
		rtq:        queue.New(QueueRTQ),
		tsq:        queue.New(QueueTSQ),
		running:    queue.New(QueueRunning),
		blocked:    queue.New(QueueBlocked),
		owner:      make(map[int]*queue.Queue),
		semaphores: make(map[int]*Semaphore),
		parked:     make(map[int]chan error),
		deleted:    make(map[int]bool),
		pids:       idgen.NewSequence(0),
		sids:       idgen.NewSequence(0),
		kick:       make(chan struct{}, 1),
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range options {
		opt(k)
	}
	if err := k.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kernel config: %w", err)
	}
	if k.id == "" {
		k.id = idgen.New()
	}
	if k.table == nil {
		k.table = store.NewMemoryStore[int, pcb.PCB](pcb.Key, func(p *pcb.PCB, parameters []*dao.Parameter) bool {
			return criteria.FilterByState(p.State, parameters)
		})
	}
	k.stats = progress.New(k.id, clock.Now())
	k.ctx, k.cancel = context.WithCancel(context.Background())
	return k, nil
}

// ID returns the kernel instance identifier
func (k *Kernel) ID() string { return k.id }

// Tracker returns live transition counters
func (k *Kernel) Tracker() *progress.Progress { return k.stats }

// Stats returns a copy of transition counters
func (k *Kernel) Stats() progress.Progress { return k.stats.Snapshot() }

// CreateProcess registers a new PCB in the intake queue and returns its ID.
// The PCB is classified into RTQ or TSQ on the next dispatch.
func (k *Kernel) CreateProcess(name string, class pcb.Class, entry pcb.Runnable, options ...pcb.Option) (int, error) {
	if !class.IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClass, class)
	}
	if entry == nil {
		return 0, fmt.Errorf("process %q: %w", name, ErrNilEntry)
	}
	p := pcb.New(k.pids.Next(), name, class, entry, clock.Now(), options...)

	k.mu.Lock()
	if err := k.table.Save(k.ctx, p); err != nil {
		k.mu.Unlock()
		return 0, fmt.Errorf("failed to register process %q: %w", name, err)
	}
	k.place(k.intake, p)
	rec := newRecord(KindCreated, p, "", QueueIntake)
	k.assertLocked()
	k.mu.Unlock()

	k.notify(rec)
	k.wake()
	return p.ID, nil
}

// MakeReady moves a process from intake, blocked, RTQ or TSQ to the tail of
// its class queue.
func (k *Kernel) MakeReady(id int) error {
	k.mu.Lock()
	q, err := k.lookupLocked(id)
	if err != nil {
		k.mu.Unlock()
		return err
	}
	switch q {
	case k.intake, k.blocked, k.rtq, k.tsq:
	default:
		k.mu.Unlock()
		return fmt.Errorf("make ready %d from %s: %w", id, q.Name(), ErrInvalidTransition)
	}
	p := k.takeLocked(q, id)
	from := p.State
	p.State = pcb.StateReady
	dest := k.readyQueue(p.Class)
	k.place(dest, p)
	rec := newRecord(KindReady, p, from, dest.Name())
	k.assertLocked()
	k.mu.Unlock()

	k.notify(rec)
	k.wake()
	return nil
}

// Block moves a process that is not running to the blocked queue. Blocking an
// already blocked process is a no-op.
func (k *Kernel) Block(id int) error {
	k.mu.Lock()
	q, err := k.lookupLocked(id)
	if err != nil {
		k.mu.Unlock()
		return err
	}
	switch q {
	case k.blocked:
		k.mu.Unlock()
		return nil
	case k.intake, k.rtq, k.tsq:
	default:
		k.mu.Unlock()
		return fmt.Errorf("block %d from %s: %w", id, q.Name(), ErrInvalidTransition)
	}
	p := k.takeLocked(q, id)
	from := p.State
	p.State = pcb.StateBlocked
	k.place(k.blocked, p)
	rec := newRecord(KindSuspended, p, from, QueueBlocked)
	k.assertLocked()
	k.mu.Unlock()

	k.notify(rec)
	return nil
}

// Unblock moves a process from the blocked queue to its class queue.
// Semaphore waiters are released only by Signal.
func (k *Kernel) Unblock(id int) error {
	k.mu.Lock()
	q, err := k.lookupLocked(id)
	if err != nil {
		k.mu.Unlock()
		return err
	}
	if q != k.blocked {
		k.mu.Unlock()
		return fmt.Errorf("unblock %d from %s: %w", id, q.Name(), ErrInvalidTransition)
	}
	p := k.takeLocked(q, id)
	from := p.State
	p.State = pcb.StateReady
	dest := k.readyQueue(p.Class)
	k.place(dest, p)
	rec := newRecord(KindReleased, p, from, dest.Name())
	k.assertLocked()
	k.mu.Unlock()

	k.notify(rec)
	k.wake()
	return nil
}

// DeleteProcess removes a process from whichever queue holds it. Deleting a
// semaphore waiter gives its unit back to the counter; a suspended execution
// context of the process resumes with ErrDeleted. It returns false with
// ErrNotFound for unknown IDs.
func (k *Kernel) DeleteProcess(id int) (bool, error) {
	k.mu.Lock()
	q, err := k.lookupLocked(id)
	if err != nil {
		k.mu.Unlock()
		return false, err
	}
	p := k.takeLocked(q, id)
	delete(k.owner, id)
	if err := k.table.Delete(k.ctx, id); err != nil {
		k.violationLocked(fmt.Errorf("process table: %w", err))
	}
	if p.IsBlockedOnSemaphore() {
		if sem, ok := k.semaphores[p.SemaphoreID]; ok && q == sem.waiters {
			sem.value++
		}
	}
	if q == k.running {
		k.deleted[id] = true
	}
	resume, parked := k.parked[id]
	if parked {
		delete(k.parked, id)
		k.deleted[id] = true
	}
	rec := newRecord(KindDeleted, p, p.State, q.Name())
	k.assertLocked()
	k.mu.Unlock()

	if parked {
		resume <- ErrDeleted
	}
	k.notify(rec)
	return true, nil
}

// Process returns a copy of the live process with the supplied ID
func (k *Kernel) Process(id int) (*pcb.PCB, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	p, err := k.table.Load(k.ctx, id)
	if err != nil {
		return nil, fmt.Errorf("process %d: %w", id, ErrNotFound)
	}
	return p.Clone(), nil
}

// Processes returns copies of live processes ordered by ID, optionally
// restricted to the supplied states.
func (k *Kernel) Processes(states ...pcb.State) ([]*pcb.PCB, error) {
	var parameters []*dao.Parameter
	if len(states) > 0 {
		parameters = append(parameters, criteria.StateOf(states...))
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	list, err := k.table.List(k.ctx, parameters...)
	if err != nil {
		return nil, err
	}
	result := make([]*pcb.PCB, 0, len(list))
	for _, p := range list {
		result = append(result, p.Clone())
	}
	return result, nil
}

func (k *Kernel) readyQueue(class pcb.Class) *queue.Queue {
	if class == pcb.ClassRealTime {
		return k.rtq
	}
	return k.tsq
}

func (k *Kernel) place(q *queue.Queue, p *pcb.PCB) {
	q.Enqueue(p)
	k.owner[p.ID] = q
}

func (k *Kernel) lookupLocked(id int) (*queue.Queue, error) {
	q, ok := k.owner[id]
	if !ok {
		return nil, fmt.Errorf("process %d: %w", id, ErrNotFound)
	}
	return q, nil
}

// takeLocked removes a PCB the owner map places in q.
func (k *Kernel) takeLocked(q *queue.Queue, id int) *pcb.PCB {
	p, err := q.TakeByID(id)
	if err != nil {
		panic(fmt.Errorf("%w: owner map places %d in %s: %v", ErrInconsistent, id, q.Name(), err))
	}
	delete(k.owner, id)
	return p
}

func (k *Kernel) wake() {
	select {
	case k.kick <- struct{}{}:
	default:
	}
}
