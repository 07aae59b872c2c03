package kernel

import (
	"github.com/viant/rtk/model/pcb"
	"github.com/viant/rtk/progress"
	"github.com/viant/rtk/service/event"
)

// Kind names a process transition
type Kind string

const (
	KindCreated    Kind = "created"
	KindDispatched Kind = "dispatched"
	KindResumed    Kind = "resumed"
	KindBlocked    Kind = "blocked"
	KindWoken      Kind = "woken"
	KindYielded    Kind = "yielded"
	KindReady      Kind = "ready"
	KindSuspended  Kind = "suspended"
	KindReleased   Kind = "released"
	KindTerminated Kind = "terminated"
	KindDeleted    Kind = "deleted"
)

// Transition is the payload of every kernel event
type Transition struct {
	Kind        Kind      `json:"kind"`
	ProcessID   int       `json:"processId"`
	From        pcb.State `json:"from,omitempty"`
	To          pcb.State `json:"to,omitempty"`
	Queue       string    `json:"queue,omitempty"`
	SemaphoreID int       `json:"semaphoreId"`
}

type record struct {
	process    *pcb.PCB
	transition Transition
}

func newRecord(kind Kind, p *pcb.PCB, from pcb.State, queueName string) record {
	return record{
		process: p.Clone(),
		transition: Transition{
			Kind:        kind,
			ProcessID:   p.ID,
			From:        from,
			To:          p.State,
			Queue:       queueName,
			SemaphoreID: p.SemaphoreID,
		},
	}
}

func (r record) delta() progress.Delta {
	switch r.transition.Kind {
	case KindCreated:
		return progress.Delta{Created: 1}
	case KindDispatched:
		return progress.Delta{Dispatched: 1}
	case KindResumed:
		return progress.Delta{Resumed: 1}
	case KindBlocked:
		return progress.Delta{Blocked: 1}
	case KindWoken:
		return progress.Delta{Woken: 1}
	case KindYielded:
		return progress.Delta{Yielded: 1}
	case KindTerminated:
		return progress.Delta{Terminated: 1}
	case KindDeleted:
		return progress.Delta{Deleted: 1}
	}
	return progress.Delta{}
}

// notify updates counters and publishes events; never call it holding k.mu.
func (k *Kernel) notify(records ...record) {
	for _, r := range records {
		k.stats.Update(r.delta())
		k.logger.Debug("kernel transition",
			"pcb", r.transition.ProcessID,
			"name", r.process.Name,
			"kind", r.transition.Kind,
			"from", r.transition.From,
			"to", r.transition.To,
			"queue", r.transition.Queue)
		if k.publisher == nil {
			continue
		}
		ev := event.NewEvent(&event.Context{
			KernelID:  k.id,
			ProcessID: r.process.ID,
			Name:      r.process.Name,
			Class:     string(r.process.Class),
			EventType: string(r.transition.Kind),
		}, r.transition)
		if err := k.publisher.Publish(k.ctx, ev); err != nil && k.ctx.Err() == nil {
			k.logger.Warn("kernel: failed to publish transition", "pcb", r.process.ID, "error", err)
		}
	}
}
