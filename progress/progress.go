package progress

import (
	"context"
	"sync"
	"time"
)

// Delta represents an incremental counter change emitted by the kernel on a
// single transition.
type Delta struct {
	Created    int
	Dispatched int
	Resumed    int
	Blocked    int
	Woken      int
	Yielded    int
	Terminated int
	Deleted    int
}

// Progress keeps aggregated kernel counters. It is safe for concurrent use.
type Progress struct {
	KernelID  string
	StartedAt time.Time

	Created    int
	Dispatched int
	Resumed    int
	Blocked    int
	Woken      int
	Yielded    int
	Terminated int
	Deleted    int

	sync.Mutex
	onChange func(Progress)
}

// New creates a tracker for the supplied kernel
func New(kernelID string, startedAt time.Time) *Progress {
	return &Progress{KernelID: kernelID, StartedAt: startedAt}
}

// Update applies the supplied delta. The onChange callback, if any, is
// invoked with a copy outside the critical section.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}

	p.Lock()

	p.Created += d.Created
	p.Dispatched += d.Dispatched
	p.Resumed += d.Resumed
	p.Blocked += d.Blocked
	p.Woken += d.Woken
	p.Yielded += d.Yielded
	p.Terminated += d.Terminated
	p.Deleted += d.Deleted

	snapshot := p.copyLocked()
	cb := p.onChange

	p.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Live returns the number of created processes that have neither terminated
// nor been deleted. Call it on a Snapshot.
func (p *Progress) Live() int {
	return p.Created - p.Terminated - p.Deleted
}

// Snapshot returns a copy of the tracker suitable for read-only inspection.
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.Lock()
	defer p.Unlock()
	return p.copyLocked()
}

// OnChange registers a callback that is invoked after every Update. Passing
// nil disables the callback.
func (p *Progress) OnChange(cb func(Progress)) {
	if p == nil {
		return
	}
	p.Lock()
	p.onChange = cb
	p.Unlock()
}

func (p *Progress) copyLocked() Progress {
	return Progress{
		KernelID:   p.KernelID,
		StartedAt:  p.StartedAt,
		Created:    p.Created,
		Dispatched: p.Dispatched,
		Resumed:    p.Resumed,
		Blocked:    p.Blocked,
		Woken:      p.Woken,
		Yielded:    p.Yielded,
		Terminated: p.Terminated,
		Deleted:    p.Deleted,
	}
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithTracker embeds the tracker in a derived context
func WithTracker(ctx context.Context, tr *Progress) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, tr)
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}
