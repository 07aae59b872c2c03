package kernel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/viant/rtk/model/pcb"
	"github.com/viant/rtk/tracing"
)

// Step performs a single dispatch: intake is drained into RTQ and TSQ by
// class, then the head of RTQ (or of TSQ when RTQ is empty) becomes running.
// A process that never ran starts on its own goroutine; a suspended one is
// resumed where it stopped. Step returns ErrEmptyQueue when nothing is ready.
func (k *Kernel) Step(ctx context.Context) (*pcb.PCB, error) {
	p, err := k.dispatch(ctx)
	if err != nil {
		return nil, err
	}
	_, span := tracing.StartSpan(ctx, "kernel.dispatch", tracing.KindInternal)
	span.WithAttributes(map[string]string{
		"pcb.id":    strconv.Itoa(p.ID),
		"pcb.name":  p.Name,
		"pcb.class": string(p.Class),
	})
	tracing.EndSpan(span, nil)
	return p, nil
}

func (k *Kernel) dispatch(ctx context.Context) (*pcb.PCB, error) {
	k.mu.Lock()
	k.classifyLocked()
	source := k.rtq
	if source.Len() == 0 {
		source = k.tsq
	}
	p, err := source.Dequeue()
	if err != nil {
		k.mu.Unlock()
		return nil, err
	}
	delete(k.owner, p.ID)
	from := p.State
	p.State = pcb.StateRunning
	k.place(k.running, p)
	resume, parked := k.parked[p.ID]
	delete(k.parked, p.ID)
	kind := KindDispatched
	if parked {
		kind = KindResumed
	}
	rec := newRecord(kind, p, from, QueueRunning)
	k.assertLocked()
	k.mu.Unlock()

	k.notify(rec)
	if parked {
		resume <- nil
	} else {
		go k.execute(ctx, p)
	}
	return rec.process, nil
}

// Run dispatches until ctx is cancelled or Shutdown is called. When nothing is
// ready the loop sleeps until a transition makes a process ready or the polling
// interval elapses.
func (k *Kernel) Run(ctx context.Context) error {
	ticker := time.NewTicker(k.config.PollingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-k.shutdownCh:
			return nil
		default:
		}

		_, err := k.Step(ctx)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrEmptyQueue) {
			k.logger.Error("kernel: dispatch failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-k.shutdownCh:
			return nil
		case <-k.kick:
		case <-ticker.C:
		}
	}
}

// Shutdown stops Run loops and cancels event publishing. Suspended execution
// contexts stay suspended.
func (k *Kernel) Shutdown() {
	k.shutdownOnce.Do(func() {
		close(k.shutdownCh)
		k.cancel()
	})
}

// Yield moves the calling running process to the tail of its class queue and
// suspends it until dispatched again.
func (k *Kernel) Yield(ctx context.Context) error {
	p := pcb.FromContext(ctx)
	k.mu.Lock()
	if err := k.checkCallerLocked(p); err != nil {
		k.mu.Unlock()
		return err
	}
	k.takeLocked(k.running, p.ID)
	from := p.State
	p.State = pcb.StateReady
	dest := k.readyQueue(p.Class)
	k.place(dest, p)
	resume := k.parkLocked(p.ID)
	rec := newRecord(KindYielded, p, from, dest.Name())
	k.assertLocked()
	k.mu.Unlock()

	k.notify(rec)
	k.wake()
	return k.suspend(ctx, resume, "yield")
}

// Self returns a copy of the process owning ctx
func (k *Kernel) Self(ctx context.Context) (*pcb.PCB, error) {
	p := pcb.FromContext(ctx)
	if p == nil {
		return nil, ErrNoProcess
	}
	return k.Process(p.ID)
}

func (k *Kernel) classifyLocked() {
	for k.intake.Len() > 0 {
		p, err := k.intake.Dequeue()
		if err != nil {
			break
		}
		delete(k.owner, p.ID)
		k.place(k.readyQueue(p.Class), p)
	}
}

func (k *Kernel) checkCallerLocked(p *pcb.PCB) error {
	if p == nil {
		return ErrNoProcess
	}
	if k.deleted[p.ID] {
		return fmt.Errorf("process %d: %w", p.ID, ErrDeleted)
	}
	if k.owner[p.ID] != k.running {
		return fmt.Errorf("process %d: %w", p.ID, ErrNoProcess)
	}
	return nil
}

func (k *Kernel) parkLocked(id int) chan error {
	resume := make(chan error, 1)
	k.parked[id] = resume
	return resume
}

func (k *Kernel) suspend(ctx context.Context, resume chan error, reason string) error {
	if span, ok := tracing.SpanFromContext(ctx); ok {
		span.AddEvent("suspended", map[string]string{"reason": reason})
	}
	err := <-resume
	if span, ok := tracing.SpanFromContext(ctx); ok {
		span.AddEvent("resumed", nil)
	}
	return err
}

func (k *Kernel) execute(ctx context.Context, p *pcb.PCB) {
	ctx, span := tracing.StartSpan(pcb.WithProcess(ctx, p), "task.run", tracing.KindInternal)
	span.WithAttributes(map[string]string{
		"pcb.id":    strconv.Itoa(p.ID),
		"pcb.name":  p.Name,
		"pcb.class": string(p.Class),
	})
	var runErr error
	defer func() {
		tracing.EndSpan(span, runErr)
		k.terminate(p)
	}()
	defer func() {
		if r := recover(); r != nil {
			runErr = fmt.Errorf("process %d %q panicked: %v", p.ID, p.Name, r)
			k.logger.Error("kernel: process panicked", "pcb", p.ID, "name", p.Name, "panic", r)
		}
	}()
	p.Entry.Run(ctx)
}

// terminate retires a process whose execution context returned.
func (k *Kernel) terminate(p *pcb.PCB) {
	k.mu.Lock()
	if k.deleted[p.ID] {
		delete(k.deleted, p.ID)
		k.mu.Unlock()
		return
	}
	if k.owner[p.ID] != k.running {
		k.violationLocked(fmt.Errorf("process %d returned while in %s", p.ID, nameOf(k.owner[p.ID])))
		k.mu.Unlock()
		return
	}
	k.takeLocked(k.running, p.ID)
	if err := k.table.Delete(k.ctx, p.ID); err != nil {
		k.violationLocked(fmt.Errorf("process table: %w", err))
	}
	from := p.State
	rec := newRecord(KindTerminated, p, from, QueueRunning)
	rec.transition.To = ""
	k.assertLocked()
	k.mu.Unlock()

	k.notify(rec)
}
