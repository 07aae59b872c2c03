package kernel

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/rtk/model/pcb"
	"github.com/viant/rtk/service/event"
	"github.com/viant/rtk/service/messaging"
)

const (
	waitFor = 2 * time.Second
	tick    = 2 * time.Millisecond
)

func newTestKernel(t *testing.T, options ...Option) *Kernel {
	t.Helper()
	k, err := New(append([]Option{WithAssertions(true)}, options...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		// release suspended contexts so test goroutines can return
		processes, err := k.Processes()
		if err == nil {
			for _, p := range processes {
				_, _ = k.DeleteProcess(p.ID)
			}
		}
		k.Shutdown()
	})
	return k
}

func noop() pcb.Runnable {
	return pcb.RunnableFunc(func(ctx context.Context) {})
}

func blockOn(release chan struct{}) pcb.Runnable {
	return pcb.RunnableFunc(func(ctx context.Context) { <-release })
}

func eventuallyIdle(t *testing.T, k *Kernel) {
	t.Helper()
	require.Eventually(t, func() bool {
		processes, err := k.Processes()
		return err == nil && len(processes) == 0
	}, waitFor, tick)
}

func TestNew(t *testing.T) {
	_, err := New(WithConfig(Config{}))
	require.Error(t, err)

	k, err := New(WithID("k1"))
	require.NoError(t, err)
	assert.Equal(t, "k1", k.ID())
	assert.Equal(t, "k1", k.Stats().KernelID)
}

func TestKernel_CreateProcess(t *testing.T) {
	testCases := []struct {
		name        string
		class       pcb.Class
		entry       pcb.Runnable
		expectError error
	}{
		{name: "real time", class: pcb.ClassRealTime, entry: noop()},
		{name: "time shared", class: pcb.ClassTimeShared, entry: noop()},
		{name: "unknown class", class: pcb.Class("batch"), entry: noop(), expectError: ErrInvalidClass},
		{name: "nil entry", class: pcb.ClassRealTime, expectError: ErrNilEntry},
	}

	k := newTestKernel(t)
	var created []int
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := k.CreateProcess(tc.name, tc.class, tc.entry)
			if tc.expectError != nil {
				require.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			created = append(created, id)

			p, err := k.Process(id)
			require.NoError(t, err)
			assert.Equal(t, tc.name, p.Name)
			assert.Equal(t, tc.class, p.Class)
			assert.Equal(t, pcb.StateReady, p.State)
			assert.Equal(t, pcb.NoSemaphore, p.SemaphoreID)
		})
	}
	assert.Equal(t, []int{0, 1}, created)
	assert.Equal(t, created, k.Snapshot().Intake)
	assert.Equal(t, 2, k.Stats().Created)
	require.NoError(t, k.Verify())
}

func TestKernel_CreateProcessWithRegisters(t *testing.T) {
	k := newTestKernel(t)
	id, err := k.CreateProcess("regs", pcb.ClassTimeShared, noop(), pcb.WithRegisters(pcb.Registers{7, 1, 2, 3}))
	require.NoError(t, err)
	p, err := k.Process(id)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Registers[pcb.RegPC])
}

func TestKernel_StepPriority(t *testing.T) {
	k := newTestKernel(t)
	release := make(chan struct{})

	classes := []pcb.Class{pcb.ClassTimeShared, pcb.ClassRealTime, pcb.ClassTimeShared, pcb.ClassRealTime, pcb.ClassTimeShared}
	for _, class := range classes {
		_, err := k.CreateProcess(string(class), class, blockOn(release))
		require.NoError(t, err)
	}

	var dispatched []int
	for range classes {
		p, err := k.Step(context.Background())
		require.NoError(t, err)
		assert.Equal(t, pcb.StateRunning, p.State)
		dispatched = append(dispatched, p.ID)
	}
	assert.Equal(t, []int{1, 3, 0, 2, 4}, dispatched)
	assert.Equal(t, dispatched, k.Snapshot().Running)

	_, err := k.Step(context.Background())
	require.ErrorIs(t, err, ErrEmptyQueue)

	close(release)
	eventuallyIdle(t, k)
	require.Eventually(t, func() bool { return k.Stats().Terminated == 5 }, waitFor, tick)
	require.NoError(t, k.Verify())
}

func TestKernel_PriorityInvariant(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		rng := rand.New(rand.NewSource(seed))
		k := newTestKernel(t)
		release := make(chan struct{})

		var realTime, timeShared []int
		for i := 0; i < 30; i++ {
			class := pcb.ClassTimeShared
			if rng.Intn(2) == 0 {
				class = pcb.ClassRealTime
			}
			id, err := k.CreateProcess("p", class, blockOn(release))
			require.NoError(t, err)
			if class == pcb.ClassRealTime {
				realTime = append(realTime, id)
			} else {
				timeShared = append(timeShared, id)
			}
		}

		var dispatched []int
		for {
			p, err := k.Step(context.Background())
			if err != nil {
				require.ErrorIs(t, err, ErrEmptyQueue)
				break
			}
			dispatched = append(dispatched, p.ID)
		}
		assert.Equal(t, append(realTime, timeShared...), dispatched, "seed %d", seed)
		close(release)
		eventuallyIdle(t, k)
	}
}

func TestKernel_AdministrativeTransitions(t *testing.T) {
	k := newTestKernel(t)
	release := make(chan struct{})
	defer close(release)

	a, err := k.CreateProcess("a", pcb.ClassTimeShared, blockOn(release))
	require.NoError(t, err)
	b, err := k.CreateProcess("b", pcb.ClassRealTime, blockOn(release))
	require.NoError(t, err)

	require.NoError(t, k.Block(a))
	require.NoError(t, k.Block(a))
	snapshot := k.Snapshot()
	assert.Equal(t, []int{a}, snapshot.Blocked)
	assert.Equal(t, []int{b}, snapshot.Intake)
	p, err := k.Process(a)
	require.NoError(t, err)
	assert.Equal(t, pcb.StateBlocked, p.State)

	require.ErrorIs(t, k.Unblock(b), ErrInvalidTransition)
	require.NoError(t, k.Unblock(a))
	require.NoError(t, k.MakeReady(b))
	snapshot = k.Snapshot()
	assert.Equal(t, []int{a}, snapshot.TSQ)
	assert.Equal(t, []int{b}, snapshot.RTQ)
	assert.Empty(t, snapshot.Intake)
	assert.Empty(t, snapshot.Blocked)

	running, err := k.Step(context.Background())
	require.NoError(t, err)
	require.Equal(t, b, running.ID)
	require.ErrorIs(t, k.Block(b), ErrInvalidTransition)
	require.ErrorIs(t, k.MakeReady(b), ErrInvalidTransition)
	require.ErrorIs(t, k.Unblock(b), ErrInvalidTransition)

	found, err := k.DeleteProcess(a)
	require.NoError(t, err)
	assert.True(t, found)
	_, err = k.Process(a)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, k.Stats().Deleted)
	require.NoError(t, k.Verify())
}

func TestKernel_UnknownProcess(t *testing.T) {
	k := newTestKernel(t)
	_, err := k.CreateProcess("a", pcb.ClassTimeShared, noop())
	require.NoError(t, err)
	before := k.Snapshot()

	require.ErrorIs(t, k.MakeReady(99), ErrNotFound)
	require.ErrorIs(t, k.Block(99), ErrNotFound)
	require.ErrorIs(t, k.Unblock(99), ErrNotFound)
	found, err := k.DeleteProcess(99)
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, found)

	assert.Equal(t, before, k.Snapshot())
	require.NoError(t, k.Verify())
}

func TestKernel_Processes(t *testing.T) {
	k := newTestKernel(t)
	a, err := k.CreateProcess("a", pcb.ClassTimeShared, noop())
	require.NoError(t, err)
	b, err := k.CreateProcess("b", pcb.ClassTimeShared, noop())
	require.NoError(t, err)
	require.NoError(t, k.Block(b))

	all, err := k.Processes()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a, all[0].ID)

	blocked, err := k.Processes(pcb.StateBlocked)
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, b, blocked[0].ID)

	either, err := k.Processes(pcb.StateBlocked, pcb.StateReady)
	require.NoError(t, err)
	assert.Len(t, either, 2)

	// returned processes are copies
	all[0].State = pcb.StateDelayed
	p, err := k.Process(a)
	require.NoError(t, err)
	assert.Equal(t, pcb.StateReady, p.State)
}

func TestKernel_PanickingEntry(t *testing.T) {
	k := newTestKernel(t)
	_, err := k.CreateProcess("boom", pcb.ClassRealTime, pcb.RunnableFunc(func(ctx context.Context) {
		panic("boom")
	}))
	require.NoError(t, err)
	_, err = k.Step(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return k.Stats().Terminated == 1 }, waitFor, tick)
	require.NoError(t, k.Verify())
}

func TestKernel_Run(t *testing.T) {
	k := newTestKernel(t, WithConfig(Config{PollingInterval: 5 * time.Millisecond, Assertions: true}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- k.Run(ctx) }()

	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		class := pcb.ClassTimeShared
		if i%3 == 0 {
			class = pcb.ClassRealTime
		}
		_, err := k.CreateProcess("worker", class, pcb.RunnableFunc(func(ctx context.Context) {
			defer wg.Done()
			assert.NotNil(t, pcb.FromContext(ctx))
			count.Add(1)
		}))
		require.NoError(t, err)
	}
	wg.Wait()
	assert.EqualValues(t, 10, count.Load())
	eventuallyIdle(t, k)

	k.Shutdown()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("run loop did not stop")
	}
}

func TestKernel_RunCancelled(t *testing.T) {
	k := newTestKernel(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- k.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(waitFor):
		t.Fatal("run loop did not stop")
	}
}

func TestKernel_Self(t *testing.T) {
	k := newTestKernel(t)
	_, err := k.Self(context.Background())
	require.ErrorIs(t, err, ErrNoProcess)

	self := make(chan *pcb.PCB, 1)
	id, err := k.CreateProcess("me", pcb.ClassTimeShared, pcb.RunnableFunc(func(ctx context.Context) {
		p, _ := k.Self(ctx)
		self <- p
	}))
	require.NoError(t, err)
	_, err = k.Step(context.Background())
	require.NoError(t, err)
	p := <-self
	require.NotNil(t, p)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, pcb.StateRunning, p.State)
}

func TestKernel_PublishesTransitions(t *testing.T) {
	srv, err := event.New(messaging.VendorMemory)
	require.NoError(t, err)
	defer srv.Shutdown()
	publisher, err := event.PublisherOf[Transition](srv)
	require.NoError(t, err)

	k := newTestKernel(t, WithPublisher(publisher), WithID("k-events"))
	id, err := k.CreateProcess("a", pcb.ClassTimeShared, noop())
	require.NoError(t, err)
	_, err = k.Step(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	var kinds []Kind
	for i := 0; i < 3; i++ {
		ev, err := publisher.Consume(ctx)
		require.NoError(t, err)
		require.NotNil(t, ev)
		assert.Equal(t, "k-events", ev.Context.KernelID)
		assert.Equal(t, id, ev.Data.ProcessID)
		kinds = append(kinds, ev.Data.Kind)
	}
	assert.Equal(t, []Kind{KindCreated, KindDispatched, KindTerminated}, kinds)
}
