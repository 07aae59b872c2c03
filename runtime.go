package rtk

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/viant/rtk/progress"
	"github.com/viant/rtk/runtime/kernel"
	"github.com/viant/rtk/tracing"
)

// Runtime drives the kernel dispatch loop
type Runtime struct {
	kernel  *kernel.Kernel
	service *Service
	mu      sync.Mutex
	done    chan error
}

// Kernel returns the kernel
func (r *Runtime) Kernel() *kernel.Kernel {
	return r.kernel
}

// Stats returns transition counters
func (r *Runtime) Stats() progress.Progress {
	return r.kernel.Stats()
}

// Start runs the dispatch loop in the background
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return fmt.Errorf("runtime already started")
	}
	done := make(chan error, 1)
	r.done = done
	go func() {
		done <- r.kernel.Run(ctx)
	}()
	return nil
}

// Shutdown stops the dispatch loop, event listeners and tracing
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.kernel.Shutdown()
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	var errs []error
	if done != nil {
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				errs = append(errs, err)
			}
			r.mu.Lock()
			r.done = nil
			r.mu.Unlock()
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}
	}
	if err := r.service.close(); err != nil {
		errs = append(errs, err)
	}
	if r.service.config.Tracing.Enabled {
		if err := tracing.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
