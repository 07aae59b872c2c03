// Package rtk is a teaching real-time kernel substrate.
//
// It provides process control blocks, a two-class strict-priority dispatcher
// and counting semaphores with FIFO wait queues. Service wires the kernel
// with configuration, structured logging, transition events and tracing;
// Runtime drives its dispatch loop.
//
//	srv, _ := rtk.New()
//	rt := srv.Runtime()
//	_ = rt.Start(ctx)
//	id, _ := rt.Kernel().CreateProcess("worker", pcb.ClassRealTime, entry)
//	defer rt.Shutdown(ctx)
package rtk
