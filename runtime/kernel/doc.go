// Package kernel implements the process scheduler and counting semaphores.
//
// Processes are created into an intake queue, classified into the real-time
// (RTQ) or time-shared (TSQ) ready queue and dispatched with strict priority:
// TSQ is served only while RTQ is empty, so a steady stream of real-time work
// starves time-shared work. A dispatched process runs on its own goroutine
// until it returns, yields or waits on a semaphore; there is no preemption.
package kernel
