// Package model contains the in-memory representation of kernel entities.
//
// The only entity the kernel schedules is the process control block defined
// in the `pcb` sub-package; queues, semaphores and the dispatcher live under
// `runtime` and refer to PCBs by pointer while they own them.
package model
