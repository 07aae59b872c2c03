package pcb

import "fmt"

// State represents the scheduling state of a process
type State string

const (
	StateReady   State = "ready"
	StateRunning State = "running"
	StateBlocked State = "blocked"
	// StateDelayed is reserved; no transition enters it.
	StateDelayed State = "delayed"
)

// IsValid returns true for known states
func (s State) IsValid() bool {
	switch s {
	case StateReady, StateRunning, StateBlocked, StateDelayed:
		return true
	}
	return false
}

// Class represents the priority class of a process
type Class string

const (
	// ClassRealTime processes are always dispatched before ClassTimeShared ones.
	ClassRealTime   Class = "realTime"
	ClassTimeShared Class = "timeShared"
)

// IsValid returns true for known classes
func (c Class) IsValid() bool {
	return c == ClassRealTime || c == ClassTimeShared
}

// ParseClass converts a textual class (as used in config files and flags)
func ParseClass(text string) (Class, error) {
	switch text {
	case "realTime", "rt", "RTP", "RT":
		return ClassRealTime, nil
	case "timeShared", "ts", "TSP", "TS":
		return ClassTimeShared, nil
	}
	return "", fmt.Errorf("unsupported process class: %q", text)
}
