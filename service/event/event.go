package event

import (
	"time"

	"github.com/viant/rtk/internal/clock"
)

// Context identifies the process a kernel event is about
type Context struct {
	KernelID  string `json:"kernelID"`
	ProcessID int    `json:"processID"`
	Name      string `json:"name"`
	Class     string `json:"class"`
	EventType string `json:"eventType"`
}

// Event wraps a payload with its context
type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

// NewEvent creates an event stamped with the current time
func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Data:      data,
	}
}
