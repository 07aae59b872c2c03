package idgen

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// NewFunc returns a new globally unique identifier as string.
var NewFunc = func() string { return uuid.New().String() }

func New() string { return NewFunc() }

// Sequence hands out monotonically increasing identifiers starting at the
// seed; identifiers are never reused.
type Sequence struct {
	next atomic.Int64
}

// NewSequence creates a sequence whose first identifier is seed
func NewSequence(seed int) *Sequence {
	ret := &Sequence{}
	ret.next.Store(int64(seed))
	return ret
}

// Next returns the next identifier
func (s *Sequence) Next() int {
	return int(s.next.Add(1) - 1)
}

// Peek returns the identifier the next call to Next will return
func (s *Sequence) Peek() int {
	return int(s.next.Load())
}
