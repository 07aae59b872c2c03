package kernel

import (
	"fmt"
	"time"
)

// Config represents dispatcher configuration
type Config struct {
	// PollingInterval bounds how long an idle dispatch loop sleeps when no
	// transition wakes it up.
	PollingInterval time.Duration `json:"pollingInterval" yaml:"pollingInterval"`

	// Assertions makes every transition verify all kernel invariants and
	// panic on violation. Meant for development and tests.
	Assertions bool `json:"assertions" yaml:"assertions"`
}

// DefaultConfig returns the default dispatcher configuration
func DefaultConfig() Config {
	return Config{
		PollingInterval: 20 * time.Millisecond,
	}
}

// Validate returns an error describing invalid settings or nil.
func (c Config) Validate() error {
	if c.PollingInterval <= 0 {
		return fmt.Errorf("scheduler.pollingInterval must be > 0")
	}
	return nil
}
