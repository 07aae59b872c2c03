package kernel

import (
	"log/slog"

	"github.com/viant/rtk/model/pcb"
	"github.com/viant/rtk/service/dao"
	"github.com/viant/rtk/service/event"
)

// Option customises a Kernel
type Option func(k *Kernel)

// WithConfig sets the dispatcher configuration
func WithConfig(config Config) Option {
	return func(k *Kernel) {
		k.config = config
	}
}

// WithAssertions toggles invariant verification after every transition
func WithAssertions(enabled bool) Option {
	return func(k *Kernel) {
		k.config.Assertions = enabled
	}
}

// WithPublisher sets the publisher receiving transition events
func WithPublisher(publisher *event.Publisher[Transition]) Option {
	return func(k *Kernel) {
		k.publisher = publisher
	}
}

// WithProcessTable sets the process table store
func WithProcessTable(table dao.Service[int, pcb.PCB]) Option {
	return func(k *Kernel) {
		k.table = table
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(k *Kernel) {
		k.logger = logger
	}
}

// WithID sets the kernel instance identifier
func WithID(id string) Option {
	return func(k *Kernel) {
		k.id = id
	}
}
