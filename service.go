package rtk

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/viant/rtk/logging"
	"github.com/viant/rtk/runtime/kernel"
	"github.com/viant/rtk/service/event"
	"github.com/viant/rtk/service/messaging"
	"github.com/viant/rtk/service/messaging/fs"
	"github.com/viant/rtk/service/messaging/memory"
	"github.com/viant/rtk/tracing"
)

// Service wires the kernel with its event transport, logging and tracing
type Service struct {
	config        *Config
	runtime       *Runtime
	eventService  *event.Service
	kernelOptions []kernel.Option
	listeners     []func(*event.Event[kernel.Transition])
	logger        *slog.Logger
	logFile       io.Closer
}

// New creates a service from DefaultConfig adjusted by options
func New(options ...Option) (*Service, error) {
	return NewFromConfig(DefaultConfig(), options...)
}

// NewFromConfig creates a service from config adjusted by options
func NewFromConfig(config *Config, options ...Option) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	ret := &Service{config: config}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(); err != nil {
		ret.close()
		return nil, err
	}
	return ret, nil
}

func (s *Service) init() error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := s.ensureLogger(); err != nil {
		return err
	}
	if s.config.Tracing.Enabled {
		t := s.config.Tracing
		if err := tracing.Init(t.ServiceName, t.ServiceVersion, t.OutputFile); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
	}

	kernelOptions := []kernel.Option{kernel.WithConfig(s.config.Scheduler), kernel.WithLogger(s.logger)}
	if err := s.ensureEventService(); err != nil {
		return err
	}
	if s.eventService != nil {
		publisher, err := event.PublisherOf[kernel.Transition](s.eventService)
		if err != nil {
			return fmt.Errorf("failed to create transition publisher: %w", err)
		}
		kernelOptions = append(kernelOptions, kernel.WithPublisher(publisher))
	}
	k, err := kernel.New(append(kernelOptions, s.kernelOptions...)...)
	if err != nil {
		return err
	}
	if s.eventService != nil {
		if err = event.SetListenerOf[kernel.Transition](context.Background(), s.eventService, s.onTransition); err != nil {
			return fmt.Errorf("failed to start transition listener: %w", err)
		}
	}
	s.runtime = &Runtime{kernel: k, service: s}
	return nil
}

func (s *Service) ensureLogger() error {
	if s.logger != nil {
		return nil
	}
	logCfg := s.config.Log
	if logCfg.File == "" && logCfg.Level == "" {
		s.logger = slog.Default()
		return nil
	}
	var w io.Writer = os.Stderr
	if logCfg.File != "" {
		f, err := logging.Open(logCfg.File)
		if err != nil {
			return err
		}
		s.logFile = f
		w = f
	}
	s.logger = logging.Init(w, logCfg.Level)
	return nil
}

func (s *Service) ensureEventService() error {
	if s.eventService != nil || s.config.Events.Vendor == messaging.VendorNone {
		return nil
	}
	events := s.config.Events
	var opts []event.Option
	switch events.Vendor {
	case messaging.VendorFs:
		opts = append(opts, event.WithNewFsQueueConfig(func(name string) fs.Config {
			return fs.Config{BasePath: path.Join(events.BasePath, name), MaxRetries: events.MaxRetries}
		}))
	case messaging.VendorMemory:
		opts = append(opts, event.WithNewMemoryQueueConfig(func(name string) memory.Config {
			cfg := memory.DefaultConfig()
			cfg.QueueBuffer = events.Buffer
			cfg.MaxRetries = events.MaxRetries
			return cfg
		}))
	}
	srv, err := event.New(events.Vendor, opts...)
	if err != nil {
		return fmt.Errorf("failed to create event service: %w", err)
	}
	s.eventService = srv
	return nil
}

func (s *Service) onTransition(ev *event.Event[kernel.Transition]) {
	t := ev.Data
	name := ""
	if ev.Context != nil {
		name = ev.Context.Name
	}
	s.logger.Info("process transition",
		"pcb", t.ProcessID,
		"name", name,
		"kind", t.Kind,
		"from", t.From,
		"to", t.To,
		"queue", t.Queue)
	for _, listener := range s.listeners {
		listener(ev)
	}
}

// Runtime returns the runtime
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Config returns the effective configuration
func (s *Service) Config() *Config {
	return s.config
}

// EventService returns the event service or nil when events are disabled
func (s *Service) EventService() *event.Service {
	return s.eventService
}

func (s *Service) close() error {
	if s.eventService != nil {
		s.eventService.Shutdown()
	}
	if s.logFile != nil {
		err := s.logFile.Close()
		s.logFile = nil
		return err
	}
	return nil
}
