package rtk

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/rtk/logging"
	"github.com/viant/rtk/runtime/kernel"
	"github.com/viant/rtk/service/messaging"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the runtime configuration. The
// zero-value of each section inherits package defaults through DefaultConfig.
type Config struct {
	Scheduler kernel.Config `json:"scheduler" yaml:"scheduler"`
	Events    EventsConfig  `json:"events" yaml:"events"`
	Tracing   TracingConfig `json:"tracing" yaml:"tracing"`
	Log       LogConfig     `json:"log" yaml:"log"`
}

// EventsConfig selects the transport of kernel transition events
type EventsConfig struct {
	// Vendor is memory, fs or none
	Vendor     messaging.Vendor `json:"vendor" yaml:"vendor"`
	BasePath   string           `json:"basePath,omitempty" yaml:"basePath,omitempty"`
	Buffer     int              `json:"buffer,omitempty" yaml:"buffer,omitempty"`
	MaxRetries int              `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
}

// TracingConfig configures the OpenTelemetry stdout exporter
type TracingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	ServiceName    string `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
	ServiceVersion string `json:"serviceVersion,omitempty" yaml:"serviceVersion,omitempty"`
	OutputFile     string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

// LogConfig configures the default slog logger. Empty values leave it untouched.
type LogConfig struct {
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	File  string `json:"file,omitempty" yaml:"file,omitempty"`
}

// DefaultConfig returns a Config populated with default values. Callers may
// modify the returned struct before passing it to NewFromConfig.
func DefaultConfig() *Config {
	return &Config{
		Scheduler: kernel.DefaultConfig(),
		Events: EventsConfig{
			Vendor:     messaging.VendorMemory,
			BasePath:   "/tmp/rtk/events",
			Buffer:     1024,
			MaxRetries: 3,
		},
		Tracing: TracingConfig{
			ServiceName:    "rtk",
			ServiceVersion: "dev",
		},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	switch c.Events.Vendor {
	case messaging.VendorMemory:
		if c.Events.Buffer <= 0 {
			return fmt.Errorf("events.buffer must be > 0")
		}
	case messaging.VendorFs:
		if c.Events.BasePath == "" {
			return fmt.Errorf("events.basePath is required for the fs vendor")
		}
	case messaging.VendorNone:
	default:
		return fmt.Errorf("events.vendor %q is not supported", c.Events.Vendor)
	}
	if c.Events.MaxRetries < 0 {
		return fmt.Errorf("events.maxRetries must be >= 0")
	}
	if c.Tracing.Enabled && c.Tracing.ServiceName == "" {
		return fmt.Errorf("tracing.serviceName is required when tracing is enabled")
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("log.level %q is not supported", c.Log.Level)
	}
	return nil
}

// LoadConfig reads a YAML configuration from URL on top of DefaultConfig
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", URL, err)
	}
	ret := DefaultConfig()
	if err = yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", URL, err)
	}
	if err = ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", URL, err)
	}
	return ret, nil
}
