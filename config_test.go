package rtk

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/rtk/service/messaging"
)

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(c *Config)
		expectErr bool
	}{
		{name: "default", mutate: func(c *Config) {}},
		{name: "polling", mutate: func(c *Config) { c.Scheduler.PollingInterval = 0 }, expectErr: true},
		{name: "vendor", mutate: func(c *Config) { c.Events.Vendor = "kafka" }, expectErr: true},
		{name: "fs base path", mutate: func(c *Config) {
			c.Events.Vendor = messaging.VendorFs
			c.Events.BasePath = ""
		}, expectErr: true},
		{name: "memory buffer", mutate: func(c *Config) { c.Events.Buffer = 0 }, expectErr: true},
		{name: "none ignores buffer", mutate: func(c *Config) {
			c.Events.Vendor = messaging.VendorNone
			c.Events.Buffer = 0
		}},
		{name: "tracing name", mutate: func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.ServiceName = ""
		}, expectErr: true},
		{name: "log level", mutate: func(c *Config) { c.Log.Level = "loud" }, expectErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "rtk.yaml")
	require.NoError(t, os.WriteFile(valid, []byte(`scheduler:
  pollingInterval: 5ms
  assertions: true
events:
  vendor: fs
  basePath: /tmp/rtk-test/events
log:
  level: debug
`), 0644))
	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("events:\n  vendor: kafka\n"), 0644))
	malformed := filepath.Join(dir, "malformed.yaml")
	require.NoError(t, os.WriteFile(malformed, []byte("scheduler: [\n"), 0644))

	ctx := context.Background()
	cfg, err := LoadConfig(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Millisecond, cfg.Scheduler.PollingInterval)
	assert.True(t, cfg.Scheduler.Assertions)
	assert.Equal(t, messaging.VendorFs, cfg.Events.Vendor)
	assert.Equal(t, "/tmp/rtk-test/events", cfg.Events.BasePath)
	assert.Equal(t, 1024, cfg.Events.Buffer)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "rtk", cfg.Tracing.ServiceName)

	_, err = LoadConfig(ctx, invalid)
	assert.Error(t, err)
	_, err = LoadConfig(ctx, malformed)
	assert.Error(t, err)
	_, err = LoadConfig(ctx, filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
