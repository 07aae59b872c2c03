package event

import (
	"context"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/rtk/service/messaging"
	"github.com/viant/rtk/service/messaging/fs"
)

type transition struct {
	From string
	To   string
}

func TestService_Vendors(t *testing.T) {
	baseDir := t.TempDir()
	testCases := []struct {
		name    string
		vendor  messaging.Vendor
		options []Option
	}{
		{name: "memory", vendor: messaging.VendorMemory},
		{
			name:   "fs",
			vendor: messaging.VendorFs,
			options: []Option{
				WithNewFsQueueConfig(func(name string) fs.Config {
					return fs.Config{BasePath: path.Join(baseDir, name), MaxRetries: 1}
				}),
				WithPollInterval(5 * time.Millisecond),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv, err := New(tc.vendor, tc.options...)
			require.NoError(t, err)
			defer srv.Shutdown()

			var mu sync.Mutex
			var received []string
			err = SetListenerOf[transition](context.Background(), srv, func(e *Event[transition]) {
				mu.Lock()
				received = append(received, e.Context.EventType+":"+e.Data.To)
				mu.Unlock()
			})
			require.NoError(t, err)

			publisher, err := PublisherOf[transition](srv)
			require.NoError(t, err)
			same, err := PublisherOf[transition](srv)
			require.NoError(t, err)
			assert.Same(t, publisher, same)

			ctx := context.Background()
			for _, to := range []string{"running", "blocked", "ready"} {
				ev := NewEvent(&Context{ProcessID: 1, EventType: "transition"}, transition{To: to})
				require.NoError(t, publisher.Publish(ctx, ev))
			}

			require.Eventually(t, func() bool {
				mu.Lock()
				defer mu.Unlock()
				return len(received) == 3
			}, 2*time.Second, 5*time.Millisecond)
			mu.Lock()
			assert.Equal(t, []string{"transition:running", "transition:blocked", "transition:ready"}, received)
			mu.Unlock()
		})
	}
}

func TestService_UnsupportedVendor(t *testing.T) {
	_, err := New("kafka")
	assert.Error(t, err)

	_, err = New(messaging.VendorFs)
	assert.Error(t, err)
}
