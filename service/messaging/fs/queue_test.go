package fs

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

type TestPayload struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func countFiles(t *testing.T, fs afs.Service, dir string) int {
	objects, err := fs.List(context.Background(), dir)
	require.NoError(t, err)
	count := 0
	for _, obj := range objects {
		if !obj.IsDir() && strings.HasSuffix(obj.Name(), ".json") {
			count++
		}
	}
	return count
}

func TestQueue(t *testing.T) {
	fs := afs.New()
	ctx := context.Background()
	queue, err := NewQueue[TestPayload](fs, Config{BasePath: t.TempDir(), MaxRetries: 2})
	require.NoError(t, err)

	for _, dir := range []string{queue.pendingDir, queue.processingDir, queue.completedDir, queue.failedDir, queue.dlqDir} {
		exists, err := fs.Exists(ctx, dir)
		require.NoError(t, err)
		assert.True(t, exists, dir)
	}

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, queue.Publish(ctx, &TestPayload{ID: id}))
	}
	assert.Equal(t, 3, countFiles(t, fs, queue.pendingDir))

	for i, expect := range []string{"1", "2", "3"} {
		message, err := queue.Consume(ctx)
		require.NoError(t, err)
		require.NotNil(t, message)
		assert.Equal(t, expect, message.T().ID)
		require.NoError(t, message.Ack())
		assert.Equal(t, i+1, countFiles(t, fs, queue.completedDir))
	}
	assert.Equal(t, 0, countFiles(t, fs, queue.processingDir))

	require.NoError(t, queue.Publish(ctx, &TestPayload{ID: "4"}))
	for attempt := 0; attempt <= 2; attempt++ {
		message, err := queue.Consume(ctx)
		require.NoError(t, err)
		require.NotNil(t, message, "attempt %d", attempt)
		assert.Equal(t, "4", message.T().ID)
		require.NoError(t, message.Nack(errors.New("listener failed")))
	}
	assert.Equal(t, 1, countFiles(t, fs, queue.dlqDir))
	assert.Equal(t, 0, countFiles(t, fs, queue.failedDir))

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Nil(t, message)
}

func TestQueueInitialization(t *testing.T) {
	_, err := NewQueue[TestPayload](afs.New(), Config{})
	assert.Error(t, err)
}
