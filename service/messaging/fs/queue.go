package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"
	"github.com/viant/rtk/internal/clock"
	"github.com/viant/rtk/internal/idgen"
	"github.com/viant/rtk/service/messaging"
)

// MessageState represents the state of a message in the filesystem queue
type MessageState string

const (
	MessageStatePending    MessageState = "pending"
	MessageStateProcessing MessageState = "processing"
	MessageStateCompleted  MessageState = "completed"
	MessageStateFailed     MessageState = "failed"
)

// Message implements messaging.Message for the filesystem queue
type Message[T any] struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Data      T            `json:"data"`
	State     MessageState `json:"state"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Retries   int          `json:"retries"`

	queue     *Queue[T]
	processed bool
	mu        sync.Mutex
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack moves the message to the completed directory
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.ID)
	}
	m.processed = true
	m.State = MessageStateCompleted
	m.UpdatedAt = clock.Now()
	return m.queue.settle(context.Background(), m, m.queue.completedDir)
}

// Nack moves the message to the failed directory for a retry, or to the dead
// letter directory once the retry limit is exceeded.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.ID)
	}
	m.processed = true
	m.State = MessageStateFailed
	if err != nil {
		m.Error = err.Error()
	}
	m.Retries++
	m.UpdatedAt = clock.Now()
	dest := m.queue.failedDir
	if m.Retries > m.queue.config.MaxRetries {
		dest = m.queue.dlqDir
	}
	return m.queue.settle(context.Background(), m, dest)
}

// Config holds configuration for filesystem queue
type Config struct {
	BasePath   string
	MaxRetries int
}

// DefaultConfig returns a default queue configuration
func DefaultConfig() Config {
	return Config{
		BasePath:   "/tmp/rtk/events",
		MaxRetries: 3,
	}
}

// Queue implements a filesystem-based messaging.Queue. Each message is a JSON
// file moving through pending, processing, completed, failed and dlq
// directories; file names keep publication order.
type Queue[T any] struct {
	fs            afs.Service
	config        Config
	seq           atomic.Int64
	pendingDir    string
	processingDir string
	completedDir  string
	failedDir     string
	dlqDir        string
	mu            sync.Mutex
}

// NewQueue creates a new filesystem-based queue
func NewQueue[T any](fs afs.Service, config Config) (*Queue[T], error) {
	if config.BasePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	q := &Queue[T]{
		fs:            fs,
		config:        config,
		pendingDir:    path.Join(config.BasePath, "pending"),
		processingDir: path.Join(config.BasePath, "processing"),
		completedDir:  path.Join(config.BasePath, "completed"),
		failedDir:     path.Join(config.BasePath, "failed"),
		dlqDir:        path.Join(config.BasePath, "dlq"),
	}
	ctx := context.Background()
	for _, dir := range []string{q.pendingDir, q.processingDir, q.completedDir, q.failedDir, q.dlqDir} {
		if exists, _ := fs.Exists(ctx, dir); exists {
			continue
		}
		if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return q, nil
}

// Publish writes a new message into the pending directory
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	now := clock.Now()
	message := &Message[T]{
		ID:        idgen.New(),
		Data:      *t,
		State:     MessageStatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	message.Name = fmt.Sprintf("%020d-%08d-%s.json", now.UnixNano(), q.seq.Add(1), message.ID)
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return q.upload(ctx, path.Join(q.pendingDir, message.Name), data)
}

// Consume returns the oldest failed message eligible for a retry, otherwise
// the oldest pending one. It returns a nil message when nothing is queued.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, dir := range []string{q.failedDir, q.pendingDir} {
		message, err := q.claimOldest(ctx, dir)
		if err != nil {
			return nil, err
		}
		if message != nil {
			return message, nil
		}
	}
	return nil, nil
}

func (q *Queue[T]) claimOldest(ctx context.Context, dir string) (*Message[T], error) {
	objects, err := q.fs.List(ctx, dir, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var candidates []storage.Object
	for _, obj := range objects {
		if !obj.IsDir() && strings.HasSuffix(obj.Name(), ".json") {
			candidates = append(candidates, obj)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Name() < candidates[j].Name() })
	obj := candidates[0]

	data, err := q.fs.DownloadWithURL(ctx, obj.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", obj.URL(), err)
	}
	message := &Message[T]{}
	if err = json.Unmarshal(data, message); err != nil {
		_ = q.fs.Move(ctx, obj.URL(), path.Join(q.dlqDir, "invalid-"+obj.Name()))
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", obj.URL(), err)
	}
	message.queue = q
	message.State = MessageStateProcessing
	message.UpdatedAt = clock.Now()
	if data, err = json.Marshal(message); err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	if err = q.upload(ctx, path.Join(q.processingDir, obj.Name()), data); err != nil {
		return nil, fmt.Errorf("failed to move message to processing: %w", err)
	}
	if err = q.fs.Delete(ctx, obj.URL()); err != nil {
		return nil, fmt.Errorf("failed to delete message %s: %w", obj.URL(), err)
	}
	return message, nil
}

func (q *Queue[T]) settle(ctx context.Context, m *Message[T], dir string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err = q.upload(ctx, path.Join(dir, m.Name), data); err != nil {
		return fmt.Errorf("failed to write message to %s: %w", dir, err)
	}
	processing := path.Join(q.processingDir, m.Name)
	if exists, _ := q.fs.Exists(ctx, processing); exists {
		if err = q.fs.Delete(ctx, processing); err != nil {
			return fmt.Errorf("failed to delete message from processing: %w", err)
		}
	}
	return nil
}

func (q *Queue[T]) upload(ctx context.Context, URL string, data []byte) error {
	return q.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data))
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
