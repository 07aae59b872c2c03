// Package event carries typed kernel events over a vendor-selected
// messaging queue (in-memory channel or afs-backed directories).
package event

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/rtk/service/messaging"
	"github.com/viant/rtk/service/messaging/fs"
	"github.com/viant/rtk/service/messaging/memory"
)

// Service owns one publisher and at most one listener per event payload type
type Service struct {
	typedPublishers   map[reflect.Type]any
	typedListeners    map[reflect.Type]stopper
	mux               sync.RWMutex
	queueVendor       messaging.Vendor
	fsNewQueueConfig  func(name string) fs.Config
	memNewQueueConfig func(name string) memory.Config
	poll              time.Duration
}

type stopper interface{ Stop() }

// New creates an event service for the supplied vendor
func New(queueVendor messaging.Vendor, opts ...Option) (*Service, error) {
	ret := &Service{
		queueVendor:     queueVendor,
		typedPublishers: make(map[reflect.Type]any),
		typedListeners:  make(map[reflect.Type]stopper),
	}
	for _, opt := range opts {
		opt(ret)
	}
	switch queueVendor {
	case messaging.VendorFs:
		if ret.fsNewQueueConfig == nil {
			return nil, fmt.Errorf("fs queue vendor requires fsNewQueueConfig")
		}
	case messaging.VendorMemory:
		if ret.memNewQueueConfig == nil {
			ret.memNewQueueConfig = func(string) memory.Config { return memory.DefaultConfig() }
		}
	default:
		return nil, fmt.Errorf("unsupported queue vendor: %s", queueVendor)
	}
	return ret, nil
}

// Vendor returns the queue vendor
func (s *Service) Vendor() messaging.Vendor {
	return s.queueVendor
}

// QueueOf creates a named queue of the service vendor
func QueueOf[T any](s *Service, name string) (messaging.Queue[T], error) {
	switch s.queueVendor {
	case messaging.VendorFs:
		return fs.NewQueue[T](afs.New(), s.fsNewQueueConfig(name))
	case messaging.VendorMemory:
		return memory.NewQueue[T](s.memNewQueueConfig(name)), nil
	}
	return nil, fmt.Errorf("unsupported queue vendor: %s", s.queueVendor)
}

func keyOf[T any]() reflect.Type {
	rType := reflect.TypeOf((*T)(nil)).Elem()
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	return rType
}

// PublisherOf returns the publisher for the provided payload type
func PublisherOf[T any](s *Service) (*Publisher[T], error) {
	key := keyOf[T]()
	s.mux.Lock()
	defer s.mux.Unlock()
	if ret, ok := s.typedPublishers[key]; ok {
		return ret.(*Publisher[T]), nil
	}
	queue, err := QueueOf[Event[T]](s, queueName(key))
	if err != nil {
		return nil, err
	}
	publisher := NewPublisher[T](queue)
	s.typedPublishers[key] = publisher
	return publisher, nil
}

// SetListenerOf replaces the listener for the provided payload type
func SetListenerOf[T any](ctx context.Context, s *Service, handler func(*Event[T])) error {
	publisher, err := PublisherOf[T](s)
	if err != nil {
		return err
	}
	key := keyOf[T]()
	s.mux.Lock()
	previous := s.typedListeners[key]
	listener := NewListener[T](publisher, handler, s.poll)
	s.typedListeners[key] = listener
	s.mux.Unlock()
	if previous != nil {
		previous.Stop()
	}
	listener.Start(ctx)
	return nil
}

// Shutdown stops every listener
func (s *Service) Shutdown() {
	s.mux.Lock()
	listeners := s.typedListeners
	s.typedListeners = make(map[reflect.Type]stopper)
	s.mux.Unlock()
	for _, listener := range listeners {
		listener.Stop()
	}
}

func queueName(key reflect.Type) string {
	name := key.String()
	ret := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			ret = append(ret, r)
		default:
			ret = append(ret, '_')
		}
	}
	return string(ret)
}
