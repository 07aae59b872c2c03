package event

import (
	"time"

	"github.com/viant/rtk/service/messaging/fs"
	"github.com/viant/rtk/service/messaging/memory"
)

type Option func(s *Service)

// WithNewFsQueueConfig sets the file system queue configuration factory
func WithNewFsQueueConfig(newConfig func(name string) fs.Config) Option {
	return func(s *Service) {
		s.fsNewQueueConfig = newConfig
	}
}

// WithNewMemoryQueueConfig sets the memory queue configuration factory
func WithNewMemoryQueueConfig(newConfig func(name string) memory.Config) Option {
	return func(s *Service) {
		s.memNewQueueConfig = newConfig
	}
}

// WithPollInterval sets the listener back-off for non-blocking queues
func WithPollInterval(interval time.Duration) Option {
	return func(s *Service) {
		s.poll = interval
	}
}
