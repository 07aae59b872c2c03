package store

import (
	"context"
	"sort"
	"sync"

	"github.com/viant/rtk/service/dao"
)

// MemoryStore is a generic in-memory implementation of dao.Service keeping
// entities of type *T mapped by an ordered key K. The key is obtained from
// the supplied keySelector function; List returns records ordered by key and
// narrowed by the optional matcher.
type MemoryStore[K int | int64 | string, T any] struct {
	mu          sync.RWMutex
	records     map[K]*T
	keySelector func(*T) K
	matcher     func(*T, []*dao.Parameter) bool
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore[K int | int64 | string, T any](keySelector func(*T) K, matcher func(*T, []*dao.Parameter) bool) *MemoryStore[K, T] {
	return &MemoryStore[K, T]{
		records:     make(map[K]*T),
		keySelector: keySelector,
		matcher:     matcher,
	}
}

// Save stores or overwrites a record.
func (s *MemoryStore[K, T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = v
	return nil
}

// Load returns a record by key.
func (s *MemoryStore[K, T]) Load(_ context.Context, key K) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return v, nil
}

// Delete removes a record.
func (s *MemoryStore[K, T]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return dao.ErrNotFound
	}
	delete(s.records, key)
	return nil
}

// List returns stored records matching the parameters.
func (s *MemoryStore[K, T]) List(_ context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]K, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]*T, 0, len(keys))
	for _, k := range keys {
		v := s.records[k]
		if s.matcher != nil && !s.matcher(v, parameters) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *MemoryStore[K, T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ dao.Service[int, struct{}] = (*MemoryStore[int, struct{}])(nil)
