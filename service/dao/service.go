// Package dao defines the storage abstraction used for kernel tables such as
// the process table. Implementations must be safe for concurrent use.
package dao

import (
	"context"
)

// Service stores entities of type T keyed by K
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
