// Package store provides the durable key-value port the cart is persisted
// through, with memory, file and Redis backends.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when the key holds no value.
var ErrNotFound = errors.New("store: key not found")

// ErrConflict is returned by Update when a concurrent writer kept winning.
var ErrConflict = errors.New("store: concurrent update conflict")

// UpdateFunc receives the current value (nil when absent) and returns the
// value to write. Returning nil deletes the key; returning an error aborts
// the update. It may be called more than once if the backend retries.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is a small synchronous blob store. Values are opaque bytes.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error

	// Update performs an atomic read-modify-write of one key.
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
