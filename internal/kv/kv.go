// Package kv is a minimal durable key/value abstraction for client-side state.
// The local simulation store, the credential provider and the connectivity
// override all persist through it, so any backend implementing Store (files,
// postgres, redis) can hold offline data.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("key not found")

// ErrInvalidKey is returned for keys that are empty or contain path separators.
var ErrInvalidKey = errors.New("invalid key")

// Store persists opaque values under string keys. Errors are always returned
// to the caller; a Store never decides that a failure is ignorable.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// UpdateFunc receives the current value (nil and found=false when absent) and
// returns the value to store.
type UpdateFunc func(current []byte, found bool) ([]byte, error)

// Updater is implemented by stores that can apply a read-modify-write
// atomically across processes.
type Updater interface {
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// Update applies fn to the value at key. Stores implementing Updater do so
// atomically; for the rest it is a Get followed by a Set, and callers must
// serialise concurrent updates themselves.
func Update(ctx context.Context, s Store, key string, fn UpdateFunc) error {
	if u, ok := s.(Updater); ok {
		return u.Update(ctx, key, fn)
	}

	current, err := s.Get(ctx, key)
	found := true
	if errors.Is(err, ErrNotFound) {
		found = false
	} else if err != nil {
		return err
	}

	next, err := fn(current, found)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, next)
}

// ValidateKey rejects keys that cannot be stored portably.
func ValidateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
