// Package redis provides a Redis implementation of the kv.Store interface.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/go-redis/redis/v8"
	"github.com/phrazzld/amora-planner/internal/kv"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "amora:"

// maxUpdateAttempts bounds optimistic retries when a watched key changes
// between read and write.
const maxUpdateAttempts = 10

// ErrContention is returned when Update lost every optimistic retry.
var ErrContention = errors.New("key updated concurrently too many times")

// KVStore implements kv.Store and kv.Updater on a Redis client.
type KVStore struct {
	client *goredis.Client
	prefix string
}

var (
	_ kv.Store   = (*KVStore)(nil)
	_ kv.Updater = (*KVStore)(nil)
)

// NewKVStore returns a store using client. An empty prefix uses DefaultPrefix.
func NewKVStore(client *goredis.Client, prefix string) *KVStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &KVStore{client: client, prefix: prefix}
}

// Connect creates a client for addr and verifies it with PING.
func Connect(ctx context.Context, addr string) (*goredis.Client, error) {
	var opts *goredis.Options
	if parsed, err := goredis.ParseURL(addr); err == nil {
		opts = parsed
	} else {
		opts = &goredis.Options{Addr: addr}
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (s *KVStore) key(key string) string {
	return s.prefix + key
}

// Get implements kv.Store.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := kv.ValidateKey(key); err != nil {
		return nil, err
	}
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, nil
}

// Set implements kv.Store. Values never expire.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := kv.ValidateKey(key); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Delete implements kv.Store.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := kv.ValidateKey(key); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Update implements kv.Updater with WATCH/MULTI: the write is discarded and
// retried if another client changed the key after it was read.
func (s *KVStore) Update(ctx context.Context, key string, fn kv.UpdateFunc) error {
	if err := kv.ValidateKey(key); err != nil {
		return err
	}
	full := s.key(key)

	txf := func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, full).Bytes()
		found := true
		if errors.Is(err, goredis.Nil) {
			found, current = false, nil
		} else if err != nil {
			return fmt.Errorf("failed to read key %s: %w", key, err)
		}

		next, err := fn(current, found)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, full, next, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, full)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("%w: %s", ErrContention, key)
}
