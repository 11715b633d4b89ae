package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/phrazzld/amora-planner/internal/kv"
)

const (
	getQuery    = `SELECT value FROM kv_entries WHERE key = $1`
	upsertQuery = `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	deleteQuery = `DELETE FROM kv_entries WHERE key = $1`
	// lockQuery serialises read-modify-write cycles on one key across clients.
	lockQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`
)

// KVStore implements kv.Store and kv.Updater on a kv_entries table.
type KVStore struct {
	db *sql.DB
}

var (
	_ kv.Store   = (*KVStore)(nil)
	_ kv.Updater = (*KVStore)(nil)
)

// NewKVStore returns a store using db. The caller owns db and must have applied
// the migrations (see Migrate).
func NewKVStore(db *sql.DB) *KVStore {
	return &KVStore{db: db}
}

// Get implements kv.Store.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := kv.ValidateKey(key); err != nil {
		return nil, err
	}
	return get(ctx, s.db, key)
}

// Set implements kv.Store.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := kv.ValidateKey(key); err != nil {
		return err
	}
	return set(ctx, s.db, key, value)
}

// Delete implements kv.Store.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := kv.ValidateKey(key); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, deleteQuery, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, MapError(err))
	}
	return nil
}

// Update implements kv.Updater. The whole cycle runs in one transaction holding
// an advisory lock on the key, so concurrent clients sharing the database
// cannot interleave their writes.
func (s *KVStore) Update(ctx context.Context, key string, fn kv.UpdateFunc) error {
	if err := kv.ValidateKey(key); err != nil {
		return err
	}

	return RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, lockQuery, key); err != nil {
			return fmt.Errorf("failed to lock key %s: %w", key, MapError(err))
		}

		current, err := get(ctx, tx, key)
		found := true
		if errors.Is(err, kv.ErrNotFound) {
			found = false
		} else if err != nil {
			return err
		}

		next, err := fn(current, found)
		if err != nil {
			return err
		}
		return set(ctx, tx, key, next)
	})
}

func get(ctx context.Context, db DBTX, key string) ([]byte, error) {
	var value []byte
	err := db.QueryRowContext(ctx, getQuery, key).Scan(&value)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, kv.ErrNotFound) {
			return nil, kv.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read key %s: %w", key, mapped)
	}
	return value, nil
}

func set(ctx context.Context, db DBTX, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	if _, err := db.ExecContext(ctx, upsertQuery, key, value); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, MapError(err))
	}
	return nil
}
