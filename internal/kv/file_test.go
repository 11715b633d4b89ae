package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	s, err := NewFileStore(fsys, "/data")
	require.NoError(t, err)

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "absent")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "offline_mode", []byte("true")))
		got, err := s.Get(ctx, "offline_mode")
		require.NoError(t, err)
		assert.Equal(t, "true", string(got))

		exists, err := afero.Exists(fsys, "/data/offline_mode.json")
		require.NoError(t, err)
		assert.True(t, exists)
		tmpExists, _ := afero.Exists(fsys, "/data/offline_mode.json.tmp")
		assert.False(t, tmpExists)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "k", []byte("one")))
		require.NoError(t, s.Set(ctx, "k", []byte("two")))
		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "two", string(got))
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "gone", []byte("x")))
		require.NoError(t, s.Delete(ctx, "gone"))
		require.NoError(t, s.Delete(ctx, "gone"))
		_, err := s.Get(ctx, "gone")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid keys", func(t *testing.T) {
		for _, key := range []string{"", "../escape", `a\b`, ".."} {
			assert.ErrorIs(t, s.Set(ctx, key, nil), ErrInvalidKey, key)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Get(cctx, "k")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()

	first, err := NewFileStore(fsys, "/state")
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "access_token", []byte("abc")))

	second, err := NewFileStore(fsys, "/state")
	require.NoError(t, err)
	got, err := second.Get(ctx, "access_token")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := Update(ctx, s, "counter", func(current []byte, found bool) ([]byte, error) {
		assert.False(t, found)
		assert.Nil(t, current)
		return []byte("1"), nil
	})
	require.NoError(t, err)

	err = Update(ctx, s, "counter", func(current []byte, found bool) ([]byte, error) {
		assert.True(t, found)
		return append(current, '1'), nil
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "11", string(got))

	boom := errors.New("boom")
	err = Update(ctx, s, "counter", func([]byte, bool) ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	got, _ = s.Get(ctx, "counter")
	assert.Equal(t, "11", string(got), "a failed update leaves the value untouched")
}
