package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/amora-planner/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore fails every operation.
type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingStore) Set(context.Context, string, []byte) error   { return f.err }
func (f failingStore) Delete(context.Context, string) error        { return f.err }

func TestKVProvider(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	p := NewKVProvider(store)

	token, err := p.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, p.SetToken(ctx, "abc.def.ghi"))
	token, err = p.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	// A fresh provider over the same store sees the persisted token.
	reopened := NewKVProvider(store)
	token, err = reopened.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	require.NoError(t, p.Clear(ctx))
	token, err = p.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	_, err = store.Get(ctx, TokenKey)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestKVProviderStorageErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	p := NewKVProvider(failingStore{err: boom})

	_, err := p.Token(ctx)
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, p.SetToken(ctx, "x"), boom)

	err = p.Clear(ctx)
	assert.ErrorIs(t, err, boom)
	token, tokenErr := p.Token(ctx)
	require.NoError(t, tokenErr)
	assert.Empty(t, token, "clear drops the in-memory token even if the store fails")
}

func TestStatic(t *testing.T) {
	ctx := context.Background()
	s := NewStatic("t1")
	token, _ := s.Token(ctx)
	assert.Equal(t, "t1", token)
	require.NoError(t, s.SetToken(ctx, "t2"))
	token, _ = s.Token(ctx)
	assert.Equal(t, "t2", token)
	require.NoError(t, s.Clear(ctx))
	token, _ = s.Token(ctx)
	assert.Empty(t, token)
}
