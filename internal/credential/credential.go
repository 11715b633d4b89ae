// Package credential holds the bearer token used to authenticate against the
// backend. The token is persisted through a kv.Store so a session survives a
// restart of the client.
package credential

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/phrazzld/amora-planner/internal/kv"
)

// TokenKey is the storage key of the bearer token.
const TokenKey = "access_token"

// Provider stores and retrieves the current bearer token.
type Provider interface {
	// Token returns the held token, or "" when there is none.
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// KVProvider is a Provider backed by a kv.Store with an in-memory copy of
// the token.
type KVProvider struct {
	store kv.Store

	mu     sync.RWMutex
	token  string
	loaded bool
}

var _ Provider = (*KVProvider)(nil)

// NewKVProvider returns a provider persisting under TokenKey in s.
func NewKVProvider(s kv.Store) *KVProvider {
	return &KVProvider{store: s}
}

// Token implements Provider. The stored value is read once and cached.
func (p *KVProvider) Token(ctx context.Context) (string, error) {
	p.mu.RLock()
	if p.loaded {
		token := p.token
		p.mu.RUnlock()
		return token, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return p.token, nil
	}

	data, err := p.store.Get(ctx, TokenKey)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		p.token = ""
	case err != nil:
		return "", fmt.Errorf("failed to load credential: %w", err)
	default:
		p.token = string(data)
	}
	p.loaded = true
	return p.token, nil
}

// SetToken implements Provider.
func (p *KVProvider) SetToken(ctx context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Set(ctx, TokenKey, []byte(token)); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	p.token = token
	p.loaded = true
	return nil
}

// Clear implements Provider. The in-memory copy is dropped even when the
// store fails, so a rejected token is never sent again by this process.
func (p *KVProvider) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.token = ""
	p.loaded = true
	if err := p.store.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// Static is a Provider holding a token in memory only.
type Static struct {
	mu    sync.RWMutex
	token string
}

var _ Provider = (*Static)(nil)

// NewStatic returns a Static provider preloaded with token.
func NewStatic(token string) *Static {
	return &Static{token: token}
}

// Token implements Provider.
func (s *Static) Token(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// SetToken implements Provider.
func (s *Static) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Clear implements Provider.
func (s *Static) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
