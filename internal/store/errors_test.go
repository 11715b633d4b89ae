package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/amora-planner/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCategory(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorCategory
	}{
		{"nil error", nil, CategoryNone},
		{"generic error", errors.New("some error"), CategoryUnknown},
		{"unauthorized", fmt.Errorf("get user: %w", ErrUnauthorized), CategoryUnauthorized},
		{"network", fmt.Errorf("list: %w", ErrNetworkUnreachable), CategoryNetworkUnreachable},
		{"request error", NewRequestError(http.StatusNotFound, "Simulation not found"), CategoryRequestFailed},
		{"login wraps unauthorized", AuthenticationError(ErrUnauthorized), CategoryAuthenticationFailed},
		{"login wraps network", AuthenticationError(ErrNetworkUnreachable), CategoryAuthenticationFailed},
		{"validation", fmt.Errorf("%w: bad", domain.ErrValidation), CategoryValidationFailed},
		{"offline", ErrOfflineBlocked, CategoryOfflineBlocked},
		{"storage", fmt.Errorf("%w: disk full", ErrStorageFailed), CategoryStorageFailed},
		{"canceled", fmt.Errorf("create: %w", context.Canceled), CategoryCanceled},
	}

	seen := map[string]ErrorCategory{}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Category(tc.err)
			assert.Equal(t, tc.expected, got)
			if got != CategoryNone {
				msg := got.Message()
				assert.NotEmpty(t, msg)
				if other, ok := seen[msg]; ok {
					assert.Equal(t, other, got, "distinct categories must have distinct messages")
				}
				seen[msg] = got
			}
		})
	}
}

func TestAuthenticationErrorKeepsCause(t *testing.T) {
	err := AuthenticationError(ErrNetworkUnreachable)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.ErrorIs(t, err, ErrNetworkUnreachable)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestRequestError(t *testing.T) {
	err := fmt.Errorf("update simulation: %w", NewRequestError(http.StatusBadRequest, "Email already registered"))

	var reqErr *RequestError
	assert.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
	assert.Equal(t, "Email already registered", reqErr.Message)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "Email already registered")
}

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, Page{Skip: 0, Limit: DefaultLimit}, Page{}.Normalize())
	assert.Equal(t, Page{Skip: 0, Limit: 5}, Page{Skip: -3, Limit: 5}.Normalize())
	assert.Equal(t, Page{Skip: 10, Limit: DefaultLimit}, Page{Skip: 10, Limit: -1}.Normalize())
}

func TestRetryable(t *testing.T) {
	assert.True(t, CategoryNetworkUnreachable.Retryable())
	assert.False(t, CategoryUnauthorized.Retryable())
	assert.False(t, CategoryValidationFailed.Retryable())
}
