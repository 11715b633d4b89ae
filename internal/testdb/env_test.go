package testdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireEnvReturnsValue(t *testing.T) {
	assert.Equal(t, "postgres://x", requireEnv(t, EnvDatabaseURL, "postgres://x"))
}

func TestRequireEnvSkipsWhenUnset(t *testing.T) {
	t.Setenv(EnvRequireIntegration, "")

	skipped := false
	t.Run("inner", func(t *testing.T) {
		defer func() { skipped = t.Skipped() }()
		requireEnv(t, EnvDatabaseURL, "")
	})
	assert.True(t, skipped)
}
