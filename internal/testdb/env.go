package testdb

import (
	"os"
	"testing"
)

// Environment variables read by this package.
const (
	EnvDatabaseURL        = "AMORA_TEST_DATABASE_URL"
	EnvRedisAddr          = "AMORA_TEST_REDIS_ADDR"
	EnvRequireIntegration = "AMORA_REQUIRE_INTEGRATION"
)

// DatabaseURL returns the PostgreSQL URL for integration tests, or "".
func DatabaseURL() string {
	return os.Getenv(EnvDatabaseURL)
}

// RedisAddr returns the Redis address for integration tests, or "".
func RedisAddr() string {
	return os.Getenv(EnvRedisAddr)
}

// requireEnv returns the value of name. An unset variable skips the test, or
// fails it when integration tests are mandatory.
func requireEnv(t testing.TB, name, value string) string {
	t.Helper()
	if value != "" {
		return value
	}
	if os.Getenv(EnvRequireIntegration) != "" {
		t.Fatalf("%s must be set when %s is set", name, EnvRequireIntegration)
	}
	t.Skipf("%s not set, skipping integration test", name)
	return ""
}
