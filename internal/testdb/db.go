package testdb

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/phrazzld/amora-planner/internal/platform/postgres"
	"github.com/phrazzld/amora-planner/internal/platform/redis"
	"github.com/stretchr/testify/require"
)

// TestTimeout bounds connection setup.
const TestTimeout = 10 * time.Second

// GetTestDBWithT opens the integration database, applies the migrations and
// closes the connection when the test ends.
func GetTestDBWithT(t testing.TB) *sql.DB {
	t.Helper()
	url := requireEnv(t, EnvDatabaseURL, DatabaseURL())

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := postgres.Open(ctx, url)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	require.NoError(t, postgres.Migrate(ctx, db, nil), "failed to migrate test database")
	return db
}

// WithTx runs fn in a transaction that is always rolled back.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err, "failed to begin transaction")
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}

// GetRedisWithT connects to the integration Redis and closes the client when
// the test ends.
func GetRedisWithT(t testing.TB) *goredis.Client {
	t.Helper()
	addr := requireEnv(t, EnvRedisAddr, RedisAddr())

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	client, err := redis.Connect(ctx, addr)
	require.NoError(t, err, "failed to connect to test redis")
	t.Cleanup(func() { _ = client.Close() })
	return client
}
