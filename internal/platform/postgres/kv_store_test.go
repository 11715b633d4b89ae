package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/amora-planner/internal/kv"
	"github.com/phrazzld/amora-planner/internal/platform/postgres"
	"github.com/phrazzld/amora-planner/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return testdb.GetTestDBWithT(t)
}

func testKey(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}

func TestKVStoreIntegration(t *testing.T) {
	db := openTestDB(t)
	s := postgres.NewKVStore(db)
	ctx := context.Background()

	key := testKey("roundtrip")
	t.Cleanup(func() { _ = s.Delete(ctx, key) })

	_, err := s.Get(ctx, key)
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, s.Set(ctx, key, []byte(`[{"id":1}]`)))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(got))

	require.NoError(t, s.Set(ctx, key, []byte(`[]`)))
	got, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestKVStoreConcurrentUpdates(t *testing.T) {
	db := openTestDB(t)
	s := postgres.NewKVStore(db)
	ctx := context.Background()

	key := testKey("counter")
	t.Cleanup(func() { _ = s.Delete(ctx, key) })

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := kv.Update(ctx, s, key, func(current []byte, found bool) ([]byte, error) {
				n := 0
				if found {
					n, _ = strconv.Atoi(string(current))
				}
				return []byte(strconv.Itoa(n + 1)), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(workers), string(got))
}

func TestMigrationCreatesKVTable(t *testing.T) {
	db := openTestDB(t)
	key := testKey("tx")

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		_, err := tx.Exec(`INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, NOW())`, key, []byte("x"))
		require.NoError(t, err)

		var value []byte
		require.NoError(t, tx.QueryRow(`SELECT value FROM kv_entries WHERE key = $1`, key).Scan(&value))
		assert.Equal(t, "x", string(value))
	})

	_, err := postgres.NewKVStore(db).Get(context.Background(), key)
	assert.ErrorIs(t, err, kv.ErrNotFound, "rolled back")
}
