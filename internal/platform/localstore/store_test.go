package localstore_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/amora-planner/internal/credential"
	"github.com/phrazzld/amora-planner/internal/domain"
	"github.com/phrazzld/amora-planner/internal/kv"
	"github.com/phrazzld/amora-planner/internal/platform/localstore"
	"github.com/phrazzld/amora-planner/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*localstore.Store, kv.Store, credential.Provider) {
	t.Helper()
	kvs := kv.NewMemoryStore()
	creds := credential.NewKVProvider(kvs)
	s, err := localstore.New(kvs, creds, localstore.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return s, kvs, creds
}

func input(pv, pct int64, years int) domain.SimulationInput {
	return domain.SimulationInput{
		PropertyValue:  decimal.NewFromInt(pv),
		DownPaymentPct: decimal.NewFromInt(pct),
		TermYears:      years,
	}
}

func TestCreateAndList(t *testing.T) {
	s, kvs, _ := newStore(t)
	ctx := context.Background()

	sim, err := s.CreateSimulation(ctx, input(500000, 20, 25))
	require.NoError(t, err)
	assert.Positive(t, sim.ID)
	assert.Equal(t, localstore.MockUserID, sim.UserID)
	assert.Equal(t, "2024-03-01T12:00:00Z", sim.CreatedAt)
	assert.True(t, sim.DownPaymentAmount.Equal(decimal.NewFromInt(100000)))
	assert.True(t, sim.FinancingAmount.Equal(decimal.NewFromInt(400000)))
	assert.True(t, sim.SavingsTarget.Equal(decimal.NewFromInt(75000)))
	assert.True(t, sim.MonthlySavings.Equal(decimal.NewFromInt(250)))

	page, err := s.ListSimulations(ctx, store.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Simulations, 1)
	assert.Equal(t, sim.ID, page.Simulations[0].ID)
	assert.True(t, page.Simulations[0].MonthlySavings.Equal(sim.MonthlySavings))

	raw, err := kvs.Get(ctx, localstore.SimulationsKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"valorImovel"`)
}

func TestIDsStrictlyIncrease(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 20; i++ {
		sim, err := s.CreateSimulation(ctx, input(100000, 10, 10))
		require.NoError(t, err)
		assert.Greater(t, sim.ID, last)
		last = sim.ID
	}
}

func TestListPaging(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		sim, err := s.CreateSimulation(ctx, input(100000+int64(i), 10, 10))
		require.NoError(t, err)
		ids = append(ids, sim.ID)
	}

	tests := []struct {
		name string
		page store.Page
		want []int64
	}{
		{"defaults", store.Page{}, ids},
		{"skip", store.Page{Skip: 3}, ids[3:]},
		{"limit", store.Page{Limit: 2}, ids[:2]},
		{"window", store.Page{Skip: 1, Limit: 2}, ids[1:3]},
		{"past the end", store.Page{Skip: 10}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			page, err := s.ListSimulations(ctx, tc.page)
			require.NoError(t, err)
			assert.Equal(t, 5, page.Total)
			var got []int64
			for _, sim := range page.Simulations {
				got = append(got, sim.ID)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDelete(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()

	a, err := s.CreateSimulation(ctx, input(100000, 10, 10))
	require.NoError(t, err)
	b, err := s.CreateSimulation(ctx, input(200000, 10, 10))
	require.NoError(t, err)

	require.NoError(t, s.DeleteSimulation(ctx, a.ID))
	require.NoError(t, s.DeleteSimulation(ctx, 42), "unknown id is a no-op")

	page, err := s.ListSimulations(ctx, store.Page{})
	require.NoError(t, err)
	require.Len(t, page.Simulations, 1)
	assert.Equal(t, b.ID, page.Simulations[0].ID)
}

func TestConcurrentCreatesKeepEveryAppend(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateSimulation(ctx, input(100000, 10, 10))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	page, err := s.ListSimulations(ctx, store.Page{})
	require.NoError(t, err)
	assert.Equal(t, n, page.Total)
}

func TestBlockedOperations(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()

	_, err := s.GetSimulation(ctx, 1)
	assert.ErrorIs(t, err, store.ErrOfflineBlocked)

	years := 5
	_, err = s.UpdateSimulation(ctx, 1, domain.SimulationPatch{TermYears: &years})
	assert.ErrorIs(t, err, store.ErrOfflineBlocked)

	name := "x"
	_, err = s.UpdateUser(ctx, domain.UserUpdate{Name: &name})
	assert.ErrorIs(t, err, store.ErrOfflineBlocked)
	assert.Equal(t, store.CategoryOfflineBlocked, store.Category(err))
}

func TestMockIdentity(t *testing.T) {
	s, _, creds := newStore(t)
	ctx := context.Background()

	session, err := s.Login(ctx, domain.Credentials{Email: "maria.silva@example.com", Password: "whatever"})
	require.NoError(t, err)
	assert.Equal(t, localstore.MockUserID, session.User.ID)
	require.NotNil(t, session.User.Name)
	assert.Equal(t, "maria.silva", *session.User.Name)
	assert.True(t, strings.HasPrefix(session.Token, localstore.OfflinePrefix))

	token, err := creds.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.Token, token)

	user, err := s.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, localstore.DemoEmail, user.Email)
	assert.Equal(t, localstore.DemoName, *user.Name)

	reg, err := s.Register(ctx, domain.Registration{Email: "new@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, localstore.MockUserID, reg.ID)
	assert.Equal(t, "new@example.com", reg.Email)
}

func TestValidationBeforeStorage(t *testing.T) {
	s, kvs, _ := newStore(t)
	ctx := context.Background()

	_, err := s.CreateSimulation(ctx, input(0, 10, 10))
	assert.ErrorIs(t, err, store.ErrValidationFailed)

	_, err = kvs.Get(ctx, localstore.SimulationsKey)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestStatisticsAndCalculate(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalSimulations)

	_, err = s.CreateSimulation(ctx, input(300000, 20, 20))
	require.NoError(t, err)
	_, err = s.CreateSimulation(ctx, input(500000, 30, 30))
	require.NoError(t, err)

	stats, err = s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSimulations)
	assert.True(t, stats.TotalPropertyValue.Equal(decimal.NewFromInt(800000)))
	assert.True(t, stats.AverageDownPaymentPct.Equal(decimal.NewFromInt(25)))
	assert.True(t, stats.AverageTermYears.Equal(decimal.NewFromInt(25)))

	calc, err := s.Calculate(ctx, input(500000, 20, 25))
	require.NoError(t, err)
	assert.True(t, calc.Values.MonthlySavings.Equal(decimal.NewFromInt(250)))
}

type brokenStore struct{ kv.Store }

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("io error") }

func TestStorageErrorsAreReported(t *testing.T) {
	kvs := brokenStore{Store: kv.NewMemoryStore()}
	s, err := localstore.New(kvs, credential.NewStatic(""))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.CreateSimulation(ctx, input(100000, 10, 10))
	assert.ErrorIs(t, err, store.ErrStorageFailed)

	_, err = s.ListSimulations(ctx, store.Page{})
	assert.ErrorIs(t, err, store.ErrStorageFailed)
}

func TestCorruptCollection(t *testing.T) {
	s, kvs, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, kvs.Set(ctx, localstore.SimulationsKey, []byte("{not json")))

	_, err := s.ListSimulations(ctx, store.Page{})
	assert.ErrorIs(t, err, store.ErrStorageFailed)
}
