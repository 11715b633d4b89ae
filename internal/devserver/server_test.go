package devserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/amora-planner/internal/credential"
	"github.com/phrazzld/amora-planner/internal/devserver"
	"github.com/phrazzld/amora-planner/internal/domain"
	"github.com/phrazzld/amora-planner/internal/platform/backend"
	"github.com/phrazzld/amora-planner/internal/store"
	"github.com/phrazzld/amora-planner/internal/wire"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

func newServer(t *testing.T, now func() time.Time) *httptest.Server {
	t.Helper()
	srv, err := devserver.New(devserver.Config{
		Secret:     testSecret,
		BcryptCost: bcrypt.MinCost,
		Now:        now,
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T, ts *httptest.Server) (*backend.Client, *credential.Static) {
	t.Helper()
	creds := credential.NewStatic("")
	c, err := backend.NewClient(ts.URL, creds)
	require.NoError(t, err)
	return c, creds
}

func signUp(t *testing.T, c *backend.Client, email string) domain.Session {
	t.Helper()
	ctx := context.Background()
	_, err := c.Register(ctx, domain.Registration{Email: email, Password: "secret123"})
	require.NoError(t, err)
	session, err := c.Login(ctx, domain.Credentials{Email: email, Password: "secret123"})
	require.NoError(t, err)
	return session
}

func TestNewRequiresLongSecret(t *testing.T) {
	_, err := devserver.New(devserver.Config{Secret: "short"})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	ts := newServer(t, nil)
	c, _ := newClient(t, ts)

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, devserver.DefaultServiceName, h.Service)
}

func TestRegisterLoginAndProfile(t *testing.T) {
	ts := newServer(t, nil)
	c, creds := newClient(t, ts)
	ctx := context.Background()

	name := "Ana Souza"
	user, err := c.Register(ctx, domain.Registration{Email: "ana@example.com", Name: &name, Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	_, err = c.Register(ctx, domain.Registration{Email: "ANA@example.com", Password: "secret123"})
	var reqErr *store.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
	assert.Equal(t, "Email already registered", reqErr.Message)

	_, err = c.Login(ctx, domain.Credentials{Email: "ana@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, store.ErrAuthenticationFailed)

	session, err := c.Login(ctx, domain.Credentials{Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", session.User.Email)
	token, _ := creds.Token(ctx)
	assert.Equal(t, session.Token, token)

	newName := "Ana S."
	updated, err := c.UpdateUser(ctx, domain.UserUpdate{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Ana S.", *updated.Name)
	assert.NotNil(t, updated.UpdatedAt)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newServer(t, nil)
	c, creds := newClient(t, ts)
	ctx := context.Background()

	_, err := c.CurrentUser(ctx)
	assert.ErrorIs(t, err, store.ErrUnauthorized)

	require.NoError(t, creds.SetToken(ctx, "garbage"))
	_, err = c.ListSimulations(ctx, store.Page{})
	assert.ErrorIs(t, err, store.ErrUnauthorized)
	token, _ := creds.Token(ctx)
	assert.Empty(t, token, "rejected token is cleared")
}

func TestExpiredToken(t *testing.T) {
	var now atomic.Int64
	now.Store(time.Now().UnixNano())
	clock := func() time.Time { return time.Unix(0, now.Load()) }
	ts := newServer(t, clock)
	c, _ := newClient(t, ts)
	signUp(t, c, "old@example.com")

	now.Add(int64(2 * devserver.DefaultTokenLifetime))
	_, err := c.CurrentUser(context.Background())
	assert.ErrorIs(t, err, store.ErrUnauthorized)
}

func TestSimulationLifecycle(t *testing.T) {
	ts := newServer(t, nil)
	c, _ := newClient(t, ts)
	ctx := context.Background()
	signUp(t, c, "bia@example.com")

	addr := "Rua das Flores, 12"
	in := domain.SimulationInput{
		PropertyValue:  decimal.NewFromInt(500000),
		DownPaymentPct: decimal.NewFromInt(20),
		TermYears:      25,
		Address:        &addr,
	}
	created, err := c.CreateSimulation(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, addr, created.Name)
	assert.True(t, created.DownPaymentAmount.Equal(decimal.NewFromInt(100000)))
	assert.True(t, created.FinancingAmount.Equal(decimal.NewFromInt(400000)))
	assert.True(t, created.SavingsTarget.Equal(decimal.NewFromInt(75000)))
	assert.True(t, created.MonthlySavings.Equal(decimal.NewFromInt(250)))

	got, err := c.GetSimulation(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	// Changing only notes keeps the derived figures.
	notes := "perto do metrô"
	updated, err := c.UpdateSimulation(ctx, created.ID, domain.SimulationPatch{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, &notes, updated.Notes)
	assert.True(t, updated.MonthlySavings.Equal(decimal.NewFromInt(250)))

	// Changing an input recomputes them.
	years := 10
	updated, err = c.UpdateSimulation(ctx, created.ID, domain.SimulationPatch{TermYears: &years})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.TermYears)
	assert.True(t, updated.MonthlySavings.Equal(decimal.NewFromInt(625)))
	assert.Equal(t, &notes, updated.Notes)

	stats, err := c.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSimulations)
	assert.True(t, stats.AverageTermYears.Equal(decimal.NewFromInt(10)))

	require.NoError(t, c.DeleteSimulation(ctx, created.ID))
	_, err = c.GetSimulation(ctx, created.ID)
	var reqErr *store.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	assert.Equal(t, "Simulation not found", reqErr.Message)
}

func TestRoundingToCents(t *testing.T) {
	ts := newServer(t, nil)
	c, _ := newClient(t, ts)
	signUp(t, c, "cents@example.com")

	sim, err := c.CreateSimulation(context.Background(), domain.SimulationInput{
		PropertyValue:  decimal.RequireFromString("333333.33"),
		DownPaymentPct: decimal.RequireFromString("17.5"),
		TermYears:      7,
	})
	require.NoError(t, err)
	assert.Equal(t, "58333.33", sim.DownPaymentAmount.StringFixed(2))
	assert.Equal(t, "275000.00", sim.FinancingAmount.StringFixed(2))
	assert.Equal(t, "50000.00", sim.SavingsTarget.StringFixed(2))
	assert.Equal(t, "595.24", sim.MonthlySavings.StringFixed(2))
}

func TestListingIsPerUserAndPaged(t *testing.T) {
	ts := newServer(t, nil)
	ctx := context.Background()

	alice, _ := newClient(t, ts)
	signUp(t, alice, "alice@example.com")
	bob, _ := newClient(t, ts)
	signUp(t, bob, "bob@example.com")

	in := domain.SimulationInput{PropertyValue: decimal.NewFromInt(100000), DownPaymentPct: decimal.NewFromInt(10), TermYears: 10}
	for i := 0; i < 3; i++ {
		_, err := alice.CreateSimulation(ctx, in)
		require.NoError(t, err)
	}
	bobSim, err := bob.CreateSimulation(ctx, in)
	require.NoError(t, err)

	page, err := alice.ListSimulations(ctx, store.Page{Skip: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Simulations, 1)

	_, err = alice.GetSimulation(ctx, bobSim.ID)
	assert.ErrorIs(t, err, store.ErrRequestFailed)
}

func TestValidationErrors(t *testing.T) {
	ts := newServer(t, nil)
	ctx := context.Background()

	resp, err := http.Post(ts.URL+"/calculate", "application/json",
		strings.NewReader(`{"property_value":100000,"down_payment_percentage":20,"contract_years":31}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body wire.ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, domain.ErrInvalidTermYears.Error(), body.Detail)

	resp2, err := http.PostForm(ts.URL+"/token", url.Values{"username": {"x@example.com"}})
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp2.StatusCode)

	c, _ := newClient(t, ts)
	calc, err := c.Calculate(ctx, domain.SimulationInput{
		PropertyValue:  decimal.NewFromInt(500000),
		DownPaymentPct: decimal.NewFromInt(20),
		TermYears:      25,
	})
	require.NoError(t, err)
	assert.True(t, calc.Values.MonthlySavings.Equal(decimal.NewFromInt(250)))
}
