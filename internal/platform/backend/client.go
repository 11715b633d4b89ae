// Package backend is the remote strategy: it implements store.Backend with
// one authenticated HTTP request per operation against the simulation API.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/phrazzld/amora-planner/internal/credential"
	"github.com/phrazzld/amora-planner/internal/domain"
	"github.com/phrazzld/amora-planner/internal/platform/logger"
	"github.com/phrazzld/amora-planner/internal/redact"
	"github.com/phrazzld/amora-planner/internal/store"
	"github.com/phrazzld/amora-planner/internal/wire"
)

// DefaultRequestTimeout bounds each request when no option overrides it.
const DefaultRequestTimeout = 10 * time.Second

// Client implements store.Backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	creds   credential.Provider
	timeout time.Duration
	logger  *slog.Logger
}

var _ store.Backend = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient returns a client for the API at baseURL.
func NewClient(baseURL string, creds credential.Provider, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend base URL %q", baseURL)
	}
	if creds == nil {
		return nil, errors.New("credential provider cannot be nil")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    cleanhttp.DefaultPooledClient(),
		creds:   creds,
		timeout: DefaultRequestTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "backend_client")
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) log(ctx context.Context) *slog.Logger {
	if id := logger.RequestID(ctx); id != "" {
		return c.logger.With("request_id", id)
	}
	return c.logger
}

// Health issues GET /health. Any 2xx with a non-empty body is healthy.
func (c *Client) Health(ctx context.Context) (wire.Health, error) {
	var h wire.Health
	empty, err := c.do(ctx, request{method: http.MethodGet, path: "/health", anonymous: true, out: &h, lenient: true})
	if err != nil {
		return wire.Health{}, err
	}
	if empty {
		return wire.Health{}, ErrEmptyResponse
	}
	return h, nil
}

// Register implements store.Backend.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (domain.User, error) {
	if err := reg.Validate(); err != nil {
		return domain.User{}, err
	}
	var out wire.User
	if err := c.expectBody(ctx, request{
		method:    http.MethodPost,
		path:      "/register",
		json:      wire.RegistrationToWire(reg),
		anonymous: true,
		out:       &out,
	}); err != nil {
		return domain.User{}, fmt.Errorf("register: %w", err)
	}
	return wire.UserToDomain(out), nil
}

// Login implements store.Backend: POST /token with form credentials, store the
// token, then fetch the account with GET /users/me. Unauthorized and
// NetworkUnreachable outcomes are re-classified as AuthenticationFailed.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	if err := creds.Validate(); err != nil {
		return domain.Session{}, err
	}

	var tok wire.Token
	err := c.expectBody(ctx, request{
		method:    http.MethodPost,
		path:      "/token",
		form:      url.Values{"username": {creds.Email}, "password": {creds.Password}},
		anonymous: true,
		out:       &tok,
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("login: %w", reclassifyLogin(err))
	}
	if tok.AccessToken == "" {
		return domain.Session{}, fmt.Errorf("login: %w", store.NewRequestError(http.StatusOK, "token response without access_token"))
	}

	if err := c.creds.SetToken(ctx, tok.AccessToken); err != nil {
		return domain.Session{}, fmt.Errorf("login: %w: %w", store.ErrStorageFailed, err)
	}

	user, err := c.CurrentUser(ctx)
	if err != nil {
		// Do not keep a token for a login reported as failed.
		if clearErr := c.creds.Clear(ctx); clearErr != nil {
			c.log(ctx).Error("failed to clear token after failed login",
				slog.String("error", redact.Error(clearErr)))
		}
		return domain.Session{}, fmt.Errorf("login: %w", reclassifyLogin(err))
	}
	return domain.Session{Token: tok.AccessToken, User: user}, nil
}

func reclassifyLogin(err error) error {
	if errors.Is(err, store.ErrUnauthorized) || errors.Is(err, store.ErrNetworkUnreachable) {
		return store.AuthenticationError(err)
	}
	return err
}

// CurrentUser implements store.Backend.
func (c *Client) CurrentUser(ctx context.Context) (domain.User, error) {
	var out wire.User
	if err := c.expectBody(ctx, request{method: http.MethodGet, path: "/users/me", out: &out}); err != nil {
		return domain.User{}, fmt.Errorf("current user: %w", err)
	}
	return wire.UserToDomain(out), nil
}

// UpdateUser implements store.Backend.
func (c *Client) UpdateUser(ctx context.Context, update domain.UserUpdate) (domain.User, error) {
	if err := update.Validate(); err != nil {
		return domain.User{}, err
	}
	var out wire.User
	if err := c.expectBody(ctx, request{
		method: http.MethodPatch,
		path:   "/users/me",
		json:   wire.UserUpdate{Name: update.Name},
		out:    &out,
	}); err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return wire.UserToDomain(out), nil
}

// CreateSimulation implements store.Backend.
func (c *Client) CreateSimulation(ctx context.Context, in domain.SimulationInput) (domain.Simulation, error) {
	if err := in.Validate(); err != nil {
		return domain.Simulation{}, err
	}
	var out wire.Simulation
	if err := c.expectBody(ctx, request{
		method: http.MethodPost,
		path:   "/simulations",
		json:   wire.CreateFromInput(in),
		out:    &out,
	}); err != nil {
		return domain.Simulation{}, fmt.Errorf("create simulation: %w", err)
	}
	return wire.SimulationToDomain(out), nil
}

// ListSimulations implements store.Backend.
func (c *Client) ListSimulations(ctx context.Context, page store.Page) (domain.SimulationPage, error) {
	page = page.Normalize()
	var out wire.SimulationList
	if err := c.expectBody(ctx, request{
		method: http.MethodGet,
		path:   "/simulations",
		query: url.Values{
			"skip":  {strconv.Itoa(page.Skip)},
			"limit": {strconv.Itoa(page.Limit)},
		},
		out: &out,
	}); err != nil {
		return domain.SimulationPage{}, fmt.Errorf("list simulations: %w", err)
	}
	return domain.SimulationPage{
		Simulations: wire.SimulationsToDomain(out.Simulations),
		Total:       out.Total,
	}, nil
}

// GetSimulation implements store.Backend.
func (c *Client) GetSimulation(ctx context.Context, id int64) (domain.Simulation, error) {
	if err := domain.ValidateID(id); err != nil {
		return domain.Simulation{}, err
	}
	var out wire.Simulation
	if err := c.expectBody(ctx, request{method: http.MethodGet, path: simulationPath(id), out: &out}); err != nil {
		return domain.Simulation{}, fmt.Errorf("get simulation %d: %w", id, err)
	}
	return wire.SimulationToDomain(out), nil
}

// UpdateSimulation implements store.Backend. Only the fields set in patch are
// sent; the backend merges them and recomputes the derived figures.
func (c *Client) UpdateSimulation(ctx context.Context, id int64, patch domain.SimulationPatch) (domain.Simulation, error) {
	if err := domain.ValidateID(id); err != nil {
		return domain.Simulation{}, err
	}
	if err := patch.Validate(); err != nil {
		return domain.Simulation{}, err
	}
	var out wire.Simulation
	if err := c.expectBody(ctx, request{
		method: http.MethodPut,
		path:   simulationPath(id),
		json:   wire.UpdateFromPatch(patch),
		out:    &out,
	}); err != nil {
		return domain.Simulation{}, fmt.Errorf("update simulation %d: %w", id, err)
	}
	return wire.SimulationToDomain(out), nil
}

// DeleteSimulation implements store.Backend. A body in the response is ignored.
func (c *Client) DeleteSimulation(ctx context.Context, id int64) error {
	if err := domain.ValidateID(id); err != nil {
		return err
	}
	if _, err := c.do(ctx, request{method: http.MethodDelete, path: simulationPath(id)}); err != nil {
		return fmt.Errorf("delete simulation %d: %w", id, err)
	}
	return nil
}

// Statistics implements store.Backend.
func (c *Client) Statistics(ctx context.Context) (domain.Statistics, error) {
	var out wire.Statistics
	if err := c.expectBody(ctx, request{method: http.MethodGet, path: "/simulations/statistics", out: &out}); err != nil {
		return domain.Statistics{}, fmt.Errorf("statistics: %w", err)
	}
	return wire.StatisticsToDomain(out), nil
}

// Calculate implements store.Backend.
func (c *Client) Calculate(ctx context.Context, in domain.SimulationInput) (domain.Calculation, error) {
	if err := in.Validate(); err != nil {
		return domain.Calculation{}, err
	}
	var out wire.Calculation
	if err := c.expectBody(ctx, request{
		method: http.MethodPost,
		path:   "/calculate",
		json:   wire.CreateFromInput(in),
		out:    &out,
	}); err != nil {
		return domain.Calculation{}, fmt.Errorf("calculate: %w", err)
	}
	calc := wire.CalculationToDomain(out)
	calc.Input.Address, calc.Input.PropertyType, calc.Input.Notes = in.Address, in.PropertyType, in.Notes
	return calc, nil
}

func (c *Client) expectBody(ctx context.Context, r request) error {
	empty, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if empty {
		return ErrEmptyResponse
	}
	return nil
}

func simulationPath(id int64) string {
	return "/simulations/" + strconv.FormatInt(id, 10)
}
