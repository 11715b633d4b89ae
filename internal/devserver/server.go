// Package devserver is an in-memory implementation of the simulation API for
// local development and integration tests. It speaks the same wire contract
// as the production backend: bearer JWTs issued by POST /token, bcrypt
// password hashes and derived figures rounded to cents.
package devserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"
)

// Defaults applied by New.
const (
	DefaultTokenLifetime = 30 * time.Minute
	DefaultServiceName   = "aMORA API"
)

// Config configures a Server.
type Config struct {
	// Secret signs access tokens. It must be at least 32 bytes.
	Secret        string
	TokenLifetime time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost  int
	ServiceName string
	Logger      *slog.Logger
	// Now overrides the clock.
	Now func() time.Time
}

// Server serves the simulation API from memory.
type Server struct {
	db         *memoryDB
	tokens     *tokenIssuer
	bcryptCost int
	name       string
	now        func() time.Time
	logger     *slog.Logger
}

// New validates cfg and returns a Server with an empty database.
func New(cfg Config) (*Server, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("token secret must be at least 32 characters")
	}
	if cfg.TokenLifetime <= 0 {
		cfg.TokenLifetime = DefaultTokenLifetime
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Server{
		db:         newMemoryDB(),
		tokens:     &tokenIssuer{key: []byte(cfg.Secret), lifetime: cfg.TokenLifetime, now: cfg.Now},
		bcryptCost: cfg.BcryptCost,
		name:       cfg.ServiceName,
		now:        cfg.Now,
		logger:     cfg.Logger.With("component", "devserver"),
	}, nil
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/health", s.health)
	r.Post("/register", s.register)
	r.Post("/token", s.login)
	r.Post("/calculate", s.calculate)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/users/me", s.me)
		r.Patch("/users/me", s.updateMe)

		r.Route("/simulations", func(r chi.Router) {
			r.Post("/", s.createSimulation)
			r.Get("/", s.listSimulations)
			r.Get("/statistics", s.statistics)
			r.Get("/{id}", s.getSimulation)
			r.Put("/{id}", s.updateSimulation)
			r.Delete("/{id}", s.deleteSimulation)
		})
	})
	return r
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
