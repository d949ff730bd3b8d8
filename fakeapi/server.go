// Package fakeapi is an in-memory implementation of the backend REST API. It
// issues real HS256 tokens and enforces the same authorization rules, so the
// console can be exercised end to end in tests and local runs.
package fakeapi

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/edu-console/internal/config"
	"github.com/jrsteele09/edu-console/users"
	fakeuserrepo "github.com/jrsteele09/edu-console/users/repofake"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

const (
	defaultSecret     = "sandbox-secret"
	defaultAccessTTL  = 5 * time.Minute
	defaultRefreshTTL = 24 * time.Hour
)

type Server struct {
	env        string
	mux        *http.ServeMux
	handler    http.Handler
	routes     []string
	users      users.UserRepo
	data       *dataStore
	signer     *hmacSigner
	logger     zerolog.Logger
	accessTTL  time.Duration
	refreshTTL time.Duration
	corsOpts   *cors.Options

	mu            sync.Mutex
	clock         func() time.Time
	offset        time.Duration
	generation    int
	revoked       map[string]bool // session ids ended by logout
	rejectRefresh bool
	failLogout    bool
	calls         map[string]int
}

type Option func(*Server)

// WithEnv enables request logging when env is "DEV".
func WithEnv(env string) Option {
	return func(s *Server) {
		s.env = env
	}
}

func WithSecret(secret string) Option {
	return func(s *Server) {
		if secret != "" {
			s.signer = newHMACSigner(secret)
		}
	}
}

func WithTokenTTL(access, refresh time.Duration) Option {
	return func(s *Server) {
		if access > 0 {
			s.accessTTL = access
		}
		if refresh > 0 {
			s.refreshTTL = refresh
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithUserRepo(repo users.UserRepo) Option {
	return func(s *Server) {
		s.users = repo
	}
}

// WithCORS answers cross-origin requests from the given origins.
func WithCORS(origins config.AllowedOrigins, methods, headers []string) Option {
	return func(s *Server) {
		s.corsOpts = &cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   methods,
			AllowedHeaders:   headers,
			AllowCredentials: !origins.IsAllowedOrigin("*"),
			MaxAge:           86400,
		}
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		mux:        http.NewServeMux(),
		users:      fakeuserrepo.NewFakeUserRepo(),
		data:       newDataStore(),
		signer:     newHMACSigner(defaultSecret),
		logger:     zerolog.Nop(),
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		clock:      time.Now,
		revoked:    make(map[string]bool),
		calls:      make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()

	s.handler = s.mux
	if s.corsOpts != nil {
		s.handler = cors.New(*s.corsOpts).Handler(s.mux)
	}
	return s
}

// NewFromConfig builds a sandbox using the configured secret, token lifetimes
// and CORS settings.
func NewFromConfig(cfg config.Config, opts ...Option) *Server {
	access, refresh := cfg.GetSandboxTokenExpiry()
	base := []Option{
		WithEnv(cfg.GetEnv()),
		WithSecret(cfg.GetSandboxSecret()),
		WithTokenTTL(access, refresh),
		WithCORS(cfg.GetAllowedOrigins(), cfg.GetAllowedMethods(), cfg.GetAllowedHeaders()),
	}
	return New(append(base, opts...)...)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock().Add(s.offset)
}
