package sessions

import (
	"context"
	"sync"

	"github.com/jrsteele09/edu-console/gateway"
	apperrors "github.com/jrsteele09/edu-console/internal/errors"
	"github.com/jrsteele09/edu-console/users"
	"github.com/rs/zerolog"
)

// Gateway is the part of the API client the session depends on.
type Gateway interface {
	Login(ctx context.Context, username, password string) (*gateway.LoginResult, error)
	Logout(ctx context.Context)
	CurrentUser(ctx context.Context) (*users.User, error)
	HasAccessToken(ctx context.Context) bool
	DiscardTokens(ctx context.Context)
	OnSessionExpired(fn gateway.SessionExpiredFunc)
}

var _ Gateway = (*gateway.Client)(nil)

// Manager owns the session. It is the only thing that changes it; everyone
// else reads a Snapshot.
type Manager struct {
	gw     Gateway
	logger zerolog.Logger

	mu      sync.Mutex
	user    *users.User
	status  Status
	lastErr string

	// epoch moves on every reset or new login so that a slow Boot or Login
	// cannot overwrite a state that was reached after it started.
	epoch uint64

	subsMu sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

type ManagerOption func(*Manager)

func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager returns an anonymous session bound to gw. Session expiry reported
// by any request made through gw resets the session.
func NewManager(gw Gateway, opts ...ManagerOption) *Manager {
	m := &Manager{
		gw:     gw,
		logger: zerolog.Nop(),
		status: StatusAnonymous,
		subs:   make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(m)
	}
	gw.OnSessionExpired(func(err error) {
		m.HandleError(err)
	})
	return m
}

// Snapshot returns the current session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		User:      m.user.Clone(),
		Status:    m.status,
		LastError: m.lastErr,
	}
}

// Subscribe calls fn with every new snapshot until the returned func is called.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) publish(s Snapshot) {
	m.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subsMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// begin moves to Authenticating and returns the epoch the caller must still
// hold when it finishes.
func (m *Manager) begin() uint64 {
	m.mu.Lock()
	m.epoch++
	m.status = StatusAuthenticating
	epoch := m.epoch
	s := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(s)
	return epoch
}

// settle applies the outcome of an operation started at epoch. It reports
// false when the session moved on in the meantime.
func (m *Manager) settle(epoch uint64, user *users.User, errMsg string) bool {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return false
	}
	m.user = user.Clone()
	m.lastErr = errMsg
	if user != nil {
		m.status = StatusAuthenticated
	} else {
		m.status = StatusAnonymous
	}
	s := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(s)
	return true
}

func (m *Manager) reset(errMsg string) {
	m.mu.Lock()
	m.epoch++
	m.user = nil
	m.status = StatusAnonymous
	m.lastErr = errMsg
	s := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(s)
}

// Boot recovers a session from stored credentials. Without an access token it
// goes straight to Anonymous with no request. Any recovery failure discards
// the tokens and leaves the session Anonymous.
func (m *Manager) Boot(ctx context.Context) Snapshot {
	if !m.gw.HasAccessToken(ctx) {
		m.reset("")
		return m.Snapshot()
	}

	epoch := m.begin()
	user, err := m.gw.CurrentUser(ctx)
	if err != nil {
		m.logger.Info().Err(err).Msg("could not restore session")
		m.gw.DiscardTokens(ctx)
		m.settle(epoch, nil, "")
		return m.Snapshot()
	}

	if m.settle(epoch, user, "") {
		m.logger.Info().Str("username", user.Username).Str("role", user.Role.String()).Msg("session restored")
	}
	return m.Snapshot()
}

// Login authenticates with the backend. A nil error means the session is now
// Authenticated. On failure the session is Anonymous and the error is returned
// as the gateway reported it.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	epoch := m.begin()
	res, err := m.gw.Login(ctx, username, password)
	if err != nil {
		m.logger.Info().Err(err).Str("username", username).Msg("login failed")
		if m.settle(epoch, nil, apperrors.Message(err)) {
			// drop any earlier user's tokens so Boot cannot restore them
			m.gw.DiscardTokens(ctx)
		}
		return err
	}

	if !m.settle(epoch, res.User, "") {
		return apperrors.Wrapf(apperrors.ErrSessionExpired, "session for %q was reset during login", username)
	}
	m.logger.Info().Str("username", res.User.Username).Str("role", res.User.Role.String()).Msg("logged in")
	return nil
}

// Logout ends the session. The backend is told when reachable; locally the
// session always ends up Anonymous with no tokens.
func (m *Manager) Logout(ctx context.Context) {
	m.gw.Logout(ctx)
	m.reset("")
	m.logger.Info().Msg("logged out")
}

// HandleError resets the session when err reports session expiry. It returns
// whether it did.
func (m *Manager) HandleError(err error) bool {
	var expired *gateway.SessionExpiredError
	if !apperrors.As(err, &expired) {
		return false
	}
	m.reset(expired.UserMessage())
	m.logger.Info().Msg("session expired")
	return true
}
