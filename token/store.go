package token

import (
	"context"
	"sync"

	"github.com/jrsteele09/edu-console/token/memstore"
	"github.com/rs/zerolog"
)

// Backend is a persistent key-value store for token strings. Implementations
// report failures; Store absorbs them.
type Backend interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by backends that can report their availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

var _ Backend = (*memstore.Store)(nil)

// Store keeps the access and refresh tokens. Every operation succeeds from the
// caller's point of view: when the persistent backend fails the write is held
// in an in-process overlay and the failure is logged.
//
// The overlay takes precedence over the persistent backend. A value written
// or removed during an outage stays in effect until a later persistent write
// or delete of the same key succeeds.
type Store struct {
	persistent Backend
	fallback   *memstore.Store
	logger     zerolog.Logger

	mu         sync.Mutex
	tombstones map[string]bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger storage failures are reported to.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore probes backend and returns a Store using it. A nil backend, or one
// whose Ping fails, gives a memory-only store.
func NewStore(ctx context.Context, backend Backend, opts ...StoreOption) *Store {
	s := &Store{
		fallback:   memstore.New(),
		logger:     zerolog.Nop(),
		tombstones: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}

	if backend == nil {
		s.logger.Debug().Msg("token store running in memory only")
		return s
	}
	if p, ok := backend.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("token backend unreachable, running in memory only")
			return s
		}
	}
	s.persistent = backend
	return s
}

// Persistent reports whether a persistent backend was selected at construction.
func (s *Store) Persistent() bool {
	return s.persistent != nil
}

// Get returns the value for key. Writes and removals that could not reach the
// persistent backend are seen before anything it holds.
func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tombstones[key] {
		return "", false
	}
	if v, ok, _ := s.fallback.Get(ctx, key); ok && v != "" {
		return v, true
	}
	if s.persistent == nil {
		return "", false
	}
	v, ok, err := s.persistent.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("token read failed")
		return "", false
	}
	return v, ok && v != ""
}

// Set records value for key.
func (s *Store) Set(ctx context.Context, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tombstones, key)
	if s.persistent != nil {
		err := s.persistent.Set(ctx, key, value)
		if err == nil {
			_ = s.fallback.Delete(ctx, key)
			return
		}
		s.logger.Warn().Err(err).Str("key", key).Msg("token write failed, holding value in memory")
	}
	_ = s.fallback.Set(ctx, key, value)
}

// Remove deletes key. A delete the persistent backend refuses is remembered so
// the old value does not come back when the backend recovers.
func (s *Store) Remove(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.fallback.Delete(ctx, key)
	if s.persistent == nil {
		return
	}
	if err := s.persistent.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("token delete failed, hiding key until the backend recovers")
		s.tombstones[key] = true
		return
	}
	delete(s.tombstones, key)
}

// Pair returns both tokens currently on record.
func (s *Store) Pair(ctx context.Context) Pair {
	access, _ := s.Get(ctx, AccessTokenKey)
	refresh, _ := s.Get(ctx, RefreshTokenKey)
	return Pair{Access: access, Refresh: refresh}
}

// SetPair records both tokens. The refresh token is written first so that an
// access token is never on record without one.
func (s *Store) SetPair(ctx context.Context, p Pair) {
	s.Set(ctx, RefreshTokenKey, p.Refresh)
	s.Set(ctx, AccessTokenKey, p.Access)
}

// Clear removes both tokens, access first.
func (s *Store) Clear(ctx context.Context) {
	s.Remove(ctx, AccessTokenKey)
	s.Remove(ctx, RefreshTokenKey)
}
