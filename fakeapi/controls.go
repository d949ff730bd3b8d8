package fakeapi

import (
	"time"
)

// Calls returns how many requests reached the route registered for method and
// path, e.g. Calls("POST", "/token/refresh/").
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// ResetCalls zeroes every route counter.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

// RevokeAccessTokens invalidates every access token issued so far. Refresh
// tokens stay valid and the access tokens they produce are accepted.
func (s *Server) RevokeAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
}

// RejectRefresh makes the refresh endpoint answer 401 while set.
func (s *Server) RejectRefresh(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectRefresh = reject
}

// FailLogout makes the logout endpoint answer 500 while set.
func (s *Server) FailLogout(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLogout = fail
}

// Advance moves the sandbox clock forward, e.g. past the access token lifetime.
func (s *Server) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset += d
}

func (s *Server) count(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[method+" "+path]++
}

func (s *Server) currentGeneration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Server) sessionRevoked(sid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[sid]
}

func (s *Server) revokeSession(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[sid] = true
}

func (s *Server) refreshRejected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rejectRefresh
}

func (s *Server) logoutFails() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failLogout
}
