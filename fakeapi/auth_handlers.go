package fakeapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/edu-console/gateway"
	"github.com/jrsteele09/edu-console/users"
)

// LoginHandler checks username and password and issues an access and refresh
// token sharing one session id.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gateway.LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		user, err := s.users.GetByUsername(req.Username)
		if err != nil || !s.passwordMatches(user.ID, req.Password) {
			s.logger.Debug().Str("username", req.Username).Msg("login rejected")
			unauthorized(w, "Incorrect username or password")
			return
		}

		now := s.now()
		session := uuid.NewString()
		gen := s.currentGeneration()
		access, err := s.signer.sign(newClaims(user, tokenTypeAccess, session, gen, now, s.accessTTL))
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		refresh, err := s.signer.sign(newClaims(user, tokenTypeRefresh, session, gen, now, s.refreshTTL))
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, gateway.LoginResponse{
			Access:  access,
			Refresh: refresh,
			User:    user,
		})
	}
}

func (s *Server) passwordMatches(id users.ID, password string) bool {
	hash, err := s.users.PasswordHash(id)
	if err != nil {
		return false
	}
	return users.CheckPasswordHash(password, hash)
}

// LogoutHandler ends the session the bearer token belongs to. Both of its
// tokens stop working.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.logoutFails() {
			writeDetail(w, http.StatusInternalServerError, "Logout failed")
			return
		}
		if sid, ok := r.Context().Value(ContextKeySession).(string); ok {
			s.revokeSession(sid)
		}
		writeDetail(w, http.StatusOK, "Successfully logged out")
	}
}

func (s *Server) CurrentUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, currentUser(r))
	}
}

// RefreshHandler exchanges a refresh token for a new access token. The
// refresh token itself is not rotated.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gateway.RefreshRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Refresh == "" {
			writeDetail(w, http.StatusBadRequest, "Missing refresh token")
			return
		}
		if s.refreshRejected() {
			unauthorized(w, "Invalid token")
			return
		}

		claims, err := s.signer.verify(req.Refresh, s.now)
		if err != nil || claims.Type != tokenTypeRefresh || s.sessionRevoked(claims.Session) {
			unauthorized(w, "Invalid token")
			return
		}
		user, err := s.users.GetByID(users.ID(claims.Subject))
		if err != nil {
			unauthorized(w, "User not found")
			return
		}

		access, err := s.signer.sign(newClaims(user, tokenTypeAccess, claims.Session, s.currentGeneration(), s.now(), s.accessTTL))
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, gateway.RefreshResponse{Access: access})
	}
}
