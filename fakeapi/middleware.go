package fakeapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/edu-console/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUser stores the authenticated *users.User
	ContextKeyUser ContextKey = "user"
	// ContextKeySession stores the session id shared by a login's tokens
	ContextKeySession ContextKey = "session"
)

type middleware = func(http.HandlerFunc) http.HandlerFunc

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...middleware) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

// APIMiddleware is the stack every route runs behind: logging, panic
// recovery and the call counter for pattern.
func (s *Server) APIMiddleware(pattern string, mw ...middleware) []middleware {
	chained := []middleware{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.countingMiddleware(pattern),
	}
	return append(chained, mw...)
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.env != "DEV" {
			next(w, r)
			return
		}
		s.logRoute(r.Method, r.URL.RequestURI())
		next(w, r)
	}
}

func (s *Server) logRoute(method, path string) {
	s.logger.Info().Msg(fmt.Sprintf("[%-16s] %s", colourMethod(method), path))
}

func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
				writeDetail(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next(w, r)
	}
}

func (s *Server) countingMiddleware(pattern string) middleware {
	method, path, _ := strings.Cut(pattern, " ")
	path = strings.TrimSuffix(path, "{$}")
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			s.count(method, path)
			next(w, r)
		}
	}
}

// RequireAuth validates a Bearer access token and injects its user into the
// request context.
func (s *Server) RequireAuth() middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "Authentication credentials were not provided.")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				unauthorized(w, "Invalid Authorization header format")
				return
			}

			claims, err := s.signer.verify(parts[1], s.now)
			if err != nil || claims.Type != tokenTypeAccess {
				unauthorized(w, "Could not validate credentials")
				return
			}
			if claims.Generation < s.currentGeneration() || s.sessionRevoked(claims.Session) {
				unauthorized(w, "Token is invalid or expired")
				return
			}

			user, err := s.users.GetByID(users.ID(claims.Subject))
			if err != nil {
				unauthorized(w, "User not found")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			ctx = context.WithValue(ctx, ContextKeySession, claims.Session)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireRole rejects users holding none of roles. Chain after RequireAuth.
func (s *Server) RequireRole(roles ...users.RoleType) middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !currentUser(r).HasRole(roles...) {
				writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
				return
			}
			next(w, r)
		}
	}
}

func currentUser(r *http.Request) *users.User {
	u, _ := r.Context().Value(ContextKeyUser).(*users.User)
	return u
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, detail)
}
