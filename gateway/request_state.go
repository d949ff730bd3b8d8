package gateway

import (
	"fmt"

	apperrors "github.com/jrsteele09/edu-console/internal/errors"
	"github.com/rs/zerolog"
)

// RequestState is a step in the life of one authorized request.
type RequestState int

const (
	StateIdle RequestState = iota
	StateSending
	StateSuccess
	StateAuthFailed
	StateRefreshing
	StateRetry
	StateSessionExpired
	StateFailed
)

var stateNames = map[RequestState]string{
	StateIdle:           "idle",
	StateSending:        "sending",
	StateSuccess:        "success",
	StateAuthFailed:     "auth_failed",
	StateRefreshing:     "refreshing",
	StateRetry:          "retry",
	StateSessionExpired: "session_expired",
	StateFailed:         "failed",
}

func (s RequestState) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s RequestState) Terminal() bool {
	return s == StateSuccess || s == StateSessionExpired || s == StateFailed
}

// Retry has no edge back to AuthFailed, which is what limits a request to a
// single refresh and a single retry.
var transitions = map[RequestState][]RequestState{
	StateIdle:       {StateSending},
	StateSending:    {StateSuccess, StateAuthFailed, StateFailed},
	StateAuthFailed: {StateRefreshing},
	StateRefreshing: {StateRetry, StateSessionExpired, StateFailed},
	StateRetry:      {StateSuccess, StateSessionExpired, StateFailed},
}

// TransitionFunc observes state changes of authorized requests.
type TransitionFunc func(requestID string, from, to RequestState)

type requestMachine struct {
	id       string
	method   string
	path     string
	state    RequestState
	logger   zerolog.Logger
	observer TransitionFunc
}

func newRequestMachine(id, method, path string, logger zerolog.Logger, observer TransitionFunc) *requestMachine {
	return &requestMachine{
		id:       id,
		method:   method,
		path:     path,
		state:    StateIdle,
		logger:   logger,
		observer: observer,
	}
}

func (m *requestMachine) to(next RequestState) error {
	for _, allowed := range transitions[m.state] {
		if allowed == next {
			prev := m.state
			m.state = next
			m.logger.Debug().
				Str("request_id", m.id).
				Str("method", m.method).
				Str("path", m.path).
				Stringer("from", prev).
				Stringer("to", next).
				Msg("request state")
			if m.observer != nil {
				m.observer(m.id, prev, next)
			}
			return nil
		}
	}
	return apperrors.Wrapf(apperrors.ErrInternal, "illegal request transition %s -> %s", m.state, next)
}
