package sessions

import (
	"fmt"

	"github.com/jrsteele09/edu-console/users"
)

// Status is where a session sits in its lifecycle.
type Status int

const (
	StatusAnonymous Status = iota
	StatusAuthenticating
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Snapshot is a read-only copy of the session handed to the rest of the
// console. Changing it has no effect on the Manager.
type Snapshot struct {
	User   *users.User
	Status Status

	// LastError is the readable reason the last login or recovery failed.
	// Empty once a later operation succeeds.
	LastError string
}

// IsAuthenticated is true only with a user on record and an authenticated status.
func (s Snapshot) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}

func (s Snapshot) IsLoading() bool {
	return s.Status == StatusAuthenticating
}

// Role returns the user's role, or "" for an anonymous session.
func (s Snapshot) Role() users.RoleType {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}
