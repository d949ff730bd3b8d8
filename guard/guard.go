// Package guard decides which console views a session may open. Everything
// here is a pure function of its arguments.
package guard

import (
	"fmt"

	"github.com/jrsteele09/edu-console/sessions"
	"github.com/jrsteele09/edu-console/users"
)

// Decision is the outcome of an access check.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// CanAccess checks an authenticated session's role against allowed. Sessions
// that are not authenticated are always sent to login, and a role outside the
// four console roles is never allowed, whatever allowed lists.
func CanAccess(s sessions.Snapshot, allowed ...users.RoleType) Decision {
	if !s.IsAuthenticated() {
		return RedirectLogin
	}
	if !s.User.Role.Valid() || !s.User.HasRole(allowed...) {
		return RedirectUnauthorized
	}
	return Allow
}

// LandingRouteFor returns the dashboard for role, or RouteUnauthorized for
// anything that is not one of the four console roles.
func LandingRouteFor(role users.RoleType) Route {
	switch role {
	case users.RoleOwner:
		return RouteOwnerDashboard
	case users.RoleAdministrator:
		return RouteAdminDashboard
	case users.RoleMentor:
		return RouteMentorDashboard
	case users.RoleStudent:
		return RouteStudentDashboard
	default:
		return RouteUnauthorized
	}
}
