package guard

import (
	"strings"

	"github.com/jrsteele09/edu-console/sessions"
	"github.com/jrsteele09/edu-console/users"
)

type Route string

const (
	RouteRoot             Route = "/"
	RouteLogin            Route = "/login"
	RouteUnauthorized     Route = "/unauthorized"
	RouteDashboard        Route = "/dashboard"
	RouteOwnerDashboard   Route = "/dashboard/owner"
	RouteAdminDashboard   Route = "/dashboard/admin"
	RouteMentorDashboard  Route = "/dashboard/mentor"
	RouteStudentDashboard Route = "/dashboard/student"
)

// Routes lists the protected views and the roles allowed to open them.
var Routes = map[Route][]users.RoleType{
	RouteOwnerDashboard:   {users.RoleOwner},
	RouteAdminDashboard:   {users.RoleAdministrator},
	RouteMentorDashboard:  {users.RoleMentor},
	RouteStudentDashboard: {users.RoleStudent},
}

// Resolve returns the view to show for a requested path and the decision that
// led to it. "/" goes to login, "/dashboard" goes to the session's landing
// view and unknown paths go to login.
func Resolve(s sessions.Snapshot, path string) (Route, Decision) {
	route := normalize(path)

	switch route {
	case RouteLogin, RouteUnauthorized:
		return route, Allow
	case RouteRoot:
		return RouteLogin, RedirectLogin
	case RouteDashboard:
		if !s.IsAuthenticated() {
			return RouteLogin, RedirectLogin
		}
		landing := LandingRouteFor(s.Role())
		if landing == RouteUnauthorized {
			return RouteUnauthorized, RedirectUnauthorized
		}
		return landing, Allow
	}

	allowed, ok := Routes[route]
	if !ok {
		return RouteLogin, RedirectLogin
	}
	switch d := CanAccess(s, allowed...); d {
	case Allow:
		return route, d
	case RedirectUnauthorized:
		return RouteUnauthorized, d
	default:
		return RouteLogin, d
	}
}

func normalize(path string) Route {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return RouteRoot
	}
	if trimmed := strings.TrimRight(path, "/"); trimmed != "" {
		path = trimmed
	} else {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return Route(path)
}
