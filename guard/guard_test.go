package guard_test

import (
	"testing"

	"github.com/jrsteele09/edu-console/guard"
	"github.com/jrsteele09/edu-console/sessions"
	"github.com/jrsteele09/edu-console/users"
	"github.com/stretchr/testify/require"
)

func authenticated(role users.RoleType) sessions.Snapshot {
	return sessions.Snapshot{
		User:   &users.User{ID: "1", Username: "u", Role: role},
		Status: sessions.StatusAuthenticated,
	}
}

var unauthenticated = []sessions.Snapshot{
	{},
	{Status: sessions.StatusAuthenticating},
	{Status: sessions.StatusAuthenticating, User: &users.User{Role: users.RoleOwner}},
	{Status: sessions.StatusAuthenticated},
	{Status: sessions.StatusAnonymous, User: &users.User{Role: users.RoleOwner}},
}

func TestCanAccess(t *testing.T) {
	t.Run("admin scenario", func(t *testing.T) {
		s := authenticated(users.RoleAdministrator)
		require.Equal(t, guard.Allow, guard.CanAccess(s, users.RoleAdministrator))
		require.Equal(t, guard.RedirectUnauthorized, guard.CanAccess(s, users.RoleStudent))
	})

	t.Run("unauthenticated sessions never allowed", func(t *testing.T) {
		for _, s := range unauthenticated {
			require.Equal(t, guard.RedirectLogin, guard.CanAccess(s, users.AllRoles...))
			require.Equal(t, guard.RedirectLogin, guard.CanAccess(s))
		}
	})

	t.Run("total and deterministic", func(t *testing.T) {
		roles := append(append([]users.RoleType{}, users.AllRoles...), "Janitor", "")
		for _, role := range roles {
			s := authenticated(role)
			for _, allowed := range roles {
				first := guard.CanAccess(s, allowed)
				require.Contains(t, []guard.Decision{guard.Allow, guard.RedirectLogin, guard.RedirectUnauthorized}, first)
				for i := 0; i < 3; i++ {
					require.Equal(t, first, guard.CanAccess(s, allowed))
				}
				require.NotEqual(t, guard.RedirectLogin, first)
			}
			require.Equal(t, guard.RedirectUnauthorized, guard.CanAccess(s))
		}
	})

	t.Run("unknown roles never allowed", func(t *testing.T) {
		for _, role := range []users.RoleType{"Janitor", "", "CEO", "owner"} {
			s := authenticated(role)
			require.Equal(t, guard.RedirectUnauthorized, guard.CanAccess(s, role), "role %q", role)
			require.Equal(t, guard.RedirectUnauthorized, guard.CanAccess(s, append([]users.RoleType{role}, users.AllRoles...)...), "role %q", role)
			require.Equal(t, guard.RedirectUnauthorized, guard.CanPerform(s, guard.ViewScores), "role %q", role)
		}
	})
}

func TestLandingRouteFor(t *testing.T) {
	tests := []struct {
		role users.RoleType
		want guard.Route
	}{
		{users.RoleOwner, guard.RouteOwnerDashboard},
		{users.RoleAdministrator, guard.RouteAdminDashboard},
		{users.RoleMentor, guard.RouteMentorDashboard},
		{users.RoleStudent, guard.RouteStudentDashboard},
		{"CEO", guard.RouteUnauthorized},
		{"mentor", guard.RouteUnauthorized},
		{"", guard.RouteUnauthorized},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, guard.LandingRouteFor(tt.role), "role %q", tt.role)
	}
}

func TestResolve(t *testing.T) {
	mentor := authenticated(users.RoleMentor)
	stranger := authenticated("Janitor")
	anon := sessions.Snapshot{}

	tests := []struct {
		name     string
		session  sessions.Snapshot
		path     string
		route    guard.Route
		decision guard.Decision
	}{
		{"root goes to login", mentor, "/", guard.RouteLogin, guard.RedirectLogin},
		{"login is public", anon, "/login", guard.RouteLogin, guard.Allow},
		{"unauthorized is public", anon, "/unauthorized/", guard.RouteUnauthorized, guard.Allow},
		{"dashboard lands on role view", mentor, "/dashboard", guard.RouteMentorDashboard, guard.Allow},
		{"dashboard needs a session", anon, "/dashboard", guard.RouteLogin, guard.RedirectLogin},
		{"dashboard with unknown role", stranger, "/dashboard", guard.RouteUnauthorized, guard.RedirectUnauthorized},
		{"own dashboard", mentor, "/dashboard/mentor/", guard.RouteMentorDashboard, guard.Allow},
		{"other dashboard", mentor, "/dashboard/owner", guard.RouteUnauthorized, guard.RedirectUnauthorized},
		{"protected without session", anon, "/dashboard/student?tab=scores", guard.RouteLogin, guard.RedirectLogin},
		{"unknown path", mentor, "/reports", guard.RouteLogin, guard.RedirectLogin},
		{"empty path", mentor, "", guard.RouteLogin, guard.RedirectLogin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, decision := guard.Resolve(tt.session, tt.path)
			require.Equal(t, tt.route, route)
			require.Equal(t, tt.decision, decision)
		})
	}
}

func TestPermitted(t *testing.T) {
	require.True(t, guard.Permitted(users.RoleOwner, guard.ManageMentors))
	require.False(t, guard.Permitted(users.RoleAdministrator, guard.ManageMentors))
	require.True(t, guard.Permitted(users.RoleAdministrator, guard.ManageGroups))
	require.False(t, guard.Permitted(users.RoleMentor, guard.ManageGroups))
	require.True(t, guard.Permitted(users.RoleMentor, guard.RecordAttendance))
	require.True(t, guard.Permitted(users.RoleMentor, guard.AddScores))
	require.False(t, guard.Permitted(users.RoleStudent, guard.AddScores))
	require.True(t, guard.Permitted(users.RoleStudent, guard.ViewScores))
	require.False(t, guard.Permitted(users.RoleStudent, guard.ViewGroups))
	require.False(t, guard.Permitted("Janitor", guard.ViewScores))
	require.False(t, guard.Permitted(users.RoleOwner, "launch_rockets"))
}

func TestCanPerform(t *testing.T) {
	require.Equal(t, guard.RedirectLogin, guard.CanPerform(sessions.Snapshot{}, guard.ViewScores))
	require.Equal(t, guard.Allow, guard.CanPerform(authenticated(users.RoleMentor), guard.ViewStudents))
	require.Equal(t, guard.RedirectUnauthorized, guard.CanPerform(authenticated(users.RoleStudent), guard.ViewStudents))
}
