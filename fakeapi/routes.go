package fakeapi

import (
	"net/http"

	"github.com/jrsteele09/edu-console/gateway"
	"github.com/jrsteele09/edu-console/users"
)

var staff = []users.RoleType{users.RoleOwner, users.RoleAdministrator}

func (s *Server) initRoutes() {
	// AUTH
	s.handle("POST "+gateway.PathLogin+"{$}", s.LoginHandler())
	s.handle("POST "+gateway.PathLogout+"{$}", s.LogoutHandler(), s.RequireAuth())
	s.handle("GET "+gateway.PathUser+"{$}", s.CurrentUserHandler(), s.RequireAuth())
	s.handle("POST "+gateway.PathRefresh+"{$}", s.RefreshHandler())

	// GROUPS
	s.handle("GET "+gateway.PathGroups+"{$}", s.ListGroupsHandler(), s.RequireAuth())
	s.handle("POST "+gateway.PathGroups+"{$}", s.CreateGroupHandler(), s.RequireAuth(), s.RequireRole(staff...))
	s.handle("GET "+gateway.PathGroups+"{id}/", s.GetGroupHandler(), s.RequireAuth())
	s.handle("PUT "+gateway.PathGroups+"{id}/", s.UpdateGroupHandler(), s.RequireAuth(), s.RequireRole(staff...))
	s.handle("DELETE "+gateway.PathGroups+"{id}/", s.DeleteGroupHandler(), s.RequireAuth(), s.RequireRole(staff...))

	// STUDENTS
	s.handle("GET "+gateway.PathStudents+"{$}", s.ListStudentsHandler(), s.RequireAuth())
	s.handle("POST "+gateway.PathStudents+"{$}", s.CreateStudentHandler(), s.RequireAuth(), s.RequireRole(staff...))
	s.handle("GET "+gateway.PathTopStudents+"{$}", s.TopStudentsHandler(), s.RequireAuth())
	s.handle("GET "+gateway.PathStudents+"{id}/", s.GetStudentHandler(), s.RequireAuth())
	s.handle("PUT "+gateway.PathStudents+"{id}/", s.UpdateStudentHandler(), s.RequireAuth(), s.RequireRole(staff...))
	s.handle("DELETE "+gateway.PathStudents+"{id}/", s.DeleteStudentHandler(), s.RequireAuth(), s.RequireRole(staff...))

	// ATTENDANCE
	s.handle("GET "+gateway.PathAttendance+"{$}", s.ListAttendanceHandler(), s.RequireAuth())
	s.handle("POST "+gateway.PathAttendance+"{$}", s.RecordAttendanceHandler(), s.RequireAuth())
	s.handle("PUT "+gateway.PathAttendance+"{id}/", s.UpdateAttendanceHandler(), s.RequireAuth())

	// SCORES
	s.handle("GET "+gateway.PathScores+"{$}", s.ListScoresHandler(), s.RequireAuth())
	s.handle("POST "+gateway.PathScores+"{$}", s.AddScoreHandler(), s.RequireAuth())

	// USERS
	s.handle("GET "+gateway.PathUsers+"{$}", s.ListUsersHandler(), s.RequireAuth())
	s.handle("POST "+gateway.PathUsers+"{$}", s.CreateUserHandler(), s.RequireAuth(), s.RequireRole(staff...))
	s.handle("GET "+gateway.PathUsers+"{id}/", s.GetUserHandler(), s.RequireAuth())
	s.handle("PUT "+gateway.PathUsers+"{id}/", s.UpdateUserHandler(), s.RequireAuth(), s.RequireRole(staff...))
	s.handle("DELETE "+gateway.PathUsers+"{id}/", s.DeleteUserHandler(), s.RequireAuth(), s.RequireRole(users.RoleOwner))
}

func (s *Server) handle(pattern string, h http.HandlerFunc, mw ...middleware) {
	s.RegisterRouteFunc(pattern, ChainMiddleware(h, s.APIMiddleware(pattern, mw...)...))
}
