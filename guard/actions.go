package guard

import (
	"github.com/jrsteele09/edu-console/sessions"
	"github.com/jrsteele09/edu-console/users"
)

// Action is something a console user can ask to do.
type Action string

const (
	ViewGroups       Action = "view_groups"
	ManageGroups     Action = "manage_groups"
	ViewStudents     Action = "view_students"
	ManageStudents   Action = "manage_students"
	ViewMentors      Action = "view_mentors"
	ManageMentors    Action = "manage_mentors"
	ViewAttendance   Action = "view_attendance"
	RecordAttendance Action = "record_attendance"
	ViewScores       Action = "view_scores"
	AddScores        Action = "add_scores"
	ViewTopStudents  Action = "view_top_students"
	ViewReports      Action = "view_reports"
)

var (
	everyone   = users.AllRoles
	staff      = []users.RoleType{users.RoleOwner, users.RoleAdministrator}
	instructor = []users.RoleType{users.RoleOwner, users.RoleAdministrator, users.RoleMentor}
)

var permissions = map[Action][]users.RoleType{
	ViewGroups:       instructor,
	ManageGroups:     staff,
	ViewStudents:     instructor,
	ManageStudents:   staff,
	ViewMentors:      staff,
	ManageMentors:    {users.RoleOwner},
	ViewAttendance:   everyone,
	RecordAttendance: instructor,
	ViewScores:       everyone,
	AddScores:        instructor,
	ViewTopStudents:  everyone,
	ViewReports:      staff,
}

// Permitted reports whether role may perform action. Unknown actions and
// roles are never permitted.
func Permitted(role users.RoleType, action Action) bool {
	for _, r := range permissions[action] {
		if r == role {
			return true
		}
	}
	return false
}

// CanPerform is CanAccess for an action instead of a view.
func CanPerform(s sessions.Snapshot, action Action) Decision {
	return CanAccess(s, permissions[action]...)
}
