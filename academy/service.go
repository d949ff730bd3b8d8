// Package academy provides typed access to the groups, students, mentors,
// attendance and scores resources, plus the figures the dashboards derive
// from them.
package academy

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jrsteele09/edu-console/gateway"
	apperrors "github.com/jrsteele09/edu-console/internal/errors"
	"github.com/jrsteele09/edu-console/internal/utils"
	"github.com/jrsteele09/edu-console/users"
)

const DefaultTopStudents = 10

// Requester sends authorized JSON requests. *gateway.Client implements it.
type Requester interface {
	AuthorizedRequest(ctx context.Context, method, path string, body, out any) error
}

var _ Requester = (*gateway.Client)(nil)

type Service struct {
	api Requester
}

func NewService(api Requester) *Service {
	return &Service{api: api}
}

// Groups

func (s *Service) ListGroups(ctx context.Context) ([]Group, error) {
	var groups []Group
	if err := s.api.AuthorizedRequest(ctx, http.MethodGet, gateway.PathGroups, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (s *Service) GetGroup(ctx context.Context, id ID) (*Group, error) {
	var g Group
	if err := s.api.AuthorizedRequest(ctx, http.MethodGet, gateway.Resource(gateway.PathGroups, id.String()), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Service) CreateGroup(ctx context.Context, g Group) (*Group, error) {
	var created Group
	if err := s.api.AuthorizedRequest(ctx, http.MethodPost, gateway.PathGroups, g, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Service) UpdateGroup(ctx context.Context, id ID, g Group) (*Group, error) {
	var updated Group
	if err := s.api.AuthorizedRequest(ctx, http.MethodPut, gateway.Resource(gateway.PathGroups, id.String()), g, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) DeleteGroup(ctx context.Context, id ID) error {
	return s.api.AuthorizedRequest(ctx, http.MethodDelete, gateway.Resource(gateway.PathGroups, id.String()), nil, nil)
}

// GroupsByMentor returns the groups led by mentorID.
func (s *Service) GroupsByMentor(ctx context.Context, mentorID ID) ([]Group, error) {
	all, err := s.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	groups := make([]Group, 0, len(all))
	for _, g := range all {
		if g.MentorID == mentorID {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

// Students

func (s *Service) ListStudents(ctx context.Context) ([]Student, error) {
	var students []Student
	if err := s.api.AuthorizedRequest(ctx, http.MethodGet, gateway.PathStudents, nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// StudentsInGroup filters ListStudents to one group.
func (s *Service) StudentsInGroup(ctx context.Context, groupID ID) ([]Student, error) {
	all, err := s.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	students := make([]Student, 0, len(all))
	for _, st := range all {
		if st.InGroup(groupID) {
			students = append(students, st)
		}
	}
	return students, nil
}

func (s *Service) GetStudent(ctx context.Context, id ID) (*Student, error) {
	var st Student
	if err := s.api.AuthorizedRequest(ctx, http.MethodGet, gateway.Resource(gateway.PathStudents, id.String()), nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Service) CreateStudent(ctx context.Context, st Student) (*Student, error) {
	var created Student
	if err := s.api.AuthorizedRequest(ctx, http.MethodPost, gateway.PathStudents, st, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Service) UpdateStudent(ctx context.Context, id ID, st Student) (*Student, error) {
	var updated Student
	if err := s.api.AuthorizedRequest(ctx, http.MethodPut, gateway.Resource(gateway.PathStudents, id.String()), st, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) DeleteStudent(ctx context.Context, id ID) error {
	return s.api.AuthorizedRequest(ctx, http.MethodDelete, gateway.Resource(gateway.PathStudents, id.String()), nil, nil)
}

// StudentByUserID finds the student record linked to a login account.
func (s *Service) StudentByUserID(ctx context.Context, userID ID) (*Student, error) {
	all, err := s.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].UserID != nil && *all[i].UserID == userID {
			return &all[i], nil
		}
	}
	return nil, apperrors.Wrapf(apperrors.ErrNotFound, "no student linked to user %s", userID)
}

// TopStudents returns up to limit students by coins, ranked from 1. A
// non-positive limit means DefaultTopStudents.
func (s *Service) TopStudents(ctx context.Context, limit int) ([]Student, error) {
	if limit <= 0 {
		limit = DefaultTopStudents
	}
	var students []Student
	path := gateway.Query(gateway.PathTopStudents, gateway.P("limit", strconv.Itoa(limit)))
	if err := s.api.AuthorizedRequest(ctx, http.MethodGet, path, nil, &students); err != nil {
		return nil, err
	}
	for i := range students {
		students[i].Rank = i + 1
	}
	return students, nil
}

// Mentors

func (s *Service) ListMentors(ctx context.Context) ([]users.User, error) {
	var mentors []users.User
	path := gateway.Query(gateway.PathUsers, gateway.P("role", users.RoleMentor.String()))
	if err := s.api.AuthorizedRequest(ctx, http.MethodGet, path, nil, &mentors); err != nil {
		return nil, err
	}
	return mentors, nil
}

func (s *Service) GetMentor(ctx context.Context, id ID) (*users.User, error) {
	var u users.User
	if err := s.api.AuthorizedRequest(ctx, http.MethodGet, gateway.Resource(gateway.PathUsers, id.String()), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateMentor creates a user account with the Mentor role, whatever role u carries.
func (s *Service) CreateMentor(ctx context.Context, u users.User) (*users.User, error) {
	u.Role = users.RoleMentor
	var created users.User
	if err := s.api.AuthorizedRequest(ctx, http.MethodPost, gateway.PathUsers, u, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Service) UpdateMentor(ctx context.Context, id ID, u users.User) (*users.User, error) {
	var updated users.User
	if err := s.api.AuthorizedRequest(ctx, http.MethodPut, gateway.Resource(gateway.PathUsers, id.String()), u, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) DeleteMentor(ctx context.Context, id ID) error {
	return s.api.AuthorizedRequest(ctx, http.MethodDelete, gateway.Resource(gateway.PathUsers, id.String()), nil, nil)
}

// Attendance

func (s *Service) ListAttendance(ctx context.Context, f AttendanceFilter) ([]Attendance, error) {
	var records []Attendance
	path := gateway.Query(gateway.PathAttendance,
		gateway.P("student_id", f.StudentID.String()),
		gateway.P("group_id", f.GroupID.String()),
	)
	if err := s.api.AuthorizedRequest(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Service) RecordAttendance(ctx context.Context, a Attendance) (*Attendance, error) {
	var created Attendance
	if err := s.api.AuthorizedRequest(ctx, http.MethodPost, gateway.PathAttendance, a, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Service) UpdateAttendance(ctx context.Context, id ID, a Attendance) (*Attendance, error) {
	var updated Attendance
	if err := s.api.AuthorizedRequest(ctx, http.MethodPut, gateway.Resource(gateway.PathAttendance, id.String()), a, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Scores

func (s *Service) ListScores(ctx context.Context, studentID ID) ([]Score, error) {
	var scores []Score
	path := gateway.Query(gateway.PathScores, gateway.P("student_id", studentID.String()))
	if err := s.api.AuthorizedRequest(ctx, http.MethodGet, path, nil, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// AddScore records a score. Reward coins travel both in the body and as the
// coins query parameter, which is where the backend reads them.
func (s *Service) AddScore(ctx context.Context, ns NewScore) (*Score, error) {
	coins := ""
	if utils.Value(ns.Coins) != 0 {
		coins = strconv.Itoa(*ns.Coins)
	}
	var created Score
	path := gateway.Query(gateway.PathScores, gateway.P("coins", coins))
	if err := s.api.AuthorizedRequest(ctx, http.MethodPost, path, ns, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// StudentSummary fetches a student with their attendance and scores and
// returns the dashboard figures for them.
func (s *Service) StudentSummary(ctx context.Context, id ID) (Summary, error) {
	st, err := s.GetStudent(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	if st.Attendance == nil {
		if st.Attendance, err = s.ListAttendance(ctx, AttendanceFilter{StudentID: id}); err != nil {
			return Summary{}, err
		}
	}
	if st.Scores == nil {
		if st.Scores, err = s.ListScores(ctx, id); err != nil {
			return Summary{}, err
		}
	}
	return Summarize(*st), nil
}
