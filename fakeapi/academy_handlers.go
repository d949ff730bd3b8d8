package fakeapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/edu-console/academy"
	apperrors "github.com/jrsteele09/edu-console/internal/errors"
	"github.com/jrsteele09/edu-console/internal/utils"
	"github.com/jrsteele09/edu-console/users"
)

func pathID(r *http.Request) academy.ID {
	return academy.ID(r.PathValue("id"))
}

// canReachStudent reports whether u may see or write records of st. Mentors
// are limited to students in their own groups and students to themselves.
func (s *Server) canReachStudent(u *users.User, st academy.Student) bool {
	switch {
	case u.HasRole(users.RoleOwner, users.RoleAdministrator):
		return true
	case u.IsMentor():
		return st.GroupID != nil && s.data.mentorGroups(u.ID)[*st.GroupID]
	case u.IsStudent():
		return st.UserID != nil && *st.UserID == u.ID
	default:
		return false
	}
}

// GROUPS

func (s *Server) ListGroupsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.data.listGroups(nil))
	}
}

func (s *Server) GetGroupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, ok := s.data.group(pathID(r))
		if !ok {
			writeDetail(w, http.StatusNotFound, "Group not found")
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

func (s *Server) validMentor(id academy.ID) bool {
	u, err := s.users.GetByID(id)
	return err == nil && u.IsMentor()
}

func (s *Server) CreateGroupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var g academy.Group
		if !decodeJSON(w, r, &g) {
			return
		}
		if strings.TrimSpace(g.Name) == "" {
			writeDetail(w, http.StatusBadRequest, "Group name is required")
			return
		}
		if !s.validMentor(g.MentorID) {
			writeDetail(w, http.StatusBadRequest, "Invalid mentor ID")
			return
		}
		g.ID = ""
		writeJSON(w, http.StatusCreated, s.data.putGroup(g))
	}
}

func (s *Server) UpdateGroupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, ok := s.data.group(pathID(r))
		if !ok {
			writeDetail(w, http.StatusNotFound, "Group not found")
			return
		}
		var g academy.Group
		if !decodeJSON(w, r, &g) {
			return
		}
		if g.Name == "" {
			g.Name = existing.Name
		}
		if g.Schedule == "" {
			g.Schedule = existing.Schedule
		}
		if g.Price == nil {
			g.Price = existing.Price
		}
		if g.MentorID == "" {
			g.MentorID = existing.MentorID
		} else if !s.validMentor(g.MentorID) {
			writeDetail(w, http.StatusBadRequest, "Invalid mentor ID")
			return
		}
		g.ID = existing.ID
		s.data.putGroup(g)
		updated, _ := s.data.group(g.ID)
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) DeleteGroupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.data.deleteGroup(pathID(r)) {
			writeDetail(w, http.StatusNotFound, "Group not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// STUDENTS

func (s *Server) ListStudentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// mentors only see their own groups' students
		var groups map[academy.ID]bool
		if u := currentUser(r); u.IsMentor() {
			groups = s.data.mentorGroups(u.ID)
		}
		writeJSON(w, http.StatusOK, s.data.listStudents(func(st academy.Student) bool {
			return groups == nil || (st.GroupID != nil && groups[*st.GroupID])
		}))
	}
}

func (s *Server) GetStudentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, ok := s.data.student(pathID(r))
		if !ok {
			writeDetail(w, http.StatusNotFound, "Student not found")
			return
		}
		if u := currentUser(r); u.IsMentor() && !s.canReachStudent(u, st) {
			writeDetail(w, http.StatusForbidden, "Not authorized to view this student")
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func (s *Server) CreateStudentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var st academy.Student
		if !decodeJSON(w, r, &st) {
			return
		}
		if strings.TrimSpace(st.Name) == "" {
			writeDetail(w, http.StatusBadRequest, "Student name is required")
			return
		}
		if st.GroupID != nil {
			if _, ok := s.data.group(*st.GroupID); !ok {
				writeDetail(w, http.StatusBadRequest, "Invalid group ID")
				return
			}
		}

		if st.Username != "" && st.Password != "" {
			account, err := s.createAccount(users.User{
				Username: st.Username,
				Name:     st.Name,
				Role:     users.RoleStudent,
			}, st.Password)
			if err != nil {
				writeDetail(w, http.StatusBadRequest, "Username already exists")
				return
			}
			st.UserID = utils.Ptr(account.ID)
		}

		st.ID = ""
		writeJSON(w, http.StatusCreated, s.data.putStudent(st))
	}
}

func (s *Server) UpdateStudentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, ok := s.data.student(pathID(r))
		if !ok {
			writeDetail(w, http.StatusNotFound, "Student not found")
			return
		}
		var st academy.Student
		if !decodeJSON(w, r, &st) {
			return
		}
		if st.Name == "" {
			st.Name = existing.Name
		}
		if st.UserID == nil {
			st.UserID = existing.UserID
		}
		if st.GroupID == nil {
			st.GroupID = existing.GroupID
		}
		if st.Phone == nil {
			st.Phone = existing.Phone
		}
		if st.ParentPhone == nil {
			st.ParentPhone = existing.ParentPhone
		}
		if st.Address == nil {
			st.Address = existing.Address
		}
		if st.Age == nil {
			st.Age = existing.Age
		}
		st.ID = existing.ID
		writeJSON(w, http.StatusOK, s.data.putStudent(st))
	}
}

func (s *Server) DeleteStudentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.data.deleteStudent(pathID(r)) {
			writeDetail(w, http.StatusNotFound, "Student not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) TopStudentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := academy.DefaultTopStudents
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeDetail(w, http.StatusUnprocessableEntity, "limit must be a positive integer")
				return
			}
			limit = n
		}
		writeJSON(w, http.StatusOK, s.data.topStudents(limit))
	}
}

// ATTENDANCE

func (s *Server) ListAttendanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := academy.ID(r.URL.Query().Get("student_id"))
		groupID := academy.ID(r.URL.Query().Get("group_id"))

		var inGroup map[academy.ID]bool
		if groupID != "" {
			inGroup = make(map[academy.ID]bool)
			for _, st := range s.data.listStudents(func(st academy.Student) bool { return st.InGroup(groupID) }) {
				inGroup[st.ID] = true
			}
		}

		writeJSON(w, http.StatusOK, s.data.listAttendance(func(a academy.Attendance) bool {
			if studentID != "" && a.StudentID != studentID {
				return false
			}
			return inGroup == nil || inGroup[a.StudentID]
		}))
	}
}

// writableStudent loads the student a write refers to and checks the caller
// may touch it, answering the request itself when not.
func (s *Server) writableStudent(w http.ResponseWriter, r *http.Request, id academy.ID, what string) bool {
	st, ok := s.data.student(id)
	if !ok {
		writeDetail(w, http.StatusBadRequest, "Invalid student ID")
		return false
	}
	u := currentUser(r)
	if u.IsStudent() || !s.canReachStudent(u, st) {
		writeDetail(w, http.StatusForbidden, "Not authorized to "+what+" for this student")
		return false
	}
	return true
}

func (s *Server) RecordAttendanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a academy.Attendance
		if !decodeJSON(w, r, &a) {
			return
		}
		if !s.writableStudent(w, r, a.StudentID, "record attendance") {
			return
		}
		a.ID = ""
		writeJSON(w, http.StatusCreated, s.data.putAttendance(a))
	}
}

func (s *Server) UpdateAttendanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, ok := s.data.attendanceRecord(pathID(r))
		if !ok {
			writeDetail(w, http.StatusNotFound, "Attendance record not found")
			return
		}
		var a academy.Attendance
		if !decodeJSON(w, r, &a) {
			return
		}
		if a.StudentID == "" {
			a.StudentID = existing.StudentID
		}
		if a.Date == "" {
			a.Date = existing.Date
		}
		if !s.writableStudent(w, r, a.StudentID, "record attendance") {
			return
		}
		a.ID = existing.ID
		writeJSON(w, http.StatusOK, s.data.putAttendance(a))
	}
}

// SCORES

func (s *Server) ListScoresHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := academy.ID(r.URL.Query().Get("student_id"))
		writeJSON(w, http.StatusOK, s.data.listScores(func(sc academy.Score) bool {
			return studentID == "" || sc.StudentID == studentID
		}))
	}
}

// AddScoreHandler records a score. Reward coins are read from the coins query
// parameter, falling back to the body.
func (s *Server) AddScoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ns academy.NewScore
		if !decodeJSON(w, r, &ns) {
			return
		}
		coins := utils.Value(ns.Coins)
		if raw := r.URL.Query().Get("coins"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeDetail(w, http.StatusUnprocessableEntity, "coins must be an integer")
				return
			}
			coins = n
		}
		if !s.writableStudent(w, r, ns.StudentID, "add scores") {
			return
		}

		sc, ok := s.data.addScore(academy.Score{
			Date:        ns.Date,
			Value:       ns.Value,
			StudentID:   ns.StudentID,
			Description: ns.Description,
		}, coins)
		if !ok {
			writeDetail(w, http.StatusBadRequest, "Invalid student ID")
			return
		}
		writeJSON(w, http.StatusCreated, sc)
	}
}

// USERS

func (s *Server) createAccount(u users.User, password string) (*users.User, error) {
	hash, err := users.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u.ID = ""
	if err := s.users.Upsert(&u); err != nil {
		return nil, err
	}
	if err := s.users.SetPasswordHash(u.ID, hash); err != nil {
		return nil, err
	}
	return s.users.GetByID(u.ID)
}

func (s *Server) ListUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var role users.RoleType
		if raw := r.URL.Query().Get("role"); raw != "" {
			role, _ = users.ParseRole(raw)
		}
		list, err := s.users.List(role)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) GetUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.users.GetByID(pathID(r))
		if err != nil {
			writeDetail(w, http.StatusNotFound, "User not found")
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func (s *Server) CreateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var u users.User
		if !decodeJSON(w, r, &u) {
			return
		}
		if u.Username == "" || u.Password == "" {
			writeDetail(w, http.StatusBadRequest, "Username and password are required")
			return
		}
		if !u.Role.Valid() {
			writeDetail(w, http.StatusBadRequest, "Invalid role")
			return
		}
		created, err := s.createAccount(u, u.Password)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Username already exists")
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func (s *Server) UpdateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, err := s.users.GetByID(pathID(r))
		if err != nil {
			writeDetail(w, http.StatusNotFound, "User not found")
			return
		}
		var u users.User
		if !decodeJSON(w, r, &u) {
			return
		}
		merged := mergeUser(existing, &u)
		if !merged.Role.Valid() {
			writeDetail(w, http.StatusBadRequest, "Invalid role")
			return
		}
		if err := s.users.Upsert(merged); err != nil {
			writeDetail(w, http.StatusBadRequest, "Username already exists")
			return
		}
		if u.Password != "" {
			hash, err := users.HashPassword(u.Password)
			if err == nil {
				err = s.users.SetPasswordHash(merged.ID, hash)
			}
			if err != nil {
				writeDetail(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		updated, _ := s.users.GetByID(merged.ID)
		writeJSON(w, http.StatusOK, updated)
	}
}

func mergeUser(existing, patch *users.User) *users.User {
	merged := existing.Clone()
	if patch.Username != "" {
		merged.Username = patch.Username
	}
	if patch.Name != "" {
		merged.Name = patch.Name
	}
	if patch.Role != "" {
		merged.Role = patch.Role
	}
	if patch.Phone != "" {
		merged.Phone = patch.Phone
	}
	if patch.Email != "" {
		merged.Email = patch.Email
	}
	if patch.Age != 0 {
		merged.Age = patch.Age
	}
	if patch.Address != "" {
		merged.Address = patch.Address
	}
	return merged
}

func (s *Server) DeleteUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		if err := s.users.Delete(id); err != nil {
			status := http.StatusInternalServerError
			if apperrors.Is(err, apperrors.ErrNotFound) {
				status = http.StatusNotFound
			}
			writeDetail(w, status, "User not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
