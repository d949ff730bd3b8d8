package fakeapi

import (
	"github.com/jrsteele09/edu-console/academy"
	"github.com/jrsteele09/edu-console/internal/utils"
	"github.com/jrsteele09/edu-console/users"
	"github.com/pkg/errors"
)

// Account is a login the sandbox accepts.
type Account struct {
	Username string
	Password string
	Name     string
	Role     users.RoleType
}

// DemoAccounts are the logins SeedDemo creates, one per role.
var DemoAccounts = []Account{
	{Username: "owner", Password: "owner123", Name: "John Director", Role: users.RoleOwner},
	{Username: "admin", Password: "admin123", Name: "Mike Manager", Role: users.RoleAdministrator},
	{Username: "mentor", Password: "mentor123", Name: "Sarah Teacher", Role: users.RoleMentor},
	{Username: "student", Password: "student123", Name: "Alex Learner", Role: users.RoleStudent},
}

// AddAccount creates a login with a bcrypt-hashed password.
func (s *Server) AddAccount(a Account) (*users.User, error) {
	u, err := s.createAccount(users.User{
		Username: a.Username,
		Name:     a.Name,
		Role:     a.Role,
	}, a.Password)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to add account %s", a.Username)
	}
	return u, nil
}

// AddGroup stores g as is, bypassing request validation.
func (s *Server) AddGroup(g academy.Group) academy.Group {
	return s.data.putGroup(g)
}

// AddStudent stores st as is, bypassing request validation.
func (s *Server) AddStudent(st academy.Student) academy.Student {
	return s.data.putStudent(st)
}

// AddAttendance stores a.
func (s *Server) AddAttendance(a academy.Attendance) academy.Attendance {
	return s.data.putAttendance(a)
}

// AddScore stores sc and credits coins to its student.
func (s *Server) AddScore(sc academy.Score, coins int) (academy.Score, bool) {
	return s.data.addScore(sc, coins)
}

// SeedDemo creates the demo accounts plus one group with a few students,
// attendance and scores, enough to exercise every console command.
func (s *Server) SeedDemo() error {
	accounts := make(map[users.RoleType]*users.User, len(DemoAccounts))
	for _, a := range DemoAccounts {
		u, err := s.AddAccount(a)
		if err != nil {
			return err
		}
		accounts[a.Role] = u
	}

	group := s.AddGroup(academy.Group{
		Name:     "Frontend Basics",
		MentorID: accounts[users.RoleMentor].ID,
		Schedule: "Mon/Wed/Fri 14:00",
		Price:    utils.Ptr(400000),
	})

	roster := []struct {
		name    string
		userID  *academy.ID
		coins   int
		present []bool
		scores  []int
	}{
		{"Alex Learner", utils.Ptr(accounts[users.RoleStudent].ID), 120, []bool{true, true, false, true}, []int{92, 88}},
		{"Bella Coder", nil, 150, []bool{true, true, true, true}, []int{95, 97}},
		{"Chris Logic", nil, 80, []bool{false, true, false, true}, []int{64, 71}},
	}
	dates := []string{"2024-03-04", "2024-03-06", "2024-03-08", "2024-03-11"}

	for _, r := range roster {
		st := s.AddStudent(academy.Student{
			Name:    r.name,
			UserID:  r.userID,
			GroupID: utils.Ptr(group.ID),
			Coins:   r.coins,
		})
		for i, present := range r.present {
			s.AddAttendance(academy.Attendance{Date: dates[i], Present: present, StudentID: st.ID})
		}
		for i, v := range r.scores {
			s.AddScore(academy.Score{Date: dates[i], Value: v, StudentID: st.ID}, 0)
		}
	}
	return nil
}
