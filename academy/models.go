package academy

import "github.com/jrsteele09/edu-console/users"

// ID identifies any academy record. The backend may send numbers or strings.
type ID = users.ID

type Group struct {
	ID       ID        `json:"id,omitempty"`
	Name     string    `json:"name"`
	MentorID ID        `json:"mentor_id"`
	Schedule string    `json:"schedule"`
	Price    *int      `json:"price,omitempty"`
	Students []Student `json:"students,omitempty"`
}

type Student struct {
	ID          ID           `json:"id,omitempty"`
	Name        string       `json:"name"`
	UserID      *ID          `json:"user_id,omitempty"`
	GroupID     *ID          `json:"group_id,omitempty"`
	Phone       *string      `json:"phone,omitempty"`
	ParentPhone *string      `json:"parent_phone,omitempty"`
	Address     *string      `json:"address,omitempty"`
	Age         *int         `json:"age,omitempty"`
	Coins       int          `json:"coins"`
	Attendance  []Attendance `json:"attendance,omitempty"`
	Scores      []Score      `json:"scores,omitempty"`

	// Rank is assigned client side when listing top students.
	Rank int `json:"rank,omitempty"`

	// Username and Password create a linked Student login when set on create.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// InGroup reports whether the student belongs to group id.
func (s *Student) InGroup(id ID) bool {
	return s.GroupID != nil && *s.GroupID == id
}

type Attendance struct {
	ID        ID     `json:"id,omitempty"`
	Date      string `json:"date"`
	Present   bool   `json:"present"`
	StudentID ID     `json:"student_id"`
}

type Score struct {
	ID          ID      `json:"id,omitempty"`
	Date        string  `json:"date"`
	Value       int     `json:"value"`
	StudentID   ID      `json:"student_id"`
	Description *string `json:"description,omitempty"`
}

// NewScore is the body of an add-score request. Coins, when set, are added to
// the student's reward balance.
type NewScore struct {
	StudentID   ID      `json:"student_id"`
	Value       int     `json:"value"`
	Date        string  `json:"date"`
	Description *string `json:"description,omitempty"`
	Coins       *int    `json:"coins,omitempty"`
}

// AttendanceFilter narrows ListAttendance. Empty fields are not sent.
type AttendanceFilter struct {
	StudentID ID
	GroupID   ID
}
