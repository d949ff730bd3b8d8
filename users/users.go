package users

import (
	"bytes"
	"encoding/json"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// ID is an identifier as sent by the backend. Some deployments serialise ids
// as JSON numbers and others as strings; both decode to the same value.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Int returns the numeric form of the id, or 0 when it is not numeric.
func (id ID) Int() int {
	n, _ := strconv.Atoi(string(id))
	return n
}

type User struct {
	ID       ID       `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Role     RoleType `json:"role"`
	Phone    string   `json:"phone,omitempty"`
	Email    string   `json:"email,omitempty"`
	Age      int      `json:"age,omitempty"`
	Address  string   `json:"address,omitempty"`

	// Password is only sent when creating or updating a user; the backend never returns it.
	Password string `json:"password,omitempty"`
}

// HasRole reports whether the user holds one of the given roles.
func (u *User) HasRole(roles ...RoleType) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func (u *User) IsOwner() bool {
	return u.HasRole(RoleOwner)
}

func (u *User) IsAdministrator() bool {
	return u.HasRole(RoleAdministrator)
}

func (u *User) IsMentor() bool {
	return u.HasRole(RoleMentor)
}

func (u *User) IsStudent() bool {
	return u.HasRole(RoleStudent)
}

// Clone returns a copy that shares no memory with u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
