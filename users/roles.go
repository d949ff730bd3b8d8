package users

import (
	"encoding/json"
	"strings"
)

// RoleType is a console role. Values outside the four defined roles are kept
// verbatim so callers can route them to the unauthorized view.
type RoleType string

const (
	RoleOwner         RoleType = "Owner"
	RoleAdministrator RoleType = "Administrator"
	RoleMentor        RoleType = "Mentor"
	RoleStudent       RoleType = "Student"
)

var (
	AllRoles = []RoleType{RoleOwner, RoleAdministrator, RoleMentor, RoleStudent}

	rolePriorities = map[RoleType]int{
		RoleOwner:         4,
		RoleAdministrator: 3,
		RoleMentor:        2,
		RoleStudent:       1,
	}

	// earlier backend revisions used these spellings
	legacyRoles = map[string]RoleType{
		"ceo":   RoleOwner,
		"admin": RoleAdministrator,
	}
)

// ParseRole maps a wire value to a RoleType. Matching is case-insensitive and
// accepts the legacy "CEO" and "Admin" spellings. Unknown values are returned
// unchanged with ok == false.
func ParseRole(s string) (RoleType, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, r := range AllRoles {
		if strings.ToLower(string(r)) == key {
			return r, true
		}
	}
	if r, ok := legacyRoles[key]; ok {
		return r, true
	}
	return RoleType(s), false
}

func (r RoleType) Valid() bool {
	_, ok := rolePriorities[r]
	return ok
}

func (r RoleType) String() string {
	return string(r)
}

// Priority is 0 for unknown roles.
func RolePriority(r RoleType) int {
	return rolePriorities[r]
}

// AtLeast reports whether r ranks at or above required in the
// Owner > Administrator > Mentor > Student hierarchy. Unknown roles never qualify.
func (r RoleType) AtLeast(required RoleType) bool {
	if !r.Valid() || !required.Valid() {
		return false
	}
	return RolePriority(r) >= RolePriority(required)
}

func (r *RoleType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r, _ = ParseRole(s)
	return nil
}
