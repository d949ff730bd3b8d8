package users

type UserRepo interface {
	Upsert(user *User) error
	Delete(id ID) error
	GetByID(id ID) (*User, error)
	GetByUsername(username string) (*User, error)
	List(role RoleType) ([]*User, error)
	PasswordHash(id ID) (string, error)
	SetPasswordHash(id ID, hash string) error
}
