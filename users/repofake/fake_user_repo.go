package fakeuserrepo

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/edu-console/internal/errors"
	"github.com/jrsteele09/edu-console/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users       map[users.ID]*users.User
	usernameIds map[string]users.ID // lower-cased username to user id
	hashes      map[users.ID]string
	lock        sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:       make(map[users.ID]*users.User),
		usernameIds: make(map[string]users.ID),
		hashes:      make(map[users.ID]string),
	}
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = users.ID(uuid.New().String())
	}
	key := strings.ToLower(user.Username)
	if existing, ok := ur.usernameIds[key]; ok && existing != user.ID {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "username %q already exists", user.Username)
	}
	if prev, ok := ur.users[user.ID]; ok {
		delete(ur.usernameIds, strings.ToLower(prev.Username))
	}

	stored := user.Clone()
	stored.Password = ""
	ur.users[user.ID] = stored
	ur.usernameIds[key] = user.ID
	return nil
}

func (ur *FakeUserRepo) Delete(id users.ID) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	delete(ur.usernameIds, strings.ToLower(user.Username))
	delete(ur.users, id)
	delete(ur.hashes, id)
	return nil
}

func (ur *FakeUserRepo) GetByID(id users.ID) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return user.Clone(), nil
}

func (ur *FakeUserRepo) GetByUsername(username string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.usernameIds[strings.ToLower(username)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return ur.users[id].Clone(), nil
}

// List returns users sorted by name; an empty role lists everyone.
func (ur *FakeUserRepo) List(role users.RoleType) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userList := make([]*users.User, 0, len(ur.users))
	for _, v := range ur.users {
		if role != "" && v.Role != role {
			continue
		}
		userList = append(userList, v.Clone())
	}

	sort.Slice(userList, func(i, j int) bool {
		if userList[i].Name == userList[j].Name {
			return userList[i].ID < userList[j].ID
		}
		return userList[i].Name < userList[j].Name
	})
	return userList, nil
}

func (ur *FakeUserRepo) PasswordHash(id users.ID) (string, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	hash, ok := ur.hashes[id]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return hash, nil
}

func (ur *FakeUserRepo) SetPasswordHash(id users.ID, hash string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.users[id]; !ok {
		return apperrors.ErrNotFound
	}
	ur.hashes[id] = hash
	return nil
}
