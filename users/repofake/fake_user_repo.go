package fakeuserrepo

import (
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/portal-auth/internal/errors"
	"github.com/jrsteele09/portal-auth/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[string]users.User
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]users.User),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	email := users.NormaliseEmail(user.Email)
	if existingID, ok := ur.emailIds[email]; ok && existingID != user.ID {
		return apperrors.ErrUserExists
	}
	if old, ok := ur.users[user.ID]; ok {
		delete(ur.emailIds, users.NormaliseEmail(old.Email))
	}
	ur.users[user.ID] = *user
	ur.emailIds[email] = user.ID
	return nil
}

func (ur *FakeUserRepo) Delete(id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	delete(ur.emailIds, users.NormaliseEmail(user.Email))
	delete(ur.users, id)
	return nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[users.NormaliseEmail(email)]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	user := ur.users[id]
	return &user, nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &user, nil
}

func (ur *FakeUserRepo) GetByResetToken(token string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if token == "" {
		return nil, apperrors.ErrUserNotFound
	}
	for _, user := range ur.users {
		if user.ResetToken == token {
			u := user
			return &u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (ur *FakeUserRepo) SetStatus(id string, status users.Status) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	user.Status = status
	ur.users[id] = user
	return nil
}
