package users

import (
	"context"
	"time"
)

type repoMock struct {
	users map[string]*User
}

func NewMockUsersRepo() *repoMock {
	return &repoMock{
		users: make(map[string]*User),
	}
}

func (r *repoMock) Create(_ context.Context, user User) (*User, error) {
	if existing, ok := r.users[user.UID]; ok {
		existing.Email = user.Email
		existing.Username = user.Username
		return existing, nil
	}
	user.CreatedAt = time.Now()
	r.users[user.UID] = &user
	return &user, nil
}

func (r *repoMock) Get(_ context.Context, uid string) (*User, error) {
	user, ok := r.users[uid]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}
