package users

import (
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

// User is the profile mirror of an identity provider account. The provider
// owns credentials and token issuance, this record only carries the profile
// fields the API serves back.
type User struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}
