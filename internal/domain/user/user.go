// Package user handles customer accounts: registration, credential checks
// and the bearer tokens that authenticate later requests.
package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// User is a registered customer.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository defines persistence operations for users. Create returns
// ErrEmailTaken or ErrUsernameTaken when a uniqueness constraint fails.
type Repository interface {
	Create(ctx context.Context, u *User) error
	ByEmail(ctx context.Context, email string) (*User, error)
	ByUsername(ctx context.Context, username string) (*User, error)
}
