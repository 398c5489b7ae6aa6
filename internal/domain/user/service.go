package user

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
)

// Session is an authenticated user with a freshly issued token.
type Session struct {
	User  *User
	Token string
}

// RegisterRequest holds the input for creating an account.
type RegisterRequest struct {
	Email    string
	Username string
	Password string
}

// Service implements registration and login.
type Service struct {
	users  Repository
	hasher Hasher
	tokens *Tokens
}

// NewService creates a user Service.
func NewService(users Repository, hasher Hasher, tokens *Tokens) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user and signs them in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	email := NormalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)

	if _, err := s.users.ByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "lookup email")
	}
	if _, err := s.users.ByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "lookup username")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	u := &User{Email: email, Username: username, PasswordHash: hash}
	// Uniqueness is enforced again by storage for concurrent registrations.
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrUsernameTaken) {
			return nil, err
		}
		return nil, errors.Wrap(err, "create user")
	}

	return s.session(u)
}

// Login checks credentials. Unknown emails and wrong passwords both return
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.ByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "lookup user")
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, err
	}

	return s.session(u)
}

// Authenticate verifies a bearer token.
func (s *Service) Authenticate(token string) (*Claims, error) {
	return s.tokens.Verify(token)
}

func (s *Service) session(u *User) (*Session, error) {
	token, err := s.tokens.Issue(Claims{ID: u.ID, Email: u.Email, Username: u.Username})
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}
