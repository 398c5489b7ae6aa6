package user

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	users     []*User
	createErr error
	lookupErr error
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	if m.createErr != nil {
		return m.createErr
	}
	u.ID = int64(len(m.users) + 1)
	m.users = append(m.users, u)
	return nil
}

func (m *mockUserRepo) ByEmail(_ context.Context, email string) (*User, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockUserRepo) ByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func newTestService(t *testing.T, repo *mockUserRepo) *Service {
	t.Helper()
	tokens, err := NewTokens("test-secret", time.Hour)
	require.NoError(t, err)
	return NewService(repo, BcryptHasher{Cost: bcrypt.MinCost}, tokens)
}

func TestRegister(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newTestService(t, repo)

	s, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "  John.Doe@Example.com ",
		Username: "johndoe",
		Password: "password123",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), s.User.ID)
	assert.Equal(t, "john.doe@example.com", s.User.Email)
	assert.NotEqual(t, "password123", s.User.PasswordHash)
	assert.NotEmpty(t, s.Token)

	claims, err := svc.Authenticate(s.Token)
	require.NoError(t, err)
	assert.Equal(t, Claims{ID: 1, Email: "john.doe@example.com", Username: "johndoe"}, *claims)
}

func TestRegister_Conflicts(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newTestService(t, repo)
	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "jane@example.com", Username: "jane", Password: "secret1",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{
		Email: "JANE@example.com", Username: "other", Password: "secret1",
	})
	require.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(context.Background(), RegisterRequest{
		Email: "new@example.com", Username: "jane", Password: "secret1",
	})
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegister_StorageRace(t *testing.T) {
	repo := &mockUserRepo{createErr: ErrUsernameTaken}
	svc := newTestService(t, repo)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "a@example.com", Username: "a_user", Password: "secret1",
	})
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newTestService(t, repo)
	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "john@example.com", Username: "john", Password: "password123",
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "ok", email: "john@example.com", password: "password123"},
		{name: "email case ignored", email: "John@Example.com", password: "password123"},
		{name: "wrong password", email: "john@example.com", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "ghost@example.com", password: "password123", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "john", s.User.Username)
			assert.NotEmpty(t, s.Token)
		})
	}
}

func TestLogin_StorageError(t *testing.T) {
	repo := &mockUserRepo{lookupErr: errors.New("connection refused")}
	svc := newTestService(t, repo)

	_, err := svc.Login(context.Background(), "john@example.com", "password123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
