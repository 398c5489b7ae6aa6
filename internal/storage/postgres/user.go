package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/coffee-shop/internal/domain/user"
)

const (
	insertUserSQL = `INSERT INTO users (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	getUserByEmailSQL = `SELECT id, email, username, password_hash, created_at, updated_at
		FROM users WHERE email = $1`

	getUserByUsernameSQL = `SELECT id, email, username, password_hash, created_at, updated_at
		FROM users WHERE username = $1`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts u and fills in its ID and timestamps.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	err := r.pool.QueryRow(ctx, insertUserSQL, u.Email, u.Username, u.PasswordHash).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err, "users_email_key"):
		return user.ErrEmailTaken
	case isUniqueViolation(err, "users_username_key"):
		return user.ErrUsernameTaken
	default:
		return errors.Wrap(err, "insert user")
	}
}

// ByEmail looks up a user by normalized email.
func (r *UserRepository) ByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.get(ctx, getUserByEmailSQL, email)
}

// ByUsername looks up a user by username.
func (r *UserRepository) ByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.get(ctx, getUserByUsernameSQL, username)
}

func (r *UserRepository) get(ctx context.Context, query, arg string) (*user.User, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, errors.Wrap(err, "get user")
	}
	return &u, nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
