package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/favorite"
	"github.com/xenking/coffee-shop/internal/domain/pricing"
)

const (
	insertFavoriteSQL = `INSERT INTO favorites (user_id, coffee_id, preferred_size, preferred_sugar)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	favoriteExistsSQL = `SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND coffee_id = $2)`

	listFavoritesSQL = `SELECT f.id, f.user_id, f.coffee_id, f.preferred_size, f.preferred_sugar, f.created_at,
			cp.name, cp.description, cp.price, cp.average_rating, COALESCE(c.name, '')
		FROM favorites f
		JOIN coffee_products cp ON cp.id = f.coffee_id
		LEFT JOIN categories c ON c.id = cp.category_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC, f.id DESC`

	deleteFavoriteSQL = `DELETE FROM favorites WHERE id = $1 AND user_id = $2`
)

var _ favorite.Repository = (*FavoriteRepository)(nil)

// FavoriteRepository implements favorite.Repository backed by PostgreSQL.
type FavoriteRepository struct {
	pool *pgxpool.Pool
}

// NewFavoriteRepository returns a FavoriteRepository that uses the given pool.
func NewFavoriteRepository(pool *pgxpool.Pool) *FavoriteRepository {
	return &FavoriteRepository{pool: pool}
}

// Create inserts f and fills in its ID and creation time.
func (r *FavoriteRepository) Create(ctx context.Context, f *favorite.Favorite) error {
	err := r.pool.QueryRow(ctx, insertFavoriteSQL,
		f.UserID, f.CoffeeID, nullString(f.PreferredSize), nullString(f.PreferredSugar),
	).Scan(&f.ID, &f.CreatedAt)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err, "favorites_user_coffee_key"):
		return favorite.ErrAlreadyFavorite
	case isForeignKeyViolation(err, "favorites_coffee_id_fkey"):
		return catalog.ErrNotFound
	default:
		return errors.Wrap(err, "insert favorite")
	}
}

// Exists reports whether the user already starred the coffee.
func (r *FavoriteRepository) Exists(ctx context.Context, userID, coffeeID int64) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, favoriteExistsSQL, userID, coffeeID).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "check favorite")
	}
	return exists, nil
}

// ListByUser returns the user's favorites with coffee details.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID int64) ([]favorite.Favorite, error) {
	rows, err := r.pool.Query(ctx, listFavoritesSQL, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "list favorites of user %d", userID)
	}
	favorites, err := pgx.CollectRows(rows, scanFavorite)
	if err != nil {
		return nil, errors.Wrapf(err, "list favorites of user %d", userID)
	}
	return favorites, nil
}

// Delete removes a favorite owned by userID.
func (r *FavoriteRepository) Delete(ctx context.Context, id, userID int64) error {
	tag, err := r.pool.Exec(ctx, deleteFavoriteSQL, id, userID)
	if err != nil {
		return errors.Wrapf(err, "delete favorite %d", id)
	}
	if tag.RowsAffected() == 0 {
		return favorite.ErrNotFound
	}
	return nil
}

func scanFavorite(row pgx.CollectableRow) (favorite.Favorite, error) {
	var (
		f           favorite.Favorite
		size, sugar *string
	)
	err := row.Scan(
		&f.ID, &f.UserID, &f.CoffeeID, &size, &sugar, &f.CreatedAt,
		&f.CoffeeName, &f.CoffeeDescription, &f.Price, &f.AverageRating, &f.CategoryName,
	)
	if size != nil {
		f.PreferredSize = pricing.CupSize(*size)
	}
	if sugar != nil {
		f.PreferredSugar = pricing.SugarLevel(*sugar)
	}
	return f, err
}

// nullString maps the empty string to SQL NULL.
func nullString[T ~string](v T) *string {
	if v == "" {
		return nil
	}
	s := string(v)
	return &s
}
