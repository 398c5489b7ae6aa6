package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/order"
	"github.com/xenking/coffee-shop/internal/domain/paging"
	"github.com/xenking/coffee-shop/internal/domain/review"
)

const (
	reviewSelect = `SELECT r.id, r.user_id, r.coffee_id, r.order_id, r.rating, r.comment, r.created_at, r.updated_at,
			u.username, u.email, cp.name, cp.description, COALESCE(c.name, '')
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		JOIN coffee_products cp ON cp.id = r.coffee_id
		LEFT JOIN categories c ON c.id = cp.category_id`

	getReviewSQL = reviewSelect + `
		WHERE r.id = $1`

	listReviewsByCoffeeSQL = reviewSelect + `
		WHERE r.coffee_id = $1
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $2 OFFSET $3`

	listReviewsByUserSQL = reviewSelect + `
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $2 OFFSET $3`

	// Locking the coffee row serializes rating recomputation per coffee.
	lockCoffeeSQL = `SELECT id FROM coffee_products WHERE id = $1 FOR UPDATE`

	lockOwnReviewSQL = `SELECT coffee_id FROM reviews WHERE id = $1 AND user_id = $2 FOR UPDATE`

	insertReviewSQL = `INSERT INTO reviews (user_id, coffee_id, order_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	updateReviewSQL = `UPDATE reviews
		SET rating = COALESCE($3, rating), comment = COALESCE($4, comment), updated_at = now()
		WHERE id = $1 AND user_id = $2`

	deleteReviewSQL = `DELETE FROM reviews WHERE id = $1 AND user_id = $2`

	refreshRatingSQL = `UPDATE coffee_products SET
			average_rating = COALESCE((SELECT ROUND(AVG(rating), 2) FROM reviews WHERE coffee_id = $1), 0),
			total_reviews = (SELECT COUNT(*) FROM reviews WHERE coffee_id = $1),
			updated_at = now()
		WHERE id = $1`
)

var _ review.Repository = (*ReviewRepository)(nil)

// ReviewRepository implements review.Repository backed by PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
	opts TxOptions
}

// NewReviewRepository returns a ReviewRepository that uses the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool, opts: DefaultTxOptions()}
}

// Create inserts rv and refreshes the coffee's rating aggregates.
func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	return WithTx(ctx, r.pool, r.opts, func(tx pgx.Tx) error {
		var id int64
		if err := tx.QueryRow(ctx, lockCoffeeSQL, rv.CoffeeID).Scan(&id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return catalog.ErrNotFound
			}
			return errors.Wrapf(err, "lock coffee %d", rv.CoffeeID)
		}

		err := tx.QueryRow(ctx, insertReviewSQL,
			rv.UserID, rv.CoffeeID, rv.OrderID, rv.Rating, rv.Comment,
		).Scan(&rv.ID, &rv.CreatedAt, &rv.UpdatedAt)
		switch {
		case err == nil:
		case isUniqueViolation(err, "reviews_user_coffee_key"):
			return review.ErrAlreadyReviewed
		case isForeignKeyViolation(err, "reviews_order_id_fkey"):
			return order.ErrNotFound
		default:
			return errors.Wrap(err, "insert review")
		}

		return refreshRating(ctx, tx, rv.CoffeeID)
	})
}

// Update changes a review owned by userID and refreshes the coffee's rating
// aggregates.
func (r *ReviewRepository) Update(ctx context.Context, id, userID int64, u review.Update) error {
	return r.mutateOwn(ctx, id, userID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, updateReviewSQL, id, userID, u.Rating, u.Comment); err != nil {
			return errors.Wrapf(err, "update review %d", id)
		}
		return nil
	})
}

// Delete removes a review owned by userID and refreshes the coffee's rating
// aggregates.
func (r *ReviewRepository) Delete(ctx context.Context, id, userID int64) error {
	return r.mutateOwn(ctx, id, userID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteReviewSQL, id, userID); err != nil {
			return errors.Wrapf(err, "delete review %d", id)
		}
		return nil
	})
}

// mutateOwn runs fn against a review owned by userID, then recomputes the
// reviewed coffee's aggregates in the same transaction.
func (r *ReviewRepository) mutateOwn(ctx context.Context, id, userID int64, fn func(pgx.Tx) error) error {
	return WithTx(ctx, r.pool, r.opts, func(tx pgx.Tx) error {
		var coffeeID int64
		if err := tx.QueryRow(ctx, lockOwnReviewSQL, id, userID).Scan(&coffeeID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return review.ErrNotFound
			}
			return errors.Wrapf(err, "lock review %d", id)
		}
		if _, err := tx.Exec(ctx, lockCoffeeSQL, coffeeID); err != nil {
			return errors.Wrapf(err, "lock coffee %d", coffeeID)
		}
		if err := fn(tx); err != nil {
			return err
		}
		return refreshRating(ctx, tx, coffeeID)
	})
}

// Get returns a review with user and coffee details.
func (r *ReviewRepository) Get(ctx context.Context, id int64) (*review.Review, error) {
	rows, err := r.pool.Query(ctx, getReviewSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get review %d", id)
	}
	rv, err := pgx.CollectExactlyOneRow(rows, scanReview)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, review.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get review %d", id)
	}
	return &rv, nil
}

// ListByCoffee returns reviews of a coffee, newest first.
func (r *ReviewRepository) ListByCoffee(ctx context.Context, coffeeID int64, page paging.Page) ([]review.Review, error) {
	return r.list(ctx, listReviewsByCoffeeSQL, coffeeID, page)
}

// ListByUser returns reviews written by a user, newest first.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID int64, page paging.Page) ([]review.Review, error) {
	return r.list(ctx, listReviewsByUserSQL, userID, page)
}

func (r *ReviewRepository) list(ctx context.Context, query string, id int64, page paging.Page) ([]review.Review, error) {
	rows, err := r.pool.Query(ctx, query, id, page.Limit, page.Offset)
	if err != nil {
		return nil, errors.Wrap(err, "list reviews")
	}
	reviews, err := pgx.CollectRows(rows, scanReview)
	if err != nil {
		return nil, errors.Wrap(err, "list reviews")
	}
	return reviews, nil
}

func refreshRating(ctx context.Context, q querier, coffeeID int64) error {
	if _, err := q.Exec(ctx, refreshRatingSQL, coffeeID); err != nil {
		return errors.Wrapf(err, "refresh rating of coffee %d", coffeeID)
	}
	return nil
}

func scanReview(row pgx.CollectableRow) (review.Review, error) {
	var rv review.Review
	err := row.Scan(
		&rv.ID, &rv.UserID, &rv.CoffeeID, &rv.OrderID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt,
		&rv.Username, &rv.Email, &rv.CoffeeName, &rv.CoffeeDescription, &rv.CategoryName,
	)
	return rv, err
}
