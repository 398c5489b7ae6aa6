package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
)

const (
	coffeeColumns = `cp.id, cp.name, cp.description, cp.price, cp.category_id, COALESCE(c.name, ''),
		cp.is_available, cp.average_rating, cp.total_reviews, cp.created_at, cp.updated_at`

	getCoffeeSQL = `SELECT ` + coffeeColumns + `
		FROM coffee_products cp
		LEFT JOIN categories c ON c.id = cp.category_id
		WHERE cp.id = $1`

	listCoffeesSQL = `SELECT ` + coffeeColumns + `
		FROM coffee_products cp
		LEFT JOIN categories c ON c.id = cp.category_id
		WHERE ($1::boolean IS NULL OR cp.is_available = $1)
		  AND ($2::bigint = 0 OR cp.category_id = $2)
		ORDER BY cp.name
		LIMIT NULLIF($3::bigint, 0) OFFSET $4`

	listCategoriesSQL = `SELECT c.id, c.name, c.description, COUNT(cp.id)
		FROM categories c
		LEFT JOIN coffee_products cp ON cp.category_id = c.id AND cp.is_available
		GROUP BY c.id
		ORDER BY c.name`

	getCategorySQL = `SELECT c.id, c.name, c.description, COUNT(cp.id)
		FROM categories c
		LEFT JOIN coffee_products cp ON cp.category_id = c.id AND cp.is_available
		WHERE c.id = $1
		GROUP BY c.id`

	upsertCategorySQL = `INSERT INTO categories (name, description)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE
		SET description = COALESCE(NULLIF(EXCLUDED.description, ''), categories.description)
		RETURNING id, description`

	upsertCoffeeSQL = `INSERT INTO coffee_products (name, description, price, category_id, is_available)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description,
		    price = EXCLUDED.price,
		    category_id = EXCLUDED.category_id,
		    is_available = EXCLUDED.is_available,
		    updated_at = now()
		RETURNING id, created_at, updated_at`

	coffeeNamesSQL  = `SELECT name FROM coffee_products`
	coffeeExistsSQL = `SELECT EXISTS (SELECT 1 FROM coffee_products WHERE name = $1)`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListCoffees returns coffees matching f ordered by name. A zero page limit
// returns every match.
func (r *CatalogRepository) ListCoffees(ctx context.Context, f catalog.Filter) ([]catalog.Coffee, error) {
	rows, err := r.pool.Query(ctx, listCoffeesSQL, f.Available, f.CategoryID, f.Page.Limit, f.Page.Offset)
	if err != nil {
		return nil, errors.Wrap(err, "list coffees")
	}
	coffees, err := pgx.CollectRows(rows, scanCoffee)
	if err != nil {
		return nil, errors.Wrap(err, "list coffees")
	}
	return coffees, nil
}

// Coffee returns a single coffee by id.
func (r *CatalogRepository) Coffee(ctx context.Context, id int64) (*catalog.Coffee, error) {
	return getCoffee(ctx, r.pool, id)
}

// ListCategories returns every category with its available product count.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	categories, err := pgx.CollectRows(rows, scanCategory)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return categories, nil
}

// Category returns a single category by id.
func (r *CatalogRepository) Category(ctx context.Context, id int64) (*catalog.Category, error) {
	rows, err := r.pool.Query(ctx, getCategorySQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get category %d", id)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrCategoryNotFound
		}
		return nil, errors.Wrapf(err, "get category %d", id)
	}
	return &c, nil
}

// UpsertCategory inserts c or updates the category with the same name and
// fills in its ID. An empty description keeps the stored one.
func (r *CatalogRepository) UpsertCategory(ctx context.Context, c *catalog.Category) error {
	if err := r.pool.QueryRow(ctx, upsertCategorySQL, c.Name, c.Description).Scan(&c.ID, &c.Description); err != nil {
		return errors.Wrapf(err, "upsert category %q", c.Name)
	}
	return nil
}

// UpsertCoffee inserts c or replaces the menu fields of the coffee with the
// same name. Rating aggregates are left untouched.
func (r *CatalogRepository) UpsertCoffee(ctx context.Context, c *catalog.Coffee) error {
	err := r.pool.QueryRow(ctx, upsertCoffeeSQL, c.Name, c.Description, c.Price, c.CategoryID, c.IsAvailable).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return errors.Wrapf(err, "upsert coffee %q", c.Name)
	}
	return nil
}

// CoffeeNames streams every coffee name to fn.
func (r *CatalogRepository) CoffeeNames(ctx context.Context, fn func(name string)) error {
	rows, err := r.pool.Query(ctx, coffeeNamesSQL)
	if err != nil {
		return errors.Wrap(err, "list coffee names")
	}
	var name string
	if _, err := pgx.ForEachRow(rows, []any{&name}, func() error {
		fn(name)
		return nil
	}); err != nil {
		return errors.Wrap(err, "list coffee names")
	}
	return nil
}

// CoffeeExists reports whether a coffee with the given name exists.
func (r *CatalogRepository) CoffeeExists(ctx context.Context, name string) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, coffeeExistsSQL, name).Scan(&ok); err != nil {
		return false, errors.Wrapf(err, "check coffee %q", name)
	}
	return ok, nil
}

func getCoffee(ctx context.Context, q querier, id int64) (*catalog.Coffee, error) {
	rows, err := q.Query(ctx, getCoffeeSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get coffee %d", id)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCoffee)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get coffee %d", id)
	}
	return &c, nil
}

func scanCoffee(row pgx.CollectableRow) (catalog.Coffee, error) {
	var c catalog.Coffee
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.Price, &c.CategoryID, &c.CategoryName,
		&c.IsAvailable, &c.AverageRating, &c.TotalReviews, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func scanCategory(row pgx.CollectableRow) (catalog.Category, error) {
	var c catalog.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.ProductCount)
	return c, err
}
