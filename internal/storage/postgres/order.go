package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/order"
	"github.com/xenking/coffee-shop/internal/domain/paging"
	"github.com/xenking/coffee-shop/internal/domain/pricing"
)

// orderNumberLockKey is the advisory lock taken while allocating the next
// order number ("ORD-" in ASCII).
const orderNumberLockKey int64 = 0x4f52442d

const (
	lockOrderNumberSQL = `SELECT pg_advisory_xact_lock($1)`

	lastOrderNumberSQL = `SELECT order_number FROM orders ORDER BY id DESC LIMIT 1`

	insertOrderSQL = `INSERT INTO orders (user_id, order_number, status, total_price, discount_amount, final_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, coffee_id, quantity, cup_size, sugar_level, unit_price, item_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	getOrderSQL = `SELECT o.id, o.order_number, o.user_id, u.username, u.email, o.status,
			o.total_price, o.discount_amount, o.final_price, o.created_at, o.updated_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.id = $1 AND ($2::bigint IS NULL OR o.user_id = $2)`

	listOrderItemsSQL = `SELECT oi.id, oi.order_id, oi.coffee_id, cp.name, cp.description, oi.quantity,
			oi.cup_size, oi.sugar_level, oi.unit_price, oi.item_total, oi.created_at
		FROM order_items oi
		JOIN coffee_products cp ON cp.id = oi.coffee_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`

	listOrdersByUserSQL = `SELECT o.id, o.order_number, o.user_id, o.status, o.total_price, o.discount_amount,
			o.final_price, COUNT(oi.id), o.created_at, o.updated_at
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		WHERE o.user_id = $1
		GROUP BY o.id
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $2 OFFSET $3`

	setOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
	opts TxOptions
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool, opts: DefaultTxOptions()}
}

// InTx runs fn inside a retried transaction.
func (r *OrderRepository) InTx(ctx context.Context, fn func(context.Context, order.Tx) error) error {
	return WithTx(ctx, r.pool, r.opts, func(tx pgx.Tx) error {
		return fn(ctx, &orderTx{tx: tx})
	})
}

// Get loads an order header and its items.
func (r *OrderRepository) Get(ctx context.Context, id int64, owner *int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id, owner)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %d", id)
	}

	rows, err = r.pool.Query(ctx, listOrderItemsSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "list items of order %d", id)
	}
	o.Items, err = pgx.CollectRows(rows, scanOrderItem)
	if err != nil {
		return nil, errors.Wrapf(err, "list items of order %d", id)
	}

	return &o, nil
}

// ListByUser returns order summaries for a user, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64, page paging.Page) ([]order.Summary, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, errors.Wrapf(err, "list orders of user %d", userID)
	}
	summaries, err := pgx.CollectRows(rows, scanOrderSummary)
	if err != nil {
		return nil, errors.Wrapf(err, "list orders of user %d", userID)
	}
	return summaries, nil
}

// SetStatus overwrites an order's status.
func (r *OrderRepository) SetStatus(ctx context.Context, id int64, status order.Status) error {
	tag, err := r.pool.Exec(ctx, setOrderStatusSQL, id, string(status))
	if err != nil {
		return errors.Wrapf(err, "set status of order %d", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// orderTx implements order.Tx on an open transaction.
type orderTx struct {
	tx pgx.Tx
}

func (t *orderTx) Coffee(ctx context.Context, id int64) (*catalog.Coffee, error) {
	return getCoffee(ctx, t.tx, id)
}

func (t *orderTx) LastNumber(ctx context.Context) (string, error) {
	if _, err := t.tx.Exec(ctx, lockOrderNumberSQL, orderNumberLockKey); err != nil {
		return "", errors.Wrap(err, "lock order number")
	}

	var number string
	err := t.tx.QueryRow(ctx, lastOrderNumberSQL).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "select last order number")
	}
	return number, nil
}

func (t *orderTx) Insert(ctx context.Context, o *order.Order) error {
	err := t.tx.QueryRow(ctx, insertOrderSQL,
		o.UserID, o.Number, string(o.Status), o.TotalPrice, o.DiscountAmount, o.FinalPrice,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return errors.Wrapf(err, "insert order %s", o.Number)
	}
	return nil
}

func (t *orderTx) InsertItems(ctx context.Context, orderID int64, items []pricing.PricedItem) error {
	for i, item := range items {
		_, err := t.tx.Exec(ctx, insertOrderItemSQL,
			orderID, item.CoffeeID, item.Quantity, string(item.CupSize), string(item.SugarLevel),
			item.UnitPrice, item.ItemTotal,
		)
		if err != nil {
			return errors.Wrapf(err, "insert item %d of order %d", i, orderID)
		}
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.UserID, &o.Username, &o.Email, &status,
		&o.TotalPrice, &o.DiscountAmount, &o.FinalPrice, &o.CreatedAt, &o.UpdatedAt,
	)
	o.Status = order.Status(status)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var (
		it          order.Item
		size, sugar string
	)
	err := row.Scan(
		&it.ID, &it.OrderID, &it.CoffeeID, &it.CoffeeName, &it.CoffeeDescription, &it.Quantity,
		&size, &sugar, &it.UnitPrice, &it.ItemTotal, &it.CreatedAt,
	)
	it.CupSize = pricing.CupSize(size)
	it.SugarLevel = pricing.SugarLevel(sugar)
	return it, err
}

func scanOrderSummary(row pgx.CollectableRow) (order.Summary, error) {
	var (
		s      order.Summary
		status string
	)
	err := row.Scan(
		&s.ID, &s.Number, &s.UserID, &status, &s.TotalPrice, &s.DiscountAmount,
		&s.FinalPrice, &s.ItemCount, &s.CreatedAt, &s.UpdatedAt,
	)
	s.Status = order.Status(status)
	return s, err
}
