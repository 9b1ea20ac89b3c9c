package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/geocoder89/shopsphere/internal/domain/order"
	"github.com/geocoder89/shopsphere/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrdersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewOrdersRepo(pool *pgxpool.Pool, prom *observability.Prom) *OrdersRepo {
	return &OrdersRepo{pool: pool, prom: prom}
}

func (r *OrdersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const orderColumns = `id, user_id, order_items, shipping_address, payment_method,
	items_price::float8, tax_price::float8, shipping_price::float8, total_price::float8,
	status, created_at, updated_at`

func scanOrder(row pgx.Row) (order.Order, error) {
	var (
		o               order.Order
		items, shipping []byte
		status          string
	)

	err := row.Scan(&o.ID, &o.UserID, &items, &shipping, &o.PaymentMethod,
		&o.ItemsPrice, &o.TaxPrice, &o.ShippingPrice, &o.TotalPrice,
		&status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrNotFound
		}
		return order.Order{}, err
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return order.Order{}, err
	}
	if err := json.Unmarshal(shipping, &o.ShippingAddress); err != nil {
		return order.Order{}, err
	}

	o.Status = order.Status(status)
	return o, nil
}

// PlaceTx inserts the order and decrements stock for each line in one
// transaction. A line whose conditional decrement matches no row aborts the
// whole order.
func (r *OrdersRepo) PlaceTx(ctx context.Context, o order.Order) (order.Order, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return order.Order{}, err
	}
	shipping, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return order.Order{}, err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return order.Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, line := range o.Items {
		if err := r.decrementStock(ctx, tx, line); err != nil {
			return order.Order{}, err
		}
	}

	err = r.observe("orders.insert", func() error {
		_, e := tx.Exec(ctx, `
			INSERT INTO orders (id, user_id, order_items, shipping_address, payment_method,
				items_price, tax_price, shipping_price, total_price, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		`, o.ID, o.UserID, items, shipping, o.PaymentMethod,
			o.ItemsPrice, o.TaxPrice, o.ShippingPrice, o.TotalPrice,
			string(o.Status), o.CreatedAt, o.UpdatedAt)
		return e
	})
	if err != nil {
		return order.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return order.Order{}, err
	}

	return o, nil
}

func (r *OrdersRepo) decrementStock(ctx context.Context, tx pgx.Tx, line order.Item) error {
	if _, perr := uuid.Parse(line.ProductID); perr != nil {
		return &order.ProductNotFoundError{ProductID: line.ProductID}
	}

	var affected int64
	err := r.observe("products.decrement_stock", func() error {
		tag, e := tx.Exec(ctx, `
			UPDATE products
			SET count_in_stock = count_in_stock - $2, updated_at = NOW()
			WHERE id = $1 AND count_in_stock >= $2
		`, line.ProductID, line.Qty)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	var (
		name      string
		available int
	)
	err = r.observe("products.stock_lookup", func() error {
		return tx.QueryRow(ctx,
			`SELECT name, count_in_stock FROM products WHERE id = $1`, line.ProductID,
		).Scan(&name, &available)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return &order.ProductNotFoundError{ProductID: line.ProductID}
	}
	if err != nil {
		return err
	}

	return &order.InsufficientStockError{
		ProductID: line.ProductID,
		Name:      name,
		Available: available,
		Requested: line.Qty,
	}
}

func (r *OrdersRepo) GetByID(ctx context.Context, id string) (o order.Order, err error) {
	if _, perr := uuid.Parse(id); perr != nil {
		return order.Order{}, order.ErrNotFound
	}

	err = r.observe("orders.get_by_id", func() error {
		o, err = scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
		return err
	})
	return
}

func (r *OrdersRepo) list(ctx context.Context, op, q string, args ...any) ([]order.Order, error) {
	var rows pgx.Rows
	err := r.observe(op, func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, q, args...)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]order.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *OrdersRepo) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return r.list(ctx, "orders.list_by_user",
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
}

func (r *OrdersRepo) ListAll(ctx context.Context) ([]order.Order, error) {
	return r.list(ctx, "orders.list_all",
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
}

func (r *OrdersRepo) UpdateStatus(ctx context.Context, id string, status order.Status) (o order.Order, err error) {
	if _, perr := uuid.Parse(id); perr != nil {
		return order.Order{}, order.ErrNotFound
	}

	err = r.observe("orders.update_status", func() error {
		o, err = scanOrder(r.pool.QueryRow(ctx, `
			UPDATE orders SET status = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING `+orderColumns, id, string(status)))
		return err
	})
	return
}
