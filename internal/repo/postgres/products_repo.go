package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/shopsphere/internal/domain/product"
	"github.com/geocoder89/shopsphere/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewProductsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProductsRepo {
	return &ProductsRepo{pool: pool, prom: prom}
}

func (r *ProductsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const productColumns = `id, name, description, price::float8, count_in_stock, image, category, vendor_id, created_at, updated_at`

func scanProduct(row pgx.Row) (product.Product, error) {
	var p product.Product

	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CountInStock,
		&p.Image, &p.Category, &p.VendorID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, product.ErrNotFound
		}
		return product.Product{}, err
	}
	return p, nil
}

func (r *ProductsRepo) Create(ctx context.Context, p product.Product) (product.Product, error) {
	err := r.observe("products.create", func() error {
		_, e := r.pool.Exec(ctx, `
			INSERT INTO products (id, name, description, price, count_in_stock, image, category, vendor_id, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, p.ID, p.Name, p.Description, p.Price, p.CountInStock, p.Image, p.Category, p.VendorID, p.CreatedAt, p.UpdatedAt)
		return e
	})
	if err != nil {
		return product.Product{}, err
	}
	return p, nil
}

func (r *ProductsRepo) GetByID(ctx context.Context, id string) (p product.Product, err error) {
	if _, perr := uuid.Parse(id); perr != nil {
		return product.Product{}, product.ErrNotFound
	}

	err = r.observe("products.get_by_id", func() error {
		p, err = scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
		return err
	})
	return
}

func (r *ProductsRepo) List(ctx context.Context, f product.ListFilter) ([]product.Product, error) {
	var (
		conds   []string
		args    []any
		argsPos = 1
	)

	if f.Search != nil && strings.TrimSpace(*f.Search) != "" {
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", argsPos))
		args = append(args, "%"+escapeLike(strings.TrimSpace(*f.Search))+"%")
		argsPos++
	}
	if f.VendorID != nil {
		conds = append(conds, fmt.Sprintf("vendor_id = $%d", argsPos))
		args = append(args, *f.VendorID)
		argsPos++
	}

	q := `SELECT ` + productColumns + ` FROM products`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"

	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT $%d", argsPos)
		args = append(args, f.Limit)
	}

	var rows pgx.Rows
	err := r.observe("products.list", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, q, args...)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]product.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

func (r *ProductsRepo) Update(ctx context.Context, p product.Product) (out product.Product, err error) {
	err = r.observe("products.update", func() error {
		out, err = scanProduct(r.pool.QueryRow(ctx, `
			UPDATE products
			SET name = $2, description = $3, price = $4, count_in_stock = $5,
			    image = $6, category = $7, updated_at = $8
			WHERE id = $1
			RETURNING `+productColumns,
			p.ID, p.Name, p.Description, p.Price, p.CountInStock, p.Image, p.Category, p.UpdatedAt))
		return err
	})
	return
}

func (r *ProductsRepo) Delete(ctx context.Context, id string) error {
	if _, perr := uuid.Parse(id); perr != nil {
		return product.ErrNotFound
	}

	var affected int64
	err := r.observe("products.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return product.ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
