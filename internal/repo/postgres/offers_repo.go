package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/shopsphere/internal/domain/offer"
	"github.com/geocoder89/shopsphere/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OffersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewOffersRepo(pool *pgxpool.Pool, prom *observability.Prom) *OffersRepo {
	return &OffersRepo{pool: pool, prom: prom}
}

func (r *OffersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const offerColumns = `id, title, description, code, discount_percent::float8, valid_from, valid_until, active, created_at, updated_at`

func scanOffer(row pgx.Row) (offer.Offer, error) {
	var o offer.Offer

	err := row.Scan(&o.ID, &o.Title, &o.Description, &o.Code, &o.DiscountPercent,
		&o.ValidFrom, &o.ValidUntil, &o.Active, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return offer.Offer{}, offer.ErrNotFound
		}
		return offer.Offer{}, err
	}
	return o, nil
}

func (r *OffersRepo) Create(ctx context.Context, o offer.Offer) (offer.Offer, error) {
	err := r.observe("offers.create", func() error {
		_, e := r.pool.Exec(ctx, `
			INSERT INTO offers (id, title, description, code, discount_percent, valid_from, valid_until, active, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, o.ID, o.Title, o.Description, o.Code, o.DiscountPercent, o.ValidFrom, o.ValidUntil, o.Active, o.CreatedAt, o.UpdatedAt)
		return e
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return offer.Offer{}, offer.ErrCodeTaken
		}
		return offer.Offer{}, err
	}
	return o, nil
}

func (r *OffersRepo) GetByID(ctx context.Context, id string) (o offer.Offer, err error) {
	if _, perr := uuid.Parse(id); perr != nil {
		return offer.Offer{}, offer.ErrNotFound
	}

	err = r.observe("offers.get_by_id", func() error {
		o, err = scanOffer(r.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id))
		return err
	})
	return
}

func (r *OffersRepo) GetActiveByCode(ctx context.Context, code string) (o offer.Offer, err error) {
	err = r.observe("offers.get_active_by_code", func() error {
		o, err = scanOffer(r.pool.QueryRow(ctx,
			`SELECT `+offerColumns+` FROM offers WHERE UPPER(code) = $1 AND active`,
			offer.NormalizeCode(code)))
		return err
	})
	return
}

func (r *OffersRepo) ListActive(ctx context.Context) ([]offer.Offer, error) {
	var rows pgx.Rows
	err := r.observe("offers.list_active", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx,
			`SELECT `+offerColumns+` FROM offers WHERE active ORDER BY created_at DESC, id DESC`)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]offer.Offer, 0)
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *OffersRepo) Update(ctx context.Context, o offer.Offer) (out offer.Offer, err error) {
	err = r.observe("offers.update", func() error {
		out, err = scanOffer(r.pool.QueryRow(ctx, `
			UPDATE offers
			SET title = $2, description = $3, code = $4, discount_percent = $5,
			    valid_from = $6, valid_until = $7, active = $8, updated_at = $9
			WHERE id = $1
			RETURNING `+offerColumns,
			o.ID, o.Title, o.Description, o.Code, o.DiscountPercent, o.ValidFrom, o.ValidUntil, o.Active, o.UpdatedAt))
		return err
	})
	if err != nil && IsUniqueViolation(err) {
		return offer.Offer{}, offer.ErrCodeTaken
	}
	return
}

func (r *OffersRepo) Delete(ctx context.Context, id string) error {
	if _, perr := uuid.Parse(id); perr != nil {
		return offer.ErrNotFound
	}

	var affected int64
	err := r.observe("offers.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return offer.ErrNotFound
	}
	return nil
}
