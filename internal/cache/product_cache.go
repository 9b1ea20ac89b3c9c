package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/shopsphere/internal/domain/product"
	"github.com/redis/go-redis/v9"
)

const (
	productKeyPrefix = "product:"
	notFoundMarker   = "notfound"
	notFoundTTL      = time.Minute
)

type ProductStore interface {
	Create(ctx context.Context, p product.Product) (product.Product, error)
	GetByID(ctx context.Context, id string) (product.Product, error)
	List(ctx context.Context, f product.ListFilter) ([]product.Product, error)
	Update(ctx context.Context, p product.Product) (product.Product, error)
	Delete(ctx context.Context, id string) error
}

// CachedProducts is a read-through redis cache over single-product lookups.
// Redis failures are logged and fall through to the store.
type CachedProducts struct {
	store ProductStore
	redis redis.UniversalClient
	ttl   time.Duration
	log   *slog.Logger
}

func NewCachedProducts(store ProductStore, rdb redis.UniversalClient, ttl time.Duration, log *slog.Logger) *CachedProducts {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}

	return &CachedProducts{store: store, redis: rdb, ttl: ttl, log: log}
}

func productKey(id string) string {
	return productKeyPrefix + id
}

func (c *CachedProducts) GetByID(ctx context.Context, id string) (product.Product, error) {
	key := productKey(id)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return product.Product{}, product.ErrNotFound
		}

		var p product.Product
		if err := json.Unmarshal(data, &p); err != nil {
			c.log.WarnContext(ctx, "decode cached product failed", "key", key, "err", err)
			break
		}
		return p, nil

	case errors.Is(err, redis.Nil):

	default:
		c.log.WarnContext(ctx, "redis get failed, using store", "key", key, "err", err)
	}

	p, err := c.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			if setErr := c.redis.Set(ctx, key, notFoundMarker, notFoundTTL).Err(); setErr != nil {
				c.log.WarnContext(ctx, "cache product miss failed", "key", key, "err", setErr)
			}
		}
		return product.Product{}, err
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return p, nil
	}
	if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "cache product failed", "key", key, "err", err)
	}

	return p, nil
}

func (c *CachedProducts) List(ctx context.Context, f product.ListFilter) ([]product.Product, error) {
	return c.store.List(ctx, f)
}

func (c *CachedProducts) Create(ctx context.Context, p product.Product) (product.Product, error) {
	created, err := c.store.Create(ctx, p)
	if err != nil {
		return product.Product{}, err
	}

	// clears a cached "notfound" for this id
	c.Invalidate(ctx, created.ID)
	return created, nil
}

func (c *CachedProducts) Update(ctx context.Context, p product.Product) (product.Product, error) {
	updated, err := c.store.Update(ctx, p)
	c.Invalidate(ctx, p.ID)
	return updated, err
}

func (c *CachedProducts) Delete(ctx context.Context, id string) error {
	err := c.store.Delete(ctx, id)
	c.Invalidate(ctx, id)
	return err
}

// Invalidate drops cached entries, e.g. after an order changed their stock.
func (c *CachedProducts) Invalidate(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.log.WarnContext(ctx, "invalidate product cache failed", "keys", keys, "err", err)
	}
}
