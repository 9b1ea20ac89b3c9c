package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/geocoder89/shopsphere/internal/domain/order"
	"github.com/geocoder89/shopsphere/internal/domain/product"
)

type ProductsRepo struct {
	mu    sync.RWMutex
	items map[string]product.Product
}

func NewProductsRepo() *ProductsRepo {
	return &ProductsRepo{
		items: make(map[string]product.Product),
	}
}

func (r *ProductsRepo) Create(_ context.Context, p product.Product) (product.Product, error) {
	r.mu.Lock()
	r.items[p.ID] = p
	r.mu.Unlock()

	return p, nil
}

func (r *ProductsRepo) GetByID(_ context.Context, id string) (product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	return p, nil
}

func (r *ProductsRepo) List(_ context.Context, f product.ListFilter) ([]product.Product, error) {
	r.mu.RLock()
	out := make([]product.Product, 0, len(r.items))
	for _, p := range r.items {
		if f.Search != nil && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(*f.Search)) {
			continue
		}
		if f.VendorID != nil && !p.OwnedBy(*f.VendorID) {
			continue
		}
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *ProductsRepo) Update(_ context.Context, p product.Product) (product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[p.ID]; !ok {
		return product.Product{}, product.ErrNotFound
	}
	r.items[p.ID] = p
	return p, nil
}

func (r *ProductsRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return product.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// reserve decrements stock for every line or for none.
func (r *ProductsRepo) reserve(items []order.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	need := make(map[string]int, len(items))
	for _, it := range items {
		need[it.ProductID] += it.Qty
	}

	for id, qty := range need {
		p, ok := r.items[id]
		if !ok {
			return &order.ProductNotFoundError{ProductID: id}
		}
		if p.CountInStock < qty {
			return &order.InsufficientStockError{ProductID: id, Name: p.Name, Available: p.CountInStock, Requested: qty}
		}
	}

	for id, qty := range need {
		p := r.items[id]
		p.CountInStock -= qty
		r.items[id] = p
	}
	return nil
}
