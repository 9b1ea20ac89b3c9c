package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/shopsphere/internal/domain/order"
)

// OrdersRepo keeps orders in memory and reserves stock from a ProductsRepo.
type OrdersRepo struct {
	mu       sync.RWMutex
	items    map[string]order.Order
	products *ProductsRepo
}

func NewOrdersRepo(products *ProductsRepo) *OrdersRepo {
	return &OrdersRepo{
		items:    make(map[string]order.Order),
		products: products,
	}
}

func (r *OrdersRepo) PlaceTx(_ context.Context, o order.Order) (order.Order, error) {
	if err := r.products.reserve(o.Items); err != nil {
		return order.Order{}, err
	}

	r.mu.Lock()
	r.items[o.ID] = cloneOrder(o)
	r.mu.Unlock()

	return o, nil
}

func (r *OrdersRepo) GetByID(_ context.Context, id string) (order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.items[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *OrdersRepo) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	return r.list(func(o order.Order) bool { return o.UserID == userID }), nil
}

func (r *OrdersRepo) ListAll(_ context.Context) ([]order.Order, error) {
	return r.list(func(order.Order) bool { return true }), nil
}

func (r *OrdersRepo) UpdateStatus(_ context.Context, id string, status order.Status) (order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.items[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	r.items[id] = o

	return cloneOrder(o), nil
}

func (r *OrdersRepo) list(keep func(order.Order) bool) []order.Order {
	r.mu.RLock()
	out := make([]order.Order, 0)
	for _, o := range r.items {
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func cloneOrder(o order.Order) order.Order {
	o.Items = append([]order.Item(nil), o.Items...)
	return o
}
