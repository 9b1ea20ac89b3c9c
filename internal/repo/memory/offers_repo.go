package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/shopsphere/internal/domain/offer"
)

type OffersRepo struct {
	mu    sync.RWMutex
	items map[string]offer.Offer
}

func NewOffersRepo() *OffersRepo {
	return &OffersRepo{
		items: make(map[string]offer.Offer),
	}
}

func (r *OffersRepo) codeTaken(code, exceptID string) bool {
	for _, o := range r.items {
		if o.Code == code && o.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *OffersRepo) Create(_ context.Context, o offer.Offer) (offer.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.codeTaken(o.Code, "") {
		return offer.Offer{}, offer.ErrCodeTaken
	}
	r.items[o.ID] = o
	return o, nil
}

func (r *OffersRepo) GetByID(_ context.Context, id string) (offer.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.items[id]
	if !ok {
		return offer.Offer{}, offer.ErrNotFound
	}
	return o, nil
}

func (r *OffersRepo) GetActiveByCode(_ context.Context, code string) (offer.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.items {
		if o.Code == code && o.Active {
			return o, nil
		}
	}
	return offer.Offer{}, offer.ErrNotFound
}

func (r *OffersRepo) ListActive(_ context.Context) ([]offer.Offer, error) {
	r.mu.RLock()
	out := make([]offer.Offer, 0)
	for _, o := range r.items {
		if o.Active {
			out = append(out, o)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *OffersRepo) Update(_ context.Context, o offer.Offer) (offer.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[o.ID]; !ok {
		return offer.Offer{}, offer.ErrNotFound
	}
	if r.codeTaken(o.Code, o.ID) {
		return offer.Offer{}, offer.ErrCodeTaken
	}
	r.items[o.ID] = o
	return o, nil
}

func (r *OffersRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return offer.ErrNotFound
	}
	delete(r.items, id)
	return nil
}
