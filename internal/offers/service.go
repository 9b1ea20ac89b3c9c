package offers

import (
	"context"
	"errors"

	"github.com/geocoder89/shopsphere/internal/domain/offer"
	"github.com/geocoder89/shopsphere/internal/observability"
	"github.com/shopspring/decimal"
)

type Store interface {
	Create(ctx context.Context, o offer.Offer) (offer.Offer, error)
	GetByID(ctx context.Context, id string) (offer.Offer, error)
	GetActiveByCode(ctx context.Context, code string) (offer.Offer, error)
	ListActive(ctx context.Context) ([]offer.Offer, error)
	Update(ctx context.Context, o offer.Offer) (offer.Offer, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	store Store
	prom  *observability.Prom
}

func NewService(store Store, prom *observability.Prom) *Service {
	return &Service{store: store, prom: prom}
}

var hundred = decimal.NewFromInt(100)

// Apply prices a coupon against a pre-tax subtotal. It is read-only and does
// not look at validFrom/validUntil.
func (s *Service) Apply(ctx context.Context, code string, itemsPrice float64) (offer.Application, error) {
	o, err := s.store.GetActiveByCode(ctx, offer.NormalizeCode(code))
	if err != nil {
		if errors.Is(err, offer.ErrNotFound) {
			s.prom.ObserveCoupon("not_found")
		}
		return offer.Application{}, err
	}

	discount, total := Discount(itemsPrice, o.DiscountPercent)
	s.prom.ObserveCoupon("applied")

	return offer.Application{
		Offer:    o,
		Discount: discount.InexactFloat64(),
		NewTotal: total.InexactFloat64(),
	}, nil
}

// Discount returns round2(items*pct/100) and round2(items-discount).
func Discount(itemsPrice, percent float64) (discount, newTotal decimal.Decimal) {
	items := decimal.NewFromFloat(itemsPrice)

	discount = items.Mul(decimal.NewFromFloat(percent)).Div(hundred).Round(2)
	newTotal = items.Sub(discount).Round(2)

	return discount, newTotal
}

func (s *Service) Create(ctx context.Context, req offer.CreateRequest) (offer.Offer, error) {
	return s.store.Create(ctx, offer.NewFromCreateRequest(req))
}

func (s *Service) Update(ctx context.Context, id string, req offer.UpdateRequest) (offer.Offer, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return offer.Offer{}, err
	}

	return s.store.Update(ctx, current.Apply(req))
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) ListActive(ctx context.Context) ([]offer.Offer, error) {
	return s.store.ListActive(ctx)
}
