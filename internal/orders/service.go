package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/shopsphere/internal/auth"
	"github.com/geocoder89/shopsphere/internal/domain/job"
	"github.com/geocoder89/shopsphere/internal/domain/order"
	"github.com/geocoder89/shopsphere/internal/domain/product"
	"github.com/geocoder89/shopsphere/internal/domain/user"
	"github.com/geocoder89/shopsphere/internal/jobs"
	"github.com/geocoder89/shopsphere/internal/observability"
	"github.com/google/uuid"
)

type ProductReader interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
}

// Store persists orders. PlaceTx must insert the order and decrement stock for
// every line in one transaction, failing with *order.InsufficientStockError
// (and writing nothing) when any conditional decrement finds too little stock.
type Store interface {
	PlaceTx(ctx context.Context, o order.Order) (order.Order, error)
	GetByID(ctx context.Context, id string) (order.Order, error)
	ListByUser(ctx context.Context, userID string) ([]order.Order, error)
	ListAll(ctx context.Context) ([]order.Order, error)
	UpdateStatus(ctx context.Context, id string, status order.Status) (order.Order, error)
}

// stockInvalidator is implemented by cached product readers whose entries go
// stale once an order decrements stock.
type stockInvalidator interface {
	Invalidate(ctx context.Context, ids ...string)
}

type JobEnqueuer interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

type Service struct {
	products ProductReader
	store    Store
	jobs     JobEnqueuer
	prom     *observability.Prom
	log      *slog.Logger
}

func NewService(products ProductReader, store Store, jobsQ JobEnqueuer, prom *observability.Prom, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		products: products,
		store:    store,
		jobs:     jobsQ,
		prom:     prom,
		log:      log,
	}
}

type PlaceOrderInput struct {
	Items           []order.Item
	ShippingAddress order.ShippingAddress
	PaymentMethod   string
	RequestID       string
}

func (s *Service) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (order.Order, error) {
	if len(in.Items) == 0 {
		s.prom.ObserveOrderRejected("empty_cart")
		return order.Order{}, order.ErrEmptyCart
	}

	payment := strings.TrimSpace(in.PaymentMethod)
	if payment == "" {
		payment = order.PaymentCashOnDelivery
	}
	if !strings.EqualFold(payment, order.PaymentCashOnDelivery) {
		s.prom.ObserveOrderRejected("payment_method")
		return order.Order{}, fmt.Errorf("%w: %q", order.ErrUnsupportedPaymentMethod, payment)
	}

	for i, line := range in.Items {
		if line.Qty < 1 || line.Price < 0 {
			s.prom.ObserveOrderRejected("invalid_item")
			return order.Order{}, fmt.Errorf("%w: line %d has qty %d and price %v", order.ErrInvalidItem, i, line.Qty, line.Price)
		}
	}

	quote := Price(in.Items)

	// every line is checked before anything is written
	items := make([]order.Item, len(in.Items))
	for i, line := range in.Items {
		p, err := s.products.GetByID(ctx, line.ProductID)
		if errors.Is(err, product.ErrNotFound) {
			s.prom.ObserveOrderRejected("product_not_found")
			return order.Order{}, &order.ProductNotFoundError{ProductID: line.ProductID}
		}
		if err != nil {
			return order.Order{}, err
		}

		if p.CountInStock < line.Qty {
			s.prom.ObserveOrderRejected("insufficient_stock")
			return order.Order{}, &order.InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Available: p.CountInStock,
				Requested: line.Qty,
			}
		}

		if strings.TrimSpace(line.Name) == "" {
			line.Name = p.Name
		}
		items[i] = line
	}

	now := time.Now().UTC()
	o := order.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   order.PaymentCashOnDelivery,
		Status:          order.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	quote.applyTo(&o)

	placed, err := s.store.PlaceTx(ctx, o)
	if err != nil {
		if errors.Is(err, order.ErrInsufficientStock) {
			s.prom.ObserveOrderRejected("insufficient_stock")
		}
		return order.Order{}, err
	}

	if inv, ok := s.products.(stockInvalidator); ok {
		ids := make([]string, 0, len(placed.Items))
		for _, it := range placed.Items {
			ids = append(ids, it.ProductID)
		}
		inv.Invalidate(ctx, ids...)
	}

	s.prom.ObserveOrderPlaced(placed.TotalPrice)

	s.enqueue(ctx, jobs.JobOrderConfirmation, jobs.OrderConfirmationPayload{
		OrderID:    placed.ID,
		UserID:     placed.UserID,
		TotalPrice: placed.TotalPrice,
		ItemCount:  len(placed.Items),
		RequestID:  in.RequestID,
	}, "order.confirmation:"+placed.ID)

	return placed, nil
}

// ListForPrincipal returns the caller's orders, or every order for admins.
func (s *Service) ListForPrincipal(ctx context.Context, p auth.Principal) ([]order.Order, error) {
	if p.Role == user.RoleAdmin {
		return s.store.ListAll(ctx)
	}

	return s.store.ListByUser(ctx, p.UserID)
}

func (s *Service) ListAll(ctx context.Context) ([]order.Order, error) {
	return s.store.ListAll(ctx)
}

func (s *Service) GetForPrincipal(ctx context.Context, p auth.Principal, id string) (order.Order, error) {
	o, err := s.store.GetByID(ctx, id)
	if err != nil {
		return order.Order{}, err
	}

	if o.UserID != p.UserID && p.Role != user.RoleAdmin {
		return order.Order{}, &auth.ForbiddenError{Role: p.Role, Allowed: []user.Role{user.RoleAdmin}}
	}

	return o, nil
}

// UpdateStatus writes any valid status over any other; there is no transition graph.
func (s *Service) UpdateStatus(ctx context.Context, actorID, id string, status order.Status) (order.Order, error) {
	if !status.IsValid() {
		return order.Order{}, fmt.Errorf("%w: %q", order.ErrInvalidStatus, status)
	}

	o, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return order.Order{}, err
	}

	s.enqueue(ctx, jobs.JobOrderStatusChanged, jobs.OrderStatusChangedPayload{
		OrderID: o.ID,
		UserID:  o.UserID,
		Status:  string(o.Status),
		ActorID: actorID,
	}, "")

	return o, nil
}

// enqueue is best-effort: the order is already committed, so a queue failure
// is logged and never surfaced to the caller.
func (s *Service) enqueue(ctx context.Context, t jobs.JobType, payload any, key string) {
	if s.jobs == nil {
		return
	}

	req, err := jobs.NewCreateRequest(t, payload, key)
	if err != nil {
		s.log.ErrorContext(ctx, "encode job payload failed", "job_type", t, "err", err)
		return
	}

	if _, err := s.jobs.Create(ctx, req); err != nil {
		s.log.WarnContext(ctx, "enqueue job failed", "job_type", t, "err", err)
	}
}
