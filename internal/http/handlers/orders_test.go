package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/geocoder89/shopsphere/internal/auth"
	"github.com/geocoder89/shopsphere/internal/domain/order"
	"github.com/geocoder89/shopsphere/internal/domain/user"
	"github.com/geocoder89/shopsphere/internal/http/handlers"
	"github.com/geocoder89/shopsphere/internal/orders"
	"github.com/gin-gonic/gin"
)

type fakeOrderService struct {
	placeFn  func(ctx context.Context, userID string, in orders.PlaceOrderInput) (order.Order, error)
	getFn    func(ctx context.Context, p auth.Principal, id string) (order.Order, error)
	statusFn func(ctx context.Context, actorID, id string, status order.Status) (order.Order, error)
}

func (f *fakeOrderService) PlaceOrder(ctx context.Context, userID string, in orders.PlaceOrderInput) (order.Order, error) {
	if f.placeFn != nil {
		return f.placeFn(ctx, userID, in)
	}
	return order.Order{ID: "o1", UserID: userID}, nil
}

func (f *fakeOrderService) ListForPrincipal(context.Context, auth.Principal) ([]order.Order, error) {
	return []order.Order{}, nil
}

func (f *fakeOrderService) ListAll(context.Context) ([]order.Order, error) {
	return []order.Order{}, nil
}

func (f *fakeOrderService) GetForPrincipal(ctx context.Context, p auth.Principal, id string) (order.Order, error) {
	if f.getFn != nil {
		return f.getFn(ctx, p, id)
	}
	return order.Order{}, order.ErrNotFound
}

func (f *fakeOrderService) UpdateStatus(ctx context.Context, actorID, id string, status order.Status) (order.Order, error) {
	if f.statusFn != nil {
		return f.statusFn(ctx, actorID, id, status)
	}
	return order.Order{ID: id, Status: status}, nil
}

func ordersRouter(svc *fakeOrderService, who gin.HandlerFunc) *gin.Engine {
	h := handlers.NewOrdersHandler(svc)
	r := gin.New()
	r.POST("/api/orders", who, h.Place)
	r.GET("/api/orders/:id", who, h.Get)
	r.PUT("/api/orders/:id/status", who, h.UpdateStatus)
	return r
}

var validOrderBody = gin.H{
	"orderItems": []gin.H{{"product": "p1", "name": "Desk", "price": 100, "qty": 1}},
	"shippingAddress": gin.H{
		"address": "1 Main St", "city": "Lagos", "postalCode": "100001", "country": "NG",
	},
}

func TestPlaceOrder_UsesAuthenticatedUser(t *testing.T) {
	var gotUser string
	svc := &fakeOrderService{
		placeFn: func(_ context.Context, userID string, in orders.PlaceOrderInput) (order.Order, error) {
			gotUser = userID
			if len(in.Items) != 1 || in.Items[0].ProductID != "p1" {
				return order.Order{}, fmt.Errorf("unexpected items %+v", in.Items)
			}
			return order.Order{ID: "o1", UserID: userID}, nil
		},
	}

	w := doJSON(t, ordersRouter(svc, as(customer)), http.MethodPost, "/api/orders", validOrderBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	if gotUser != customer.ID {
		t.Fatalf("expected order for %s, got %s", customer.ID, gotUser)
	}
}

func TestPlaceOrder_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{
			name:     "insufficient stock",
			err:      &order.InsufficientStockError{ProductID: "p1", Name: "Desk", Available: 1, Requested: 3},
			wantCode: http.StatusBadRequest,
			wantErr:  "insufficient_stock",
		},
		{
			name:     "unknown product",
			err:      &order.ProductNotFoundError{ProductID: "p9"},
			wantCode: http.StatusNotFound,
			wantErr:  "not_found",
		},
		{
			name:     "empty cart",
			err:      order.ErrEmptyCart,
			wantCode: http.StatusBadRequest,
			wantErr:  "empty_cart",
		},
		{
			name:     "payment method",
			err:      fmt.Errorf("%w: %q", order.ErrUnsupportedPaymentMethod, "card"),
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_request",
		},
		{
			name:     "invalid item",
			err:      fmt.Errorf("%w: line 0 has qty -3", order.ErrInvalidItem),
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_request",
		},
		{
			name:     "infrastructure",
			err:      fmt.Errorf("connection reset"),
			wantCode: http.StatusInternalServerError,
			wantErr:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeOrderService{
				placeFn: func(context.Context, string, orders.PlaceOrderInput) (order.Order, error) {
					return order.Order{}, tt.err
				},
			}

			w := doJSON(t, ordersRouter(svc, as(customer)), http.MethodPost, "/api/orders", validOrderBody)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d body=%s", tt.wantCode, w.Code, w.Body.String())
			}
			if code := decodeError(t, w).Error.Code; code != tt.wantErr {
				t.Fatalf("expected code %q, got %q", tt.wantErr, code)
			}
		})
	}
}

func TestPlaceOrder_StockErrorDetails(t *testing.T) {
	svc := &fakeOrderService{
		placeFn: func(context.Context, string, orders.PlaceOrderInput) (order.Order, error) {
			return order.Order{}, &order.InsufficientStockError{ProductID: "p1", Name: "Desk", Available: 1, Requested: 3}
		},
	}

	w := doJSON(t, ordersRouter(svc, as(customer)), http.MethodPost, "/api/orders", validOrderBody)
	env := decodeError(t, w)
	if env.Error.Message != "Not enough stock for Desk. Available: 1" {
		t.Fatalf("unexpected message %q", env.Error.Message)
	}
	if env.Error.Details["available"] != float64(1) || env.Error.Details["requested"] != float64(3) {
		t.Fatalf("unexpected details %v", env.Error.Details)
	}
}

func TestPlaceOrder_MissingShippingFields(t *testing.T) {
	w := doJSON(t, ordersRouter(&fakeOrderService{}, as(customer)), http.MethodPost, "/api/orders", gin.H{
		"orderItems":      []gin.H{{"product": "p1", "price": 1, "qty": 1}},
		"shippingAddress": gin.H{"address": "1 Main St"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !hasFieldError(decodeError(t, w), "shippingAddress.city") {
		t.Fatalf("expected shippingAddress.city in details")
	}
}

func TestGetOrder_ForeignOrderForbidden(t *testing.T) {
	svc := &fakeOrderService{
		getFn: func(_ context.Context, p auth.Principal, id string) (order.Order, error) {
			if p.Role != user.RoleAdmin {
				return order.Order{}, &auth.ForbiddenError{Role: p.Role, Allowed: []user.Role{user.RoleAdmin}}
			}
			return order.Order{ID: id}, nil
		},
	}

	w := doJSON(t, ordersRouter(svc, as(customer)), http.MethodGet, "/api/orders/o1", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	w = doJSON(t, ordersRouter(svc, as(admin)), http.MethodGet, "/api/orders/o1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	var actor string
	svc := &fakeOrderService{
		statusFn: func(_ context.Context, actorID, id string, status order.Status) (order.Order, error) {
			actor = actorID
			if !status.IsValid() {
				return order.Order{}, order.ErrInvalidStatus
			}
			return order.Order{ID: id, Status: status}, nil
		},
	}
	r := ordersRouter(svc, as(admin))

	w := doJSON(t, r, http.MethodPut, "/api/orders/o1/status", gin.H{"status": "delivered"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if actor != admin.ID {
		t.Fatalf("expected actor %s, got %s", admin.ID, actor)
	}

	w = doJSON(t, r, http.MethodPut, "/api/orders/o1/status", gin.H{"status": "lost"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
