package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/shopsphere/internal/auth"
	"github.com/geocoder89/shopsphere/internal/domain/order"
	"github.com/geocoder89/shopsphere/internal/http/middlewares"
	"github.com/geocoder89/shopsphere/internal/orders"
	"github.com/gin-gonic/gin"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, userID string, in orders.PlaceOrderInput) (order.Order, error)
	ListForPrincipal(ctx context.Context, p auth.Principal) ([]order.Order, error)
	ListAll(ctx context.Context) ([]order.Order, error)
	GetForPrincipal(ctx context.Context, p auth.Principal, id string) (order.Order, error)
	UpdateStatus(ctx context.Context, actorID, id string, status order.Status) (order.Order, error)
}

type OrdersHandler struct {
	orders OrderService
}

func NewOrdersHandler(svc OrderService) *OrdersHandler {
	return &OrdersHandler{orders: svc}
}

// POST /api/orders
func (h *OrdersHandler) Place(ctx *gin.Context) {
	var req order.PlaceRequest
	if !BindJSON(ctx, &req) {
		return
	}

	p, ok := middlewares.PrincipalFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "Not authorized")
		return
	}

	cctx, cancel := boundedCtx(ctx, 5*time.Second)
	defer cancel()

	placed, err := h.orders.PlaceOrder(cctx, p.UserID, orders.PlaceOrderInput{
		Items:           req.Items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		RequestID:       requestIDFrom(ctx),
	})
	if err != nil {
		respondOrderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, placed)
}

// GET /api/orders/my
func (h *OrdersHandler) ListMine(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "Not authorized")
		return
	}

	cctx, cancel := boundedCtx(ctx, 2*time.Second)
	defer cancel()

	items, err := h.orders.ListForPrincipal(cctx, p)
	if err != nil {
		RespondInternal(ctx, "Could not list orders")
		return
	}

	ctx.JSON(http.StatusOK, items)
}

// GET /api/orders
func (h *OrdersHandler) ListAll(ctx *gin.Context) {
	cctx, cancel := boundedCtx(ctx, 3*time.Second)
	defer cancel()

	items, err := h.orders.ListAll(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not list orders")
		return
	}

	ctx.JSON(http.StatusOK, items)
}

// GET /api/orders/:id
func (h *OrdersHandler) Get(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "Not authorized")
		return
	}

	cctx, cancel := boundedCtx(ctx, 2*time.Second)
	defer cancel()

	o, err := h.orders.GetForPrincipal(cctx, p, ctx.Param("id"))
	if err != nil {
		respondOrderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, o)
}

// PUT /api/orders/:id/status
func (h *OrdersHandler) UpdateStatus(ctx *gin.Context) {
	var req order.UpdateStatusRequest
	if !BindJSON(ctx, &req) {
		return
	}

	actorID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := boundedCtx(ctx, 3*time.Second)
	defer cancel()

	o, err := h.orders.UpdateStatus(cctx, actorID, ctx.Param("id"), req.Status)
	if err != nil {
		respondOrderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, o)
}

func respondOrderError(ctx *gin.Context, err error) {
	var (
		stockErr     *order.InsufficientStockError
		notFoundErr  *order.ProductNotFoundError
		forbiddenErr *auth.ForbiddenError
	)

	switch {
	case errors.As(err, &stockErr):
		RespondError(ctx, http.StatusBadRequest, "insufficient_stock", stockErr.Error(), gin.H{
			"product":   stockErr.ProductID,
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
	case errors.As(err, &notFoundErr):
		RespondNotFound(ctx, notFoundErr.Error())
	case errors.As(err, &forbiddenErr):
		RespondForbidden(ctx, "Not authorized to view this order")
	case errors.Is(err, order.ErrEmptyCart):
		RespondError(ctx, http.StatusBadRequest, "empty_cart", "No order items", nil)
	case errors.Is(err, order.ErrInvalidItem):
		RespondBadRequest(ctx, "Order items need a quantity of at least 1 and a non-negative price", nil)
	case errors.Is(err, order.ErrUnsupportedPaymentMethod):
		RespondBadRequest(ctx, "Unsupported payment method", nil)
	case errors.Is(err, order.ErrInvalidStatus):
		RespondBadRequest(ctx, "Invalid order status", nil)
	case errors.Is(err, order.ErrNotFound):
		RespondNotFound(ctx, "Order not found")
	default:
		slog.Default().ErrorContext(ctx.Request.Context(), "order operation failed", "err", err)
		RespondInternal(ctx, "Could not process order")
	}
}
