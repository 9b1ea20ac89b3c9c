package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/shopsphere/internal/domain/offer"
	"github.com/gin-gonic/gin"
)

type OfferService interface {
	Apply(ctx context.Context, code string, itemsPrice float64) (offer.Application, error)
	Create(ctx context.Context, req offer.CreateRequest) (offer.Offer, error)
	Update(ctx context.Context, id string, req offer.UpdateRequest) (offer.Offer, error)
	Delete(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]offer.Offer, error)
}

type OffersHandler struct {
	offers OfferService
}

func NewOffersHandler(svc OfferService) *OffersHandler {
	return &OffersHandler{offers: svc}
}

// GET /api/offers
func (h *OffersHandler) List(ctx *gin.Context) {
	cctx, cancel := boundedCtx(ctx, 2*time.Second)
	defer cancel()

	items, err := h.offers.ListActive(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not list offers")
		return
	}

	RespondOffers(ctx, items)
}

// POST /api/offers/apply
func (h *OffersHandler) Apply(ctx *gin.Context) {
	var req offer.ApplyRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := boundedCtx(ctx, 2*time.Second)
	defer cancel()

	app, err := h.offers.Apply(cctx, req.Code, *req.ItemsPrice)
	if err != nil {
		if errors.Is(err, offer.ErrNotFound) {
			RespondNotFound(ctx, "Offer not found or inactive")
			return
		}
		RespondInternal(ctx, "Could not apply offer")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"offer": gin.H{
			"code":            app.Offer.Code,
			"discountPercent": app.Offer.DiscountPercent,
			"title":           app.Offer.Title,
		},
		"discount": app.Discount,
		"newTotal": app.NewTotal,
	})
}

// POST /api/offers
func (h *OffersHandler) Create(ctx *gin.Context) {
	var req offer.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := boundedCtx(ctx, 3*time.Second)
	defer cancel()

	o, err := h.offers.Create(cctx, req)
	if err != nil {
		if errors.Is(err, offer.ErrCodeTaken) {
			RespondConflict(ctx, "Offer code already exists")
			return
		}
		RespondInternal(ctx, "Could not create offer")
		return
	}

	ctx.JSON(http.StatusCreated, o)
}

// PUT /api/offers/:id
func (h *OffersHandler) Update(ctx *gin.Context) {
	var req offer.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := boundedCtx(ctx, 3*time.Second)
	defer cancel()

	o, err := h.offers.Update(cctx, ctx.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, offer.ErrNotFound):
			RespondNotFound(ctx, "Offer not found")
		case errors.Is(err, offer.ErrCodeTaken):
			RespondConflict(ctx, "Offer code already exists")
		default:
			RespondInternal(ctx, "Could not update offer")
		}
		return
	}

	ctx.JSON(http.StatusOK, o)
}

// DELETE /api/offers/:id
func (h *OffersHandler) Delete(ctx *gin.Context) {
	cctx, cancel := boundedCtx(ctx, 3*time.Second)
	defer cancel()

	if err := h.offers.Delete(cctx, ctx.Param("id")); err != nil {
		if errors.Is(err, offer.ErrNotFound) {
			RespondNotFound(ctx, "Offer not found")
			return
		}
		RespondInternal(ctx, "Could not delete offer")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Offer removed"})
}
