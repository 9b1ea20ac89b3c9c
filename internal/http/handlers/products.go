package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/shopsphere/internal/cache"
	"github.com/geocoder89/shopsphere/internal/domain/product"
	"github.com/geocoder89/shopsphere/internal/domain/user"
	"github.com/geocoder89/shopsphere/internal/http/middlewares"
	"github.com/geocoder89/shopsphere/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	defaultProductsLimit = 50
	maxProductsLimit     = 200
)

type ProductStore interface {
	Create(ctx context.Context, p product.Product) (product.Product, error)
	GetByID(ctx context.Context, id string) (product.Product, error)
	List(ctx context.Context, f product.ListFilter) ([]product.Product, error)
	Update(ctx context.Context, p product.Product) (product.Product, error)
	Delete(ctx context.Context, id string) error
}

type ProductsHandler struct {
	products ProductStore
	list     *cache.Cache[[]product.Product]
}

func NewProductsHandler(products ProductStore, listCache *cache.Cache[[]product.Product]) *ProductsHandler {
	if listCache == nil {
		listCache = cache.New[[]product.Product](5 * time.Second)
	}

	return &ProductsHandler{products: products, list: listCache}
}

// GET /api/products?search=&limit=
func (h *ProductsHandler) List(ctx *gin.Context) {
	limit := parseIntDefault(ctx.Query("limit"), defaultProductsLimit)
	if limit < 1 || limit > maxProductsLimit {
		RespondBadRequest(ctx, "limit must be between 1 and 200", nil)
		return
	}

	var search *string
	if s := strings.TrimSpace(ctx.Query("search")); s != "" {
		search = &s
	}

	key := utils.BuildProductsListCacheKey(limit, search)
	if items, ok := h.list.Get(key); ok {
		ctx.Header("X-Cache", "HIT")
		RespondJSONWithETag(ctx, http.StatusOK, gin.H{"count": len(items), "items": items})
		return
	}

	cctx, cancel := boundedCtx(ctx, 2*time.Second)
	defer cancel()

	items, err := h.products.List(cctx, product.ListFilter{Search: search, Limit: limit})
	if err != nil {
		RespondInternal(ctx, "Could not list products")
		return
	}

	h.list.Set(key, items)
	ctx.Header("X-Cache", "MISS")
	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"count": len(items), "items": items})
}

// GET /api/products/vendor/my
func (h *ProductsHandler) ListMine(ctx *gin.Context) {
	vendorID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "Not authorized")
		return
	}

	cctx, cancel := boundedCtx(ctx, 2*time.Second)
	defer cancel()

	items, err := h.products.List(cctx, product.ListFilter{VendorID: &vendorID})
	if err != nil {
		RespondInternal(ctx, "Could not list products")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"count": len(items), "items": items})
}

// GET /api/products/:id
func (h *ProductsHandler) Get(ctx *gin.Context) {
	cctx, cancel := boundedCtx(ctx, 2*time.Second)
	defer cancel()

	p, err := h.products.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}
		RespondInternal(ctx, "Could not fetch product")
		return
	}

	RespondProduct(ctx, p)
}

// POST /api/products
func (h *ProductsHandler) Create(ctx *gin.Context) {
	var req product.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	p, _ := middlewares.PrincipalFromContext(ctx)

	var vendorID *string
	if p.Role == user.RoleVendor {
		id := p.UserID
		vendorID = &id
	}

	cctx, cancel := boundedCtx(ctx, 3*time.Second)
	defer cancel()

	created, err := h.products.Create(cctx, product.NewFromCreateRequest(req, vendorID))
	if err != nil {
		RespondInternal(ctx, "Could not create product")
		return
	}

	h.list.Clear()
	ctx.JSON(http.StatusCreated, created)
}

// PUT /api/products/:id
func (h *ProductsHandler) Update(ctx *gin.Context) {
	var req product.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := boundedCtx(ctx, 3*time.Second)
	defer cancel()

	existing, err := h.products.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}
		RespondInternal(ctx, "Could not fetch product")
		return
	}

	p, _ := middlewares.PrincipalFromContext(ctx)
	if p.Role == user.RoleVendor && !existing.OwnedBy(p.UserID) {
		RespondForbidden(ctx, "Not authorized to update this product")
		return
	}

	updated := existing.Apply(req)
	updated.UpdatedAt = time.Now().UTC()

	saved, err := h.products.Update(cctx, updated)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}
		RespondInternal(ctx, "Could not update product")
		return
	}

	h.list.Clear()
	ctx.JSON(http.StatusOK, saved)
}

// DELETE /api/products/:id
func (h *ProductsHandler) Delete(ctx *gin.Context) {
	cctx, cancel := boundedCtx(ctx, 3*time.Second)
	defer cancel()

	if err := h.products.Delete(cctx, ctx.Param("id")); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}
		RespondInternal(ctx, "Could not delete product")
		return
	}

	h.list.Clear()
	ctx.JSON(http.StatusOK, gin.H{"message": "Product removed"})
}
