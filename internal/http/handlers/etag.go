package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/shopsphere/internal/domain/offer"
	"github.com/geocoder89/shopsphere/internal/domain/product"
	"github.com/gin-gonic/gin"
)

// productETag changes whenever the product row is written, including the
// stock decrement an order performs.
func productETag(p product.Product) string {
	return fmt.Sprintf(`W/"product-%s-%d-%d"`, p.ID, p.UpdatedAt.UnixNano(), p.CountInStock)
}

// offersETag versions the active offer set by membership and edit time.
func offersETag(items []offer.Offer) string {
	h := sha256.New()
	for _, o := range items {
		fmt.Fprintf(h, "%s:%d:%t;", o.ID, o.UpdatedAt.UnixNano(), o.Active)
	}

	return `W/"offers-` + hex.EncodeToString(h.Sum(nil))[:32] + `"`
}

// RespondProduct serves a single product with a version validator and
// Last-Modified, answering 304 to a matching conditional request.
func RespondProduct(ctx *gin.Context, p product.Product) {
	respondVersioned(ctx, productETag(p), p.UpdatedAt, p)
}

func RespondOffers(ctx *gin.Context, items []offer.Offer) {
	var latest time.Time
	for _, o := range items {
		if o.UpdatedAt.After(latest) {
			latest = o.UpdatedAt
		}
	}

	respondVersioned(ctx, offersETag(items), latest, items)
}

// RespondJSONWithETag hashes the rendered body. Used for lists and admin
// views that have no single version column.
func RespondJSONWithETag(ctx *gin.Context, status int, payload interface{}) {
	etag, err := buildETag(payload)
	if err != nil {
		ctx.JSON(status, payload)
		return
	}

	ctx.Header("ETag", etag)

	if ifNoneMatchMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.JSON(status, payload)
}

func respondVersioned(ctx *gin.Context, etag string, modified time.Time, payload interface{}) {
	ctx.Header("ETag", etag)
	if !modified.IsZero() {
		ctx.Header("Last-Modified", modified.UTC().Format(http.TimeFormat))
	}

	if notModified(ctx.Request, etag, modified) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.JSON(http.StatusOK, payload)
}

// notModified applies If-None-Match first and only falls back to
// If-Modified-Since when no entity tag was sent.
func notModified(r *http.Request, etag string, modified time.Time) bool {
	if inm := r.Header.Get("If-None-Match"); strings.TrimSpace(inm) != "" {
		return ifNoneMatchMatches(inm, etag)
	}

	ims := r.Header.Get("If-Modified-Since")
	if ims == "" || modified.IsZero() {
		return false
	}

	since, err := http.ParseTime(ims)
	if err != nil {
		return false
	}

	return !modified.Truncate(time.Second).After(since)
}

func buildETag(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)

	return `"` + hex.EncodeToString(sum[:]) + `"`, nil
}

func ifNoneMatchMatches(headerValue, currentETag string) bool {
	if strings.TrimSpace(headerValue) == "" || strings.TrimSpace(currentETag) == "" {
		return false
	}

	if strings.TrimSpace(headerValue) == "*" {
		return true
	}

	current := normalizeETag(currentETag)

	for _, part := range strings.Split(headerValue, ",") {
		if normalizeETag(part) == current {
			return true
		}
	}

	return false
}

// normalizeETag drops the weak prefix; GET validation uses weak comparison.
func normalizeETag(raw string) string {
	return strings.TrimPrefix(strings.TrimSpace(raw), "W/")
}
