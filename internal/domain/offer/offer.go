package offer

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("offer not found or inactive")
	ErrCodeTaken = errors.New("offer code already exists")
)

type Offer struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Code            string     `json:"code"`
	DiscountPercent float64    `json:"discountPercent"`
	ValidFrom       *time.Time `json:"validFrom,omitempty"`
	ValidUntil      *time.Time `json:"validUntil,omitempty"`
	Active          bool       `json:"active"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type CreateRequest struct {
	Title           string     `json:"title" binding:"required,max=200"`
	Description     string     `json:"description" binding:"omitempty,max=2000"`
	Code            string     `json:"code" binding:"required,max=40,couponcode"`
	DiscountPercent *float64   `json:"discountPercent" binding:"required,gte=0,lte=100"`
	ValidFrom       *time.Time `json:"validFrom"`
	ValidUntil      *time.Time `json:"validUntil"`
	Active          *bool      `json:"active"`
}

type UpdateRequest struct {
	Title           *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description     *string    `json:"description" binding:"omitempty,max=2000"`
	Code            *string    `json:"code" binding:"omitempty,min=1,max=40,couponcode"`
	DiscountPercent *float64   `json:"discountPercent" binding:"omitempty,gte=0,lte=100"`
	ValidFrom       *time.Time `json:"validFrom"`
	ValidUntil      *time.Time `json:"validUntil"`
	Active          *bool      `json:"active"`
}

type ApplyRequest struct {
	Code       string   `json:"code" binding:"required"`
	ItemsPrice *float64 `json:"itemsPrice" binding:"required,gte=0"`
}

// Application is the read-only result of applying a code to a subtotal.
type Application struct {
	Offer    Offer
	Discount float64
	NewTotal float64
}

// NormalizeCode makes lookups case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func NewFromCreateRequest(req CreateRequest) Offer {
	now := time.Now().UTC()

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	var pct float64
	if req.DiscountPercent != nil {
		pct = *req.DiscountPercent
	}

	return Offer{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Description:     req.Description,
		Code:            NormalizeCode(req.Code),
		DiscountPercent: pct,
		ValidFrom:       req.ValidFrom,
		ValidUntil:      req.ValidUntil,
		Active:          active,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (o Offer) Apply(req UpdateRequest) Offer {
	if req.Title != nil {
		o.Title = *req.Title
	}
	if req.Description != nil {
		o.Description = *req.Description
	}
	if req.Code != nil {
		o.Code = NormalizeCode(*req.Code)
	}
	if req.DiscountPercent != nil {
		o.DiscountPercent = *req.DiscountPercent
	}
	if req.ValidFrom != nil {
		o.ValidFrom = req.ValidFrom
	}
	if req.ValidUntil != nil {
		o.ValidUntil = req.ValidUntil
	}
	if req.Active != nil {
		o.Active = *req.Active
	}
	o.UpdatedAt = time.Now().UTC()

	return o
}
