package product

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("product not found")

type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Price        float64   `json:"price"`
	CountInStock int       `json:"countInStock"`
	Image        string    `json:"image"`
	Category     string    `json:"category"`
	VendorID     *string   `json:"vendorId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// OwnedBy reports whether the product belongs to the given vendor. Products
// without a vendor are admin-managed and owned by nobody.
func (p Product) OwnedBy(vendorID string) bool {
	return p.VendorID != nil && *p.VendorID == vendorID
}

type ListFilter struct {
	Search   *string
	VendorID *string
	Limit    int
}

type CreateRequest struct {
	Name         string  `json:"name" binding:"required,max=200"`
	Description  string  `json:"description" binding:"omitempty,max=2000"`
	Price        float64 `json:"price" binding:"gte=0"`
	CountInStock int     `json:"countInStock" binding:"gte=0"`
	Image        string  `json:"image"`
	Category     string  `json:"category" binding:"omitempty,max=80"`
}

// partial update: nil fields keep their current value
type UpdateRequest struct {
	Name         *string  `json:"name" binding:"omitempty,min=1,max=200"`
	Description  *string  `json:"description" binding:"omitempty,max=2000"`
	Price        *float64 `json:"price" binding:"omitempty,gte=0"`
	CountInStock *int     `json:"countInStock" binding:"omitempty,gte=0"`
	Image        *string  `json:"image"`
	Category     *string  `json:"category" binding:"omitempty,max=80"`
}

func NewFromCreateRequest(req CreateRequest, vendorID *string) Product {
	now := time.Now().UTC()

	return Product{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		CountInStock: req.CountInStock,
		Image:        req.Image,
		Category:     req.Category,
		VendorID:     vendorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (p Product) Apply(req UpdateRequest) Product {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.CountInStock != nil {
		p.CountInStock = *req.CountInStock
	}
	if req.Image != nil {
		p.Image = *req.Image
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	p.UpdatedAt = time.Now().UTC()

	return p
}
