package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/shopsphere/internal/domain/product"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

const PaymentCashOnDelivery = "Cash on Delivery"

var (
	ErrNotFound                 = errors.New("order not found")
	ErrEmptyCart                = errors.New("no order items")
	ErrInsufficientStock        = errors.New("insufficient stock")
	ErrInvalidStatus            = errors.New("invalid order status")
	ErrUnsupportedPaymentMethod = errors.New("unsupported payment method")
	ErrInvalidItem              = errors.New("invalid order item")
)

// InsufficientStockError names the product that could not cover the requested quantity.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Not enough stock for %s. Available: %d", e.Name, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return "Product not found: " + e.ProductID
}

func (e *ProductNotFoundError) Unwrap() error { return product.ErrNotFound }

type Item struct {
	ProductID string  `json:"product" binding:"required"`
	Name      string  `json:"name"`
	Price     float64 `json:"price" binding:"gte=0"`
	Qty       int     `json:"qty" binding:"required,min=1"`
}

type ShippingAddress struct {
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user"`
	Items           []Item          `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      float64         `json:"itemsPrice"`
	TaxPrice        float64         `json:"taxPrice"`
	ShippingPrice   float64         `json:"shippingPrice"`
	TotalPrice      float64         `json:"totalPrice"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// PlaceRequest is the checkout body. An empty item list is reported as an
// empty cart by the engine rather than as a validation failure.
type PlaceRequest struct {
	Items           []Item          `json:"orderItems" binding:"dive"`
	ShippingAddress ShippingAddress `json:"shippingAddress" binding:"required"`
	PaymentMethod   string          `json:"paymentMethod"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required,orderstatus"`
}
