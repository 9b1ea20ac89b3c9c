package notifications

import (
	"context"
	"errors"
)

var (
	ErrAlreadySent = errors.New("notification already sent")
	ErrInProgress  = errors.New("notification send in progress")
)

type OrderConfirmationInput struct {
	Email      string
	Name       string
	OrderID    string
	TotalPrice float64
	ItemCount  int
}

type OrderStatusInput struct {
	Email   string
	Name    string
	OrderID string
	Status  string
}

type Notifier interface {
	SendOrderConfirmation(ctx context.Context, in OrderConfirmationInput) error
	SendOrderStatusUpdate(ctx context.Context, in OrderStatusInput) error
}
