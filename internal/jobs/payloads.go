package jobs

// OrderConfirmationPayload is enqueued once an order commits.
// Keep payload minimal and ID-based; the worker loads the customer from the DB.
type OrderConfirmationPayload struct {
	OrderID    string  `json:"orderId"`
	UserID     string  `json:"userId"`
	TotalPrice float64 `json:"totalPrice"`
	ItemCount  int     `json:"itemCount"`
	RequestID  string  `json:"requestId,omitempty"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
	Status  string `json:"status"`
	ActorID string `json:"actorId,omitempty"` // admin who changed it
}
