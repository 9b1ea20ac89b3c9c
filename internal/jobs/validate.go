package jobs

import "strings"

// ValidatePayload checks that payload matches t and carries its required ids.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	trim := func(s string) string { return strings.TrimSpace(s) }

	switch t {
	case JobOrderConfirmation:
		var p OrderConfirmationPayload
		switch v := payload.(type) {
		case OrderConfirmationPayload:
			p = v
		case *OrderConfirmationPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.OrderID) == "" || trim(p.UserID) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	case JobOrderStatusChanged:
		var p OrderStatusChangedPayload
		switch v := payload.(type) {
		case OrderStatusChangedPayload:
			p = v
		case *OrderStatusChangedPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.OrderID) == "" || trim(p.UserID) == "" || trim(p.Status) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
