package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/geocoder89/shopsphere/internal/domain/job"
)

func EncodePayload(t JobType, payload any) (json.RawMessage, error) {
	if err := ValidatePayload(t, payload); err != nil {
		return nil, err
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// NewCreateRequest encodes payload and builds the row to insert. The
// idempotency key keeps retries of the same trigger from producing duplicates.
func NewCreateRequest(t JobType, payload any, idempotencyKey string) (job.CreateRequest, error) {
	b, err := EncodePayload(t, payload)
	if err != nil {
		return job.CreateRequest{}, err
	}

	req := job.CreateRequest{Type: string(t), Payload: b}
	if idempotencyKey != "" {
		req.IdempotencyKey = &idempotencyKey
	}

	return req, nil
}

// DecodePayload unmarshals j.Payload into the typed payload struct for its type.
func DecodePayload(j job.Job) (any, error) {
	t := JobType(j.Type)

	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	var out any

	switch t {
	case JobOrderConfirmation:
		var p OrderConfirmationPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		out = p

	case JobOrderStatusChanged:
		var p OrderStatusChangedPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		out = p
	}

	if err := ValidatePayload(t, out); err != nil {
		return nil, err
	}

	return out, nil
}
