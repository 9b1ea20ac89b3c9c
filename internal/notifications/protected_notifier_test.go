package notifications

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyNotifier struct {
	err   error
	calls int
}

func (f *flakyNotifier) SendOrderConfirmation(context.Context, OrderConfirmationInput) error {
	f.calls++
	return f.err
}

func (f *flakyNotifier) SendOrderStatusUpdate(context.Context, OrderStatusInput) error {
	f.calls++
	return f.err
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &flakyNotifier{err: errors.New("provider down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 2, Cooldown: time.Hour})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := n.SendOrderConfirmation(ctx, OrderConfirmationInput{OrderID: "o1"}); err == nil {
			t.Fatalf("expected provider error")
		}
	}
	if n.State() != "open" {
		t.Fatalf("expected open circuit, got %s", n.State())
	}

	err := n.SendOrderStatusUpdate(ctx, OrderStatusInput{OrderID: "o1"})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("open circuit must not reach the provider, calls=%d", inner.calls)
	}
}

func TestProtectedNotifier_HalfOpenRecovers(t *testing.T) {
	inner := &flakyNotifier{err: errors.New("provider down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Millisecond})
	ctx := context.Background()

	_ = n.SendOrderConfirmation(ctx, OrderConfirmationInput{})
	if n.State() != "open" {
		t.Fatalf("expected open circuit")
	}

	time.Sleep(5 * time.Millisecond)
	inner.err = nil

	if err := n.SendOrderConfirmation(ctx, OrderConfirmationInput{}); err != nil {
		t.Fatalf("half-open trial should pass: %v", err)
	}
	if n.State() != "closed" {
		t.Fatalf("expected closed circuit, got %s", n.State())
	}
}

func TestLogNotifier_SimulatedFailure(t *testing.T) {
	t.Setenv("NOTIFIER_FAIL", "1")

	if err := NewLogNotifier(nil).SendOrderConfirmation(context.Background(), OrderConfirmationInput{}); err == nil {
		t.Fatalf("expected simulated failure")
	}
}
