package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// LogNotifier "delivers" by logging. NOTIFIER_SLEEP_MS and NOTIFIER_FAIL=1
// simulate a slow or failing provider.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) simulate(ctx context.Context) error {
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}
	return nil
}

func (n *LogNotifier) SendOrderConfirmation(ctx context.Context, in OrderConfirmationInput) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.order_confirmation",
		"email", in.Email, "name", in.Name, "order_id", in.OrderID,
		"total_price", in.TotalPrice, "item_count", in.ItemCount,
	)
	return nil
}

func (n *LogNotifier) SendOrderStatusUpdate(ctx context.Context, in OrderStatusInput) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.order_status",
		"email", in.Email, "name", in.Name, "order_id", in.OrderID, "status", in.Status,
	)
	return nil
}
