package notification

import (
	"context"
	"fmt"

	"github.com/tradecraft/backend/internal/domain/order"
	"github.com/tradecraft/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Notifier is the interface for delivering customer notifications.
// Implementations can support different channels (in-app, email, SMS, etc.)
type Notifier interface {
	// Send delivers a notification to the customer
	Send(ctx context.Context, n Notification) error
}

// Notification represents a customer-facing order notification
type Notification struct {
	UserID      string `json:"user_id"`
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Kind        string `json:"kind"` // "order_paid", "order_shipped", ...
	Message     string `json:"message"`
}

// OrderNotifier translates order lifecycle events into customer
// notifications. It is registered on the event bus behind an idempotency
// wrapper, so redelivered events do not notify twice.
type OrderNotifier struct {
	logger   *zap.Logger
	notifier Notifier
}

// NewOrderNotifier creates a new OrderNotifier
func NewOrderNotifier(logger *zap.Logger) *OrderNotifier {
	return &OrderNotifier{
		logger: logger,
	}
}

// WithNotifier sets the delivery channel
func (h *OrderNotifier) WithNotifier(notifier Notifier) *OrderNotifier {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *OrderNotifier) EventTypes() []string {
	return []string{
		order.EventTypeOrderTransitioned,
		order.EventTypeOrderPaid,
		order.EventTypePaymentFailed,
		order.EventTypePaymentRefunded,
	}
}

// Handle processes an order lifecycle event
func (h *OrderNotifier) Handle(ctx context.Context, event shared.DomainEvent) error {
	var n Notification

	switch e := event.(type) {
	case *order.OrderTransitionedEvent:
		n = h.transitionNotification(e)
		if n.Kind == "" {
			// Internal transitions (e.g. PROCESSING) are not customer-facing
			return nil
		}
	case *order.OrderPaidEvent:
		n = Notification{
			UserID:      e.UserID.String(),
			OrderID:     e.OrderID.String(),
			OrderNumber: e.OrderNumber,
			Kind:        "order_paid",
			Message:     fmt.Sprintf("Payment of %s %s for order %s received", e.TotalAmount, e.Currency, e.OrderNumber),
		}
	case *order.PaymentFailedEvent:
		n = Notification{
			UserID:      e.UserID.String(),
			OrderID:     e.OrderID.String(),
			OrderNumber: e.OrderNumber,
			Kind:        "payment_failed",
			Message:     fmt.Sprintf("Payment for order %s failed, please try again", e.OrderNumber),
		}
	case *order.PaymentRefundedEvent:
		n = Notification{
			UserID:      e.UserID.String(),
			OrderID:     e.OrderID.String(),
			OrderNumber: e.OrderNumber,
			Kind:        "payment_refunded",
			Message:     fmt.Sprintf("Refund of %s %s for order %s issued", e.TotalAmount, e.Currency, e.OrderNumber),
		}
	default:
		h.logger.Error("unexpected event type",
			zap.String("event_type", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	h.logger.Info("order notification",
		zap.String("kind", n.Kind),
		zap.String("order_number", n.OrderNumber),
		zap.String("user_id", n.UserID),
	)

	if h.notifier == nil {
		// No channel wired, logging is the notification
		return nil
	}

	return h.notifier.Send(ctx, n)
}

// transitionNotification maps a fulfillment transition to a customer
// notification; transitions the customer does not care about return an empty
// Kind
func (h *OrderNotifier) transitionNotification(e *order.OrderTransitionedEvent) Notification {
	n := Notification{
		UserID:      e.UserID.String(),
		OrderID:     e.OrderID.String(),
		OrderNumber: e.OrderNumber,
	}

	switch e.ToStatus {
	case order.OrderStatusShipped:
		n.Kind = "order_shipped"
		n.Message = fmt.Sprintf("Order %s shipped, tracking number %s", e.OrderNumber, e.TrackingNumber)
	case order.OrderStatusDelivered:
		n.Kind = "order_delivered"
		n.Message = fmt.Sprintf("Order %s delivered", e.OrderNumber)
	case order.OrderStatusCancelled:
		n.Kind = "order_cancelled"
		n.Message = fmt.Sprintf("Order %s cancelled", e.OrderNumber)
	case order.OrderStatusRefunding:
		n.Kind = "refund_started"
		n.Message = fmt.Sprintf("Refund for order %s is being processed", e.OrderNumber)
	case order.OrderStatusRefunded:
		n.Kind = "refund_completed"
		n.Message = fmt.Sprintf("Refund for order %s completed", e.OrderNumber)
	}

	return n
}
