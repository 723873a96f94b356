package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradecraft/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated      = "OrderCreated"
	EventTypeOrderTransitioned = "OrderTransitioned"
	EventTypeOrderPaid         = "OrderPaid"
	EventTypePaymentFailed     = "PaymentFailed"
	EventTypePaymentRefunded   = "PaymentRefunded"
)

// OrderCreatedEvent is raised when checkout creates a new order
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      uuid.UUID       `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		TotalAmount:     o.TotalAmount,
		Currency:        o.Currency,
	}
}

// EventType returns the event type name
func (e *OrderCreatedEvent) EventType() string {
	return EventTypeOrderCreated
}

// OrderTransitionedEvent is raised on every fulfillment transition.
// It carries the from/to pair, the acting party and the transition time so
// downstream consumers never have to re-read the order to learn what happened.
type OrderTransitionedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID   `json:"order_id"`
	OrderNumber    string      `json:"order_number"`
	UserID         uuid.UUID   `json:"user_id"`
	FromStatus     OrderStatus `json:"from_status"`
	ToStatus       OrderStatus `json:"to_status"`
	Actor          Actor       `json:"actor"`
	TrackingNumber string      `json:"tracking_number,omitempty"`
	CancelReason   string      `json:"cancel_reason,omitempty"`
	TransitionedAt time.Time   `json:"transitioned_at"`
}

// NewOrderTransitionedEvent creates a new OrderTransitionedEvent
func NewOrderTransitionedEvent(o *Order, from OrderStatus, actor Actor) *OrderTransitionedEvent {
	return &OrderTransitionedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderTransitioned, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		FromStatus:      from,
		ToStatus:        o.Status,
		Actor:           actor,
		TrackingNumber:  o.TrackingNumber,
		CancelReason:    o.CancelReason,
		TransitionedAt:  o.UpdatedAt,
	}
}

// EventType returns the event type name
func (e *OrderTransitionedEvent) EventType() string {
	return EventTypeOrderTransitioned
}

// OrderPaidEvent is raised when the payment axis reaches PAID
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	UserID        uuid.UUID       `json:"user_id"`
	TransactionID string          `json:"transaction_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	PaidAt        time.Time       `json:"paid_at"`
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	paidAt := time.Now()
	if o.PaidAt != nil {
		paidAt = *o.PaidAt
	}
	return &OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaid, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		TransactionID:   o.PaymentTransactionID,
		TotalAmount:     o.TotalAmount,
		Currency:        o.Currency,
		PaidAt:          paidAt,
	}
}

// EventType returns the event type name
func (e *OrderPaidEvent) EventType() string {
	return EventTypeOrderPaid
}

// PaymentFailedEvent is raised when a payment attempt fails
type PaymentFailedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
}

// NewPaymentFailedEvent creates a new PaymentFailedEvent
func NewPaymentFailedEvent(o *Order) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentFailed, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
	}
}

// EventType returns the event type name
func (e *PaymentFailedEvent) EventType() string {
	return EventTypePaymentFailed
}

// PaymentRefundedEvent is raised when the payment axis reaches REFUNDED
type PaymentRefundedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	UserID        uuid.UUID       `json:"user_id"`
	TransactionID string          `json:"transaction_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
}

// NewPaymentRefundedEvent creates a new PaymentRefundedEvent
func NewPaymentRefundedEvent(o *Order) *PaymentRefundedEvent {
	return &PaymentRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRefunded, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		TransactionID:   o.PaymentTransactionID,
		TotalAmount:     o.TotalAmount,
		Currency:        o.Currency,
	}
}

// EventType returns the event type name
func (e *PaymentRefundedEvent) EventType() string {
	return EventTypePaymentRefunded
}
