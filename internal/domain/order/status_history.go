package order

import (
	"time"

	"github.com/google/uuid"
)

// StatusHistoryEntry is one row of the order's fulfillment audit trail.
// The entry id is the id of the lifecycle event it was built from, so a
// replayed event collapses onto the row already written.
type StatusHistoryEntry struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	FromStatus OrderStatus
	ToStatus   OrderStatus
	Actor      Actor
	Note       string
	CreatedAt  time.Time
}

// TableName maps the entry to its table
func (StatusHistoryEntry) TableName() string {
	return "order_status_history"
}

// NewStatusHistoryEntry builds an audit entry from a transition event.
// Shipping and cancellation carry their payload as the note.
func NewStatusHistoryEntry(e *OrderTransitionedEvent) *StatusHistoryEntry {
	note := ""
	switch {
	case e.ToStatus == OrderStatusShipped && e.TrackingNumber != "":
		note = "Tracking number " + e.TrackingNumber
	case e.ToStatus == OrderStatusCancelled && e.CancelReason != "":
		note = e.CancelReason
	}

	return &StatusHistoryEntry{
		ID:         e.EventID(),
		OrderID:    e.OrderID,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		Actor:      e.Actor,
		Note:       note,
		CreatedAt:  e.TransitionedAt,
	}
}
