package order

import (
	"context"
	"fmt"

	"github.com/tradecraft/backend/internal/domain/order"
	"github.com/tradecraft/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StatusHistoryRecorder persists one audit row per fulfillment transition.
// It subscribes to the event bus directly: the entry id is the event id, so
// the append is idempotent at the table level and needs no wrapper.
type StatusHistoryRecorder struct {
	historyRepo order.StatusHistoryRepository
	logger      *zap.Logger
}

// NewStatusHistoryRecorder creates a new StatusHistoryRecorder
func NewStatusHistoryRecorder(historyRepo order.StatusHistoryRepository, logger *zap.Logger) *StatusHistoryRecorder {
	return &StatusHistoryRecorder{
		historyRepo: historyRepo,
		logger:      logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (r *StatusHistoryRecorder) EventTypes() []string {
	return []string{order.EventTypeOrderTransitioned}
}

// Handle writes the audit entry for a fulfillment transition
func (r *StatusHistoryRecorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*order.OrderTransitionedEvent)
	if !ok {
		r.logger.Error("unexpected event type",
			zap.String("event_type", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	entry := order.NewStatusHistoryEntry(e)
	if err := r.historyRepo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}

	r.logger.Debug("status history recorded",
		zap.String("order_number", e.OrderNumber),
		zap.String("from", e.FromStatus.String()),
		zap.String("to", e.ToStatus.String()),
		zap.String("actor", string(e.Actor)),
	)

	return nil
}
