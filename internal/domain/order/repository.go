package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/tradecraft/backend/internal/domain/shared"
)

// Repository defines the interface for order persistence
type Repository interface {
	// FindByID finds an order by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order by its human-readable order number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// FindByUser finds orders placed by a user
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Order, error)

	// FindAll finds orders with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// Save creates or updates an order
	Save(ctx context.Context, o *Order) error

	// SaveWithLock saves with optimistic locking (version check); a stale
	// version fails with CONCURRENT_MODIFICATION
	SaveWithLock(ctx context.Context, o *Order) error

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByUser counts orders placed by a user matching the filter
	CountByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error)

	// CountByStatus counts orders in a given fulfillment status
	CountByStatus(ctx context.Context, status OrderStatus) (int64, error)

	// ExistsByOrderNumber checks if an order number is already taken
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)

	// GenerateOrderNumber generates a unique order number
	GenerateOrderNumber(ctx context.Context) (string, error)
}

// StatusHistoryRepository persists the per-transition audit trail
type StatusHistoryRepository interface {
	// Append writes one audit entry; a replayed event id is a no-op
	Append(ctx context.Context, entry *StatusHistoryEntry) error

	// ListByOrder returns an order's audit trail in transition order
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]StatusHistoryEntry, error)
}
