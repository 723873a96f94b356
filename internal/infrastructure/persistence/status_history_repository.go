package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradecraft/backend/internal/domain/order"
)

// GormStatusHistoryRepository implements order.StatusHistoryRepository using GORM
type GormStatusHistoryRepository struct {
	db *gorm.DB
}

// NewGormStatusHistoryRepository creates a new GormStatusHistoryRepository
func NewGormStatusHistoryRepository(db *gorm.DB) *GormStatusHistoryRepository {
	return &GormStatusHistoryRepository{db: db}
}

// Append inserts one audit entry. The primary key is the lifecycle event id,
// so a redelivered event hits the conflict clause and writes nothing.
func (r *GormStatusHistoryRepository) Append(ctx context.Context, entry *order.StatusHistoryEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry).Error
}

// ListByOrder returns the audit trail for an order, oldest transition first
func (r *GormStatusHistoryRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]order.StatusHistoryEntry, error) {
	var entries []order.StatusHistoryEntry
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Ensure GormStatusHistoryRepository implements order.StatusHistoryRepository
var _ order.StatusHistoryRepository = (*GormStatusHistoryRepository)(nil)
