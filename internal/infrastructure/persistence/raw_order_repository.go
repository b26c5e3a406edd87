package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zenheart/ordersync/internal/domain/splitting"
	"github.com/zenheart/ordersync/internal/infrastructure/persistence/models"
)

// GormRawOrderRepository implements splitting.RawOrderRepository using GORM
type GormRawOrderRepository struct {
	db *gorm.DB
}

// NewGormRawOrderRepository creates a new GormRawOrderRepository
func NewGormRawOrderRepository(db *gorm.DB) *GormRawOrderRepository {
	return &GormRawOrderRepository{db: db}
}

// Upsert stores or replaces the snapshot for (shop_id, source_order_id).
// Re-syncing the same order overwrites the payload, so the latest pull wins.
func (r *GormRawOrderRepository) Upsert(ctx context.Context, record *splitting.RawOrderRecord) error {
	model := models.RawOrderModelFromDomain(record)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "shop_id"}, {Name: "source_order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"payload", "order_created_at", "order_updated_at", "updated_at",
			}),
		}).
		Create(model).Error
}

// FindByID returns the snapshot for one source order.
func (r *GormRawOrderRepository) FindByID(ctx context.Context, shopID string, sourceOrderID int64) (*splitting.RawOrderRecord, error) {
	var model models.RawOrderModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND source_order_id = ?", shopID, sourceOrderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, splitting.ErrRawOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCreatedAtRange returns snapshots whose order-created instant falls
// within [min, max], ordered by that instant.
func (r *GormRawOrderRepository) FindByCreatedAtRange(ctx context.Context, shopID string, min, max time.Time) ([]splitting.RawOrderRecord, error) {
	var orderModels []models.RawOrderModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND order_created_at >= ? AND order_created_at <= ?", shopID, min, max).
		Order("order_created_at ASC, source_order_id ASC").
		Find(&orderModels).Error; err != nil {
		return nil, err
	}

	records := make([]splitting.RawOrderRecord, len(orderModels))
	for i, model := range orderModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// Ensure GormRawOrderRepository implements the repository interface
var _ splitting.RawOrderRepository = (*GormRawOrderRepository)(nil)
