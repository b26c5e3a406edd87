package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/zenheart/ordersync/internal/domain/splitting"
	"github.com/zenheart/ordersync/internal/infrastructure/persistence/models"
)

// subOrderInsertBatchSize bounds the insert statement size for orders with
// many regions.
const subOrderInsertBatchSize = 50

// GormSubOrderRepository implements splitting.SubOrderRepository using GORM
type GormSubOrderRepository struct {
	db *gorm.DB
}

// NewGormSubOrderRepository creates a new GormSubOrderRepository
func NewGormSubOrderRepository(db *gorm.DB) *GormSubOrderRepository {
	return &GormSubOrderRepository{db: db}
}

// ReplaceForOrder atomically replaces the sub-order set of one source order.
// Delete and insert run in a single transaction; a failure rolls back to the
// previous set.
func (r *GormSubOrderRepository) ReplaceForOrder(ctx context.Context, shopID string, sourceOrderID int64, subOrders []splitting.SubOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("shop_id = ? AND source_order_id = ?", shopID, sourceOrderID).
			Delete(&models.SubOrderModel{}).Error; err != nil {
			return err
		}

		if len(subOrders) == 0 {
			return nil
		}

		subOrderModels := make([]models.SubOrderModel, len(subOrders))
		for i := range subOrders {
			subOrderModels[i].FromDomain(&subOrders[i])
		}
		return tx.CreateInBatches(subOrderModels, subOrderInsertBatchSize).Error
	})
}

// FindForExport returns sub-orders matching the filter, ordered by
// order-created instant then sub-order number.
func (r *GormSubOrderRepository) FindForExport(ctx context.Context, shopID string, filter splitting.ExportFilter) ([]splitting.SubOrder, error) {
	query := r.db.WithContext(ctx).Where("shop_id = ?", shopID)

	if filter.SourceOrderID != nil {
		query = query.Where("source_order_id = ?", *filter.SourceOrderID)
	} else {
		if filter.CreatedAtMin != nil {
			query = query.Where("order_created_at >= ?", *filter.CreatedAtMin)
		}
		if filter.CreatedAtMax != nil {
			query = query.Where("order_created_at <= ?", *filter.CreatedAtMax)
		}
	}

	var subOrderModels []models.SubOrderModel
	if err := query.
		Order("order_created_at ASC, source_order_id ASC, sequence ASC").
		Find(&subOrderModels).Error; err != nil {
		return nil, err
	}

	subOrders := make([]splitting.SubOrder, len(subOrderModels))
	for i, model := range subOrderModels {
		subOrders[i] = *model.ToDomain()
	}
	return subOrders, nil
}

// Ensure GormSubOrderRepository implements the repository interface
var _ splitting.SubOrderRepository = (*GormSubOrderRepository)(nil)
