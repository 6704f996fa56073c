package repository

import (
	"context"

	"pos/internal/domain/model"
	repo "pos/internal/repository"

	"gorm.io/gorm"
)

type inventoryLogGormRepository struct {
	db *gorm.DB
}

func NewInventoryLogGormRepository(db *gorm.DB) repo.InventoryLogRepository {
	return &inventoryLogGormRepository{db: db}
}

func (r *inventoryLogGormRepository) Append(ctx context.Context, entries []model.InventoryLog) error {
	if len(entries) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&entries).Error; err != nil {
		return err
	}
	return nil
}

func (r *inventoryLogGormRepository) List(ctx context.Context, filter repo.InventoryLogFilter) ([]model.InventoryLog, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryLog{})

	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.ChangeType != nil {
		q = q.Where("change_type = ?", *filter.ChangeType)
	}
	if filter.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		q = q.Where("created_at <= ?", *filter.CreatedTo)
	}

	//新しい順
	q = q.Order("id DESC")

	// limit/offset
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	q = q.Limit(limit).Offset(filter.Offset)

	var logs []model.InventoryLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *inventoryLogGormRepository) ListByProductAsc(ctx context.Context, productID int64) ([]model.InventoryLog, error) {
	var logs []model.InventoryLog
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
