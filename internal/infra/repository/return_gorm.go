package repository

import (
	"context"
	"errors"
	"time"

	"pos/internal/domain/model"
	repo "pos/internal/repository"

	"gorm.io/gorm"
)

type ReturnGormRepository struct {
	db *gorm.DB
}

func NewReturnGormRepository(db *gorm.DB) *ReturnGormRepository {
	return &ReturnGormRepository{db: db}
}

// 顧客名付き、新しい順
func (r *ReturnGormRepository) ListByRange(ctx context.Context, from, to time.Time) ([]model.Return, error) {
	var list []model.Return
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("created_at >= ? AND created_at <= ?", from, to).
		Order("created_at desc").
		Find(&list).Error
	if err != nil {
		return []model.Return{}, err
	}
	return list, nil
}

func (r *ReturnGormRepository) FindByID(ctx context.Context, returnID int64) (model.Return, error) {
	var ret model.Return
	err := r.db.WithContext(ctx).Preload("Customer").First(&ret, returnID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Return{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Return{}, err
	}
	return ret, nil
}

func (r *ReturnGormRepository) ListItems(ctx context.Context, returnID int64) ([]model.ReturnItem, error) {
	var items []model.ReturnItem
	err := r.db.WithContext(ctx).Where("return_id = ?", returnID).Order("id asc").Find(&items).Error
	if err != nil {
		return []model.ReturnItem{}, err
	}
	return items, nil
}
