package repository

import (
	"context"
	"errors"

	"pos/internal/domain/model"
	repo "pos/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫の現在値とversion
func (r *InventoryGormRepository) ReadStock(ctx context.Context, productID int64) (model.StockLevel, error) {
	return r.readStock(r.db.WithContext(ctx), productID)
}

// SELECT ... FOR UPDATE
func (r *InventoryGormRepository) ReadStockForUpdate(ctx context.Context, productID int64) (model.StockLevel, error) {
	return r.readStock(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), productID)
}

func (r *InventoryGormRepository) readStock(db *gorm.DB, productID int64) (model.StockLevel, error) {
	var p model.Product
	err := db.Select("id", "name", "stock", "version").First(&p, productID).Error
	if isNotFound(err) {
		return model.StockLevel{}, repo.ErrNotFound
	}
	if err != nil {
		return model.StockLevel{}, err
	}
	return model.StockLevel{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    p.Stock,
		Version:     p.Version,
	}, nil
}

// versionが一致し在庫が足りるときだけ減らす
func (r *InventoryGormRepository) DecrementStock(ctx context.Context, productID int64, amount int64, expectedVersion int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND version = ? AND stock >= ?", productID, expectedVersion, amount).
		Updates(map[string]interface{}{
			"stock":   gorm.Expr("stock - ?", amount),
			"version": gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// versionが一致するときだけ在庫を設定
func (r *InventoryGormRepository) SetStock(ctx context.Context, productID int64, newStock int64, expectedVersion int64) (bool, error) {
	if newStock < 0 {
		return false, errors.New("stock must be >= 0")
	}
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND version = ?", productID, expectedVersion).
		Updates(map[string]interface{}{
			"stock":   newStock,
			"version": gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
