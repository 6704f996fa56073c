package repository

import (
	"context"
	"errors"
	"time"

	"pos/internal/domain/model"
	repo "pos/internal/repository"

	"gorm.io/gorm"
)

type SaleGormRepository struct {
	db *gorm.DB
}

func NewSaleGormRepository(db *gorm.DB) *SaleGormRepository {
	return &SaleGormRepository{db: db}
}

// 売上と明細。Tx外で呼ばれても1つのTxで保存する。
func (r *SaleGormRepository) InsertSale(ctx context.Context, sale model.Sale, lines []model.SaleLine) (model.Sale, []model.SaleLine, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		for i := range lines {
			lines[i].SaleID = sale.ID
		}
		return tx.Create(&lines).Error
	})
	if err != nil {
		return model.Sale{}, nil, err
	}
	return sale, lines, nil
}

func (r *SaleGormRepository) FindByID(ctx context.Context, saleID int64) (model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Where("id = ?", saleID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Sale{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Sale{}, err
	}
	return s, nil
}

func (r *SaleGormRepository) ListLines(ctx context.Context, saleID int64) ([]model.SaleLine, error) {
	var lines []model.SaleLine
	err := r.db.WithContext(ctx).Where("sale_id = ?", saleID).Order("id asc").Find(&lines).Error
	if err != nil {
		return []model.SaleLine{}, err
	}
	return lines, nil
}

func (r *SaleGormRepository) ListByRange(ctx context.Context, from, to time.Time) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Order("created_at desc").Order("id desc").
		Find(&sales).Error
	if err != nil {
		return []model.Sale{}, err
	}
	return sales, nil
}

func (r *SaleGormRepository) ListLinesBySaleIDs(ctx context.Context, saleIDs []int64) ([]model.SaleLine, error) {
	if len(saleIDs) == 0 {
		return []model.SaleLine{}, nil
	}
	var lines []model.SaleLine
	err := r.db.WithContext(ctx).Where("sale_id IN ?", saleIDs).Order("id asc").Find(&lines).Error
	if err != nil {
		return []model.SaleLine{}, err
	}
	return lines, nil
}
