package repository

import (
	"context"
	"errors"

	"pos/internal/domain/model"
	repo "pos/internal/repository"

	"gorm.io/gorm"
)

type customerGormRepository struct {
	db *gorm.DB
}

// CustomerRepositoryのGORM実装
func NewCustomerGormRepository(db *gorm.DB) repo.CustomerRepository {
	return &customerGormRepository{db: db}
}

func (r *customerGormRepository) List(ctx context.Context) ([]model.Customer, error) {
	var list []model.Customer
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Order("id ASC").
		Find(&list).Error
	return list, err
}

func (r *customerGormRepository) FindByID(ctx context.Context, customerID int64) (model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).First(&c, "id = ?", customerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Customer{}, repo.ErrNotFound
	}
	return c, err
}

func (r *customerGormRepository) Create(ctx context.Context, customer model.Customer) (model.Customer, error) {
	if err := r.db.WithContext(ctx).Create(&customer).Error; err != nil {
		return model.Customer{}, err
	}
	return customer, nil
}

// name/email/phone/addressだけ更新
func (r *customerGormRepository) Update(ctx context.Context, customer model.Customer) (model.Customer, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Customer{}).
		Where("id = ?", customer.ID).
		Updates(map[string]any{
			"name":       customer.Name,
			"email":      customer.Email,
			"phone":      customer.Phone,
			"address":    customer.Address,
			"updated_at": customer.UpdatedAt,
		})
	if res.Error != nil {
		return model.Customer{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.Customer{}, repo.ErrNotFound
	}
	return r.FindByID(ctx, customer.ID)
}

func (r *customerGormRepository) Delete(ctx context.Context, customerID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Customer{}, "id = ?", customerID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
