package repository

import (
	"context"

	"pos/internal/domain/model"
)

// 顧客を保存・取得する窓口
type CustomerRepository interface {
	//名前順
	List(ctx context.Context) ([]model.Customer, error)
	FindByID(ctx context.Context, customerID int64) (model.Customer, error)
	Create(ctx context.Context, customer model.Customer) (model.Customer, error)
	Update(ctx context.Context, customer model.Customer) (model.Customer, error)
	Delete(ctx context.Context, customerID int64) error
}
