package repository

import (
	"context"
	"time"

	"pos/internal/domain/model"
)

// 返品の参照
type ReturnRepository interface {
	ListByRange(ctx context.Context, from, to time.Time) ([]model.Return, error)
	FindByID(ctx context.Context, returnID int64) (model.Return, error)
	ListItems(ctx context.Context, returnID int64) ([]model.ReturnItem, error)
}
