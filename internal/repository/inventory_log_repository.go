package repository

import (
	"context"
	"time"

	"pos/internal/domain/model"
)

//在庫ログの絞り込み条件。

type InventoryLogFilter struct {
	ProductID   *int64
	ChangeType  *model.ChangeType
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// 在庫ログの追記・一覧取得の約束。
type InventoryLogRepository interface {
	//まとめて追記（全件かゼロ件）
	Append(ctx context.Context, entries []model.InventoryLog) error

	//新しい順
	List(ctx context.Context, filter InventoryLogFilter) ([]model.InventoryLog, error)

	//古い順で全件（照合用）
	ListByProductAsc(ctx context.Context, productID int64) ([]model.InventoryLog, error)
}
