package repository

import (
	"context"

	"pos/internal/domain/model"
)

// 在庫(products.stock)の読み書き。書き込みは必ずversion比較付き。
type InventoryRepository interface {
	// 在庫の現在値とversion
	ReadStock(ctx context.Context, productID int64) (model.StockLevel, error)

	// 行ロック付きで読む（Tx内専用）
	ReadStockForUpdate(ctx context.Context, productID int64) (model.StockLevel, error)

	// versionが一致し在庫が足りるときだけ減算。falseは競合。
	DecrementStock(ctx context.Context, productID int64, amount int64, expectedVersion int64) (bool, error)

	// versionが一致するときだけ在庫を設定。falseは競合。
	SetStock(ctx context.Context, productID int64, newStock int64, expectedVersion int64) (bool, error)
}
