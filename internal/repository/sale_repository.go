package repository

import (
	"context"
	"time"

	"pos/internal/domain/model"
)

// 売上台帳（追記のみ）
type SaleRepository interface {
	// 売上と明細を1回で保存。IDが埋まった売上を返す。
	InsertSale(ctx context.Context, sale model.Sale, lines []model.SaleLine) (model.Sale, []model.SaleLine, error)

	FindByID(ctx context.Context, saleID int64) (model.Sale, error)
	ListLines(ctx context.Context, saleID int64) ([]model.SaleLine, error)

	// 期間内の売上（新しい順）
	ListByRange(ctx context.Context, from, to time.Time) ([]model.Sale, error)
	ListLinesBySaleIDs(ctx context.Context, saleIDs []int64) ([]model.SaleLine, error)
}
