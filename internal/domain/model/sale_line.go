package model

import (
	"github.com/shopspring/decimal"
)

// 売上明細。商品名と単価は販売時点のスナップショット。
type SaleLine struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SaleID      int64           `gorm:"not null;index" json:"sale_id"`
	ProductID   int64           `gorm:"not null;index" json:"product_id"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	PriceAtSale decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price_at_sale"`
	LineTotal   decimal.Decimal `gorm:"column:total_item_price;type:numeric(12,2);not null" json:"total_item_price"`
}

func (SaleLine) TableName() string { return "sale_items" }
