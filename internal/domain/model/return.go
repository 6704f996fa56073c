package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 返品（参照のみ）
type Return struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SaleID            *int64          `gorm:"index" json:"sale_id,omitempty"`
	CustomerID        *int64          `gorm:"index" json:"customer_id,omitempty"`
	Customer          *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Reason            string          `gorm:"type:varchar(255);not null" json:"reason"`
	TotalRefundAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_refund_amount"`
	CreatedAt         time.Time       `gorm:"not null;index" json:"created_at"`
}

type ReturnItem struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ReturnID        int64           `gorm:"not null;index" json:"return_id"`
	ProductID       int64           `gorm:"not null" json:"product_id"`
	ProductName     string          `gorm:"type:varchar(255);not null" json:"product_name"`
	Quantity        int64           `gorm:"not null" json:"quantity"`
	TotalItemRefund decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_item_refund"`
}
