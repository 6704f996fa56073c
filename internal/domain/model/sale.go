package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 売上。コミット時に1回だけ作られ、以後は変更しない。
type Sale struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	SubtotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax_amount"`
	OperatorID     int64           `gorm:"not null;index" json:"operator_id"`
	OperatorName   string          `gorm:"column:sold_by;type:varchar(255);not null" json:"sold_by"`
	CreatedAt      time.Time       `gorm:"not null;index" json:"created_at"`
}
