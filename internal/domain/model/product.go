package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 商品。在庫(stock)は負にならない。
// Versionは在庫を変更するたびに+1する（楽観ロック用）。
type Product struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null;index" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Category  string          `gorm:"type:varchar(100);not null;default:'';index" json:"category"`
	Stock     int64           `gorm:"not null;check:stock >= 0" json:"stock"`
	ImageURL  *string         `gorm:"type:text" json:"image_url,omitempty"`
	Version   int64           `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}
