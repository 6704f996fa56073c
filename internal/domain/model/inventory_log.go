package model

import "time"

// 在庫変動の種類
type ChangeType string

const (
	//入荷
	ChangeInbound ChangeType = "inbound"
	//出荷・販売・ロス
	ChangeOutbound ChangeType = "outbound"
	//棚卸などの絶対値設定
	ChangeAdjustment ChangeType = "adjustment"
)

func (t ChangeType) Valid() bool {
	switch t {
	case ChangeInbound, ChangeOutbound, ChangeAdjustment:
		return true
	}
	return false
}

// 在庫ログ（追記のみ）。
// 在庫が変わるたびに必ず1件。NewStockは変更直後の在庫と一致する。
type InventoryLog struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64      `gorm:"not null;index" json:"product_id"`
	ProductName string     `gorm:"type:varchar(255);not null" json:"product_name"`
	ChangeType  ChangeType `gorm:"type:varchar(20);not null;index" json:"change_type"`

	//inbound/outboundは数量、adjustmentは差分（符号付き）
	QuantityChange int64 `gorm:"not null" json:"quantity_change"`

	PreviousStock int64  `gorm:"not null" json:"previous_stock"`
	NewStock      int64  `gorm:"not null" json:"new_stock"`
	Reason        string `gorm:"type:varchar(255);not null" json:"reason"`

	//販売由来のときだけ
	SaleID     *int64    `gorm:"index" json:"sale_id,omitempty"`
	OperatorID int64     `gorm:"not null;index" json:"operator_id"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
}
