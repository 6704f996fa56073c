package model

import "time"

// 顧客
type Customer struct {
	ID    int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name  string `gorm:"type:varchar(255);not null;index" json:"name"`
	Email string `gorm:"type:varchar(255)" json:"email"`

	//電話番号
	Phone string `gorm:"type:varchar(30)" json:"phone"`

	Address   string    `gorm:"type:varchar(255)" json:"address"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
