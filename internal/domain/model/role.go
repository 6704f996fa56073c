package model

// 権限マスタ
type Permission struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:varchar(255)" json:"description"`
}

// ロールと権限の対応
type RolePermission struct {
	RoleName     Role  `gorm:"type:varchar(50);primaryKey" json:"role_name"`
	PermissionID int64 `gorm:"primaryKey" json:"permission_id"`
}
