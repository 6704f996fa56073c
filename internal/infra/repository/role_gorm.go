package repository

import (
	"context"

	"pos/internal/domain/model"

	"gorm.io/gorm"
)

type RoleGormRepository struct {
	db *gorm.DB
}

func NewRoleGormRepository(db *gorm.DB) *RoleGormRepository {
	return &RoleGormRepository{db: db}
}

func (r *RoleGormRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var list []model.Permission
	if err := r.db.WithContext(ctx).Order("name asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *RoleGormRepository) ListRolePermissions(ctx context.Context) ([]model.RolePermission, error) {
	var list []model.RolePermission
	if err := r.db.WithContext(ctx).Order("role_name asc").Order("permission_id asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Tx内で呼ぶ前提（delete + insert）
func (r *RoleGormRepository) ReplaceRolePermissions(ctx context.Context, role model.Role, permissionIDs []int64) error {
	if err := r.DeleteRolePermissions(ctx, role); err != nil {
		return err
	}
	if len(permissionIDs) == 0 {
		return nil
	}
	rows := make([]model.RolePermission, 0, len(permissionIDs))
	for _, id := range permissionIDs {
		rows = append(rows, model.RolePermission{RoleName: role, PermissionID: id})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *RoleGormRepository) DeleteRolePermissions(ctx context.Context, role model.Role) error {
	return r.db.WithContext(ctx).Where("role_name = ?", role).Delete(&model.RolePermission{}).Error
}
