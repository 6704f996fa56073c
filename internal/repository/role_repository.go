package repository

import (
	"context"

	"pos/internal/domain/model"
)

type RoleRepository interface {
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	ListRolePermissions(ctx context.Context) ([]model.RolePermission, error)

	//既存の対応を消して入れ直す
	ReplaceRolePermissions(ctx context.Context, role model.Role, permissionIDs []int64) error
	DeleteRolePermissions(ctx context.Context, role model.Role) error
}
