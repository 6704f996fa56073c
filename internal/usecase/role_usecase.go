package usecase

import (
	"context"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"pos/internal/domain/model"
	repo "pos/internal/repository"
)

var roleNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,49}$`)

type RoleUsecase struct {
	tx repo.TransactionManager
}

func NewRoleUsecase(tx repo.TransactionManager) *RoleUsecase {
	return &RoleUsecase{tx: tx}
}

type RolePermissionsOutput struct {
	Role          string  `json:"role"`
	PermissionIDs []int64 `json:"permission_ids"`
}

type RolesOutput struct {
	Permissions []model.Permission      `json:"permissions"`
	Roles       []RolePermissionsOutput `json:"roles"`
}

func (u *RoleUsecase) ListRoles(ctx context.Context) (RolesOutput, error) {
	var out RolesOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		perms, err := r.Roles().ListPermissions(ctx)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		mapping, err := r.Roles().ListRolePermissions(ctx)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		byRole := map[model.Role][]int64{
			model.RoleAdmin:   {},
			model.RoleCashier: {},
		}
		for _, rp := range mapping {
			byRole[rp.RoleName] = append(byRole[rp.RoleName], rp.PermissionID)
		}
		out.Permissions = perms
		if out.Permissions == nil {
			out.Permissions = []model.Permission{}
		}
		for role, ids := range byRole {
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			out.Roles = append(out.Roles, RolePermissionsOutput{Role: string(role), PermissionIDs: ids})
		}
		sort.Slice(out.Roles, func(i, j int) bool { return out.Roles[i].Role < out.Roles[j].Role })
		return nil
	})
	if err != nil {
		return RolesOutput{}, err
	}
	return out, nil
}

// ロールの権限をまとめて入れ替える
func (u *RoleUsecase) SetRolePermissions(ctx context.Context, role string, permissionIDs []int64) error {
	name, err := parseRoleName(role)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(permissionIDs))
	seen := map[int64]bool{}
	for _, id := range permissionIDs {
		if id <= 0 {
			return NewHTTPError(http.StatusBadRequest, "invalid permission id")
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Roles().ReplaceRolePermissions(ctx, name, ids); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

// 権限を外し、所属ユーザーをcashierへ付け替える（組み込みロールは消せない）
func (u *RoleUsecase) DeleteRole(ctx context.Context, role string) (int64, error) {
	name, err := parseRoleName(role)
	if err != nil {
		return 0, err
	}
	if name == model.RoleAdmin || name == model.RoleCashier {
		return 0, NewHTTPError(http.StatusBadRequest, "built-in role cannot be deleted")
	}

	var moved int64
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Roles().DeleteRolePermissions(ctx, name); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		n, err := r.Users().ReassignRole(ctx, name, model.RoleCashier)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		moved = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

func parseRoleName(role string) (model.Role, error) {
	role = strings.TrimSpace(role)
	if !roleNamePattern.MatchString(role) {
		return "", NewHTTPError(http.StatusBadRequest, "invalid role")
	}
	return model.Role(role), nil
}
