package handler

import (
	"net/http"
	"strconv"

	"pos/internal/config"
	"pos/internal/middleware"
	"pos/internal/repository"
	"pos/internal/usecase"

	"github.com/labstack/echo/v4"
)

type RolePermissionsRequest struct {
	PermissionIDs []int64 `json:"permission_ids"`
}

type DeleteRoleResponse struct {
	Role          string `json:"role"`
	ReassignedTo  string `json:"reassigned_to"`
	ReassignedNum int64  `json:"reassigned_users"`
}

// /admin/users と /admin/roles
type AdminUserHandler struct {
	cfg      config.Config
	userRepo repository.UserRepository
	uc       *usecase.AuthUsecase
	roles    *usecase.RoleUsecase
}

func NewAdminUserHandler(cfg config.Config, userRepo repository.UserRepository, uc *usecase.AuthUsecase, roles *usecase.RoleUsecase) *AdminUserHandler {
	return &AdminUserHandler{cfg: cfg, userRepo: userRepo, uc: uc, roles: roles}
}

func (h *AdminUserHandler) RegisterRoutes(e *echo.Echo) {
	// /admin 配下は全部「JWT必須 + token_version一致 + ADMIN限定」
	admin := e.Group(
		"/admin",
		middleware.AuthJWT(h.cfg),
		middleware.TokenVersionGuard(h.userRepo),
		middleware.AdminRoleGuard(),
	)

	admin.GET("/users", h.ListUsers)
	admin.POST("/users", h.CreateUser)
	admin.PUT("/users/:id", h.UpdateUser)
	admin.POST("/users/:id/force-logout", h.ForceLogout)

	admin.GET("/roles", h.ListRoles)
	admin.PUT("/roles/:role/permissions", h.SetRolePermissions)
	admin.DELETE("/roles/:role", h.DeleteRole)
}

func (h *AdminUserHandler) ListUsers(c echo.Context) error {
	out, err := h.uc.ListUsers(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) CreateUser(c echo.Context) error {
	var req usecase.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CreateUser(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminUserHandler) UpdateUser(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
	}

	var req usecase.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateUser(c.Request().Context(), userID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) ForceLogout(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
	}

	res, err := h.uc.ForceLogout(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *AdminUserHandler) ListRoles(c echo.Context) error {
	out, err := h.roles.ListRoles(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 権限は丸ごと入れ替え
func (h *AdminUserHandler) SetRolePermissions(c echo.Context) error {
	var req RolePermissionsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.roles.SetRolePermissions(c.Request().Context(), c.Param("role"), req.PermissionIDs); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

// 所属ユーザーはcashierへ付け替え
func (h *AdminUserHandler) DeleteRole(c echo.Context) error {
	role := c.Param("role")
	moved, err := h.roles.DeleteRole(c.Request().Context(), role)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, DeleteRoleResponse{Role: role, ReassignedTo: "cashier", ReassignedNum: moved})
}
