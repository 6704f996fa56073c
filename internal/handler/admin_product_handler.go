package handler

import (
	"net/http"
	"strconv"
	"time"

	"pos/internal/config"
	"pos/internal/domain/model"
	"pos/internal/middleware"
	"pos/internal/repository"
	"pos/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ProductRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Stock    int64           `json:"stock"`
	ImageURL *string         `json:"image_url"`
}

// 在庫調整の入力。change_typeはinbound/outbound/adjustment
type AdjustStockRequest struct {
	ChangeType string `json:"change_type"`
	Quantity   int64  `json:"quantity"`
	Reason     string `json:"reason"`
}

// /admin/products と /admin/inventory をまとめる
type AdminProductHandler struct {
	products  *usecase.ProductUsecase
	inventory *usecase.InventoryUsecase
	loc       *time.Location
}

// DI
func NewAdminProductHandler(products *usecase.ProductUsecase, inventory *usecase.InventoryUsecase, loc *time.Location) *AdminProductHandler {
	return &AdminProductHandler{products: products, inventory: inventory, loc: loc}
}

// adminを登録
func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin")

	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)

	admin.POST("/inventory/:product_id/adjust", h.adjustStock)
	admin.GET("/inventory/logs", h.listLogs)
	admin.GET("/inventory/:product_id/reconcile", h.reconcile)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	op, ok := operatorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	p, err := h.products.AdminCreateProduct(c.Request().Context(), op, toProductInput(req))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, p)
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	op, ok := operatorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	p, err := h.products.AdminUpdateProduct(c.Request().Context(), op, id, toProductInput(req))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	op, ok := operatorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.products.AdminDeleteProduct(c.Request().Context(), op, id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AdminProductHandler) adjustStock(c echo.Context) error {
	op, ok := operatorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}

	var req AdjustStockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	p, err := h.inventory.AdjustStock(c.Request().Context(), op, usecase.AdjustStockInput{
		ProductID: productID,
		Kind:      model.ChangeType(req.ChangeType),
		Quantity:  req.Quantity,
		Reason:    req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

// ?product_id=&change_type=&from=&to=&limit=&offset=
func (h *AdminProductHandler) listLogs(c echo.Context) error {
	in := usecase.ListLogsInput{ChangeType: c.QueryParam("change_type")}

	if v := c.QueryParam("product_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
		}
		in.ProductID = id
	}
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		in.Limit = l
	}
	if v := c.QueryParam("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
		}
		in.Offset = o
	}

	//fromは当日0時から、toは当日の終わりまで
	if v := c.QueryParam("from"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, h.location())
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
		}
		in.From = &d
	}
	if v := c.QueryParam("to"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, h.location())
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
		}
		end := d.AddDate(0, 0, 1).Add(-time.Nanosecond)
		in.To = &end
	}

	logs, err := h.inventory.ListLogs(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, logs)
}

func (h *AdminProductHandler) reconcile(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}

	out, err := h.inventory.ReconcileStock(c.Request().Context(), productID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) location() *time.Location {
	if h.loc == nil {
		return time.Local
	}
	return h.loc
}

func toProductInput(req ProductRequest) usecase.AdminProductInput {
	return usecase.AdminProductInput{
		Name:     req.Name,
		Price:    req.Price,
		Category: req.Category,
		Stock:    req.Stock,
		ImageURL: req.ImageURL,
	}
}
