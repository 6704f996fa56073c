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
)

// 明細を直接渡す会計（カートを使わない端末向け）
type CheckoutRequest struct {
	Lines []model.CartLine `json:"lines"`
}

// /checkout と /sales
type SaleHandler struct {
	uc  *usecase.CheckoutUsecase
	loc *time.Location
}

func NewSaleHandler(uc *usecase.CheckoutUsecase, loc *time.Location) *SaleHandler {
	return &SaleHandler{uc: uc, loc: loc}
}

func (h *SaleHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	auth := []echo.MiddlewareFunc{middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo)}

	e.POST("/checkout", h.checkout, auth...)
	e.GET("/sales", h.list, auth...)
	e.GET("/sales/:id", h.detail, auth...)
}

func (h *SaleHandler) checkout(c echo.Context) error {
	op, ok := operatorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Checkout(c.Request().Context(), req.Lines, op)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

// ?date=YYYY-MM-DD
func (h *SaleHandler) list(c echo.Context) error {
	day, err := parseDay(c, h.loc)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid date"})
	}

	out, err := h.uc.ListSales(c.Request().Context(), day)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *SaleHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.GetSale(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
