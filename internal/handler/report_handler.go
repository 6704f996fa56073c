package handler

import (
	"net/http"
	"strconv"
	"time"

	"pos/internal/config"
	"pos/internal/middleware"
	"pos/internal/repository"
	"pos/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 日次集計と返品の参照（管理者のみ）
type ReportHandler struct {
	summary *usecase.SummaryUsecase
	returns *usecase.ReturnUsecase
	loc     *time.Location
}

func NewReportHandler(summary *usecase.SummaryUsecase, returns *usecase.ReturnUsecase, loc *time.Location) *ReportHandler {
	return &ReportHandler{summary: summary, returns: returns, loc: loc}
}

func (h *ReportHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/summary/daily", h.daily)
	admin.GET("/returns", h.listReturns)
	admin.GET("/returns/:id", h.returnDetail)
}

func (h *ReportHandler) daily(c echo.Context) error {
	day, err := parseDay(c, h.loc)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid date"})
	}

	out, err := h.summary.DailySummary(c.Request().Context(), day)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReportHandler) listReturns(c echo.Context) error {
	day, err := parseDay(c, h.loc)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid date"})
	}

	out, err := h.returns.ListReturns(c.Request().Context(), day)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReportHandler) returnDetail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.returns.GetReturn(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
