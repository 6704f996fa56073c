package server

import (
	"net/http"

	"pos/internal/config"
	"pos/internal/infra/metrics"
	"pos/internal/repository"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, m *metrics.Metrics, h Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	//公開
	h.Auth.RegisterRoutes(e, cfg, userRepo)
	h.Product.RegisterRoutes(e)

	//レジ担当者
	h.Cart.RegisterRoutes(e, cfg, userRepo)
	h.Sale.RegisterRoutes(e, cfg, userRepo)
	h.Customer.RegisterRoutes(e, cfg, userRepo)

	//管理者
	h.AdminProduct.RegisterRoutes(e, cfg, userRepo)
	h.Report.RegisterRoutes(e, cfg, userRepo)
	h.AdminUser.RegisterRoutes(e)
}
