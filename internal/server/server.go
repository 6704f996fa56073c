package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pos/internal/config"
	"pos/internal/handler"
	"pos/internal/infra/logger"
	"pos/internal/infra/metrics"
	"pos/internal/middleware"
	"pos/internal/repository"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const shutdownTimeout = 10 * time.Second

// ルート登録に必要なハンドラ一式
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	AdminUser    *handler.AdminUserHandler
	Cart         *handler.CartHandler
	Sale         *handler.SaleHandler
	Customer     *handler.CustomerHandler
	Report       *handler.ReportHandler
}

func New(cfg config.Config, userRepo repository.UserRepository, m *metrics.Metrics, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger = logger.Logger()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			kv := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
			}
			if v.Status >= http.StatusInternalServerError {
				logger.Warn("request", kv...)
				return nil
			}
			logger.Info("request", kv...)
			return nil
		},
	}))
	e.Use(middleware.RequestMetrics(m))

	RegisterRoutes(e, cfg, userRepo, m, h)
	return e
}

// ctxが終わるまでサーブし、終わったら処理中のリクエストを待って止める
func Start(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("server shutting down")
	return e.Shutdown(sctx)
}
