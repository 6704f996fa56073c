package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
)

type RequestObserver interface {
	ObserveRequest(handler string, status int, elapsed time.Duration)
}

// ルート（/sales/:idなど）単位で件数とレイテンシを記録する
func RequestMetrics(obs RequestObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				//ステータスを確定させる
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			obs.ObserveRequest(path, c.Response().Status, time.Since(start))
			return nil
		}
	}
}
