package usecase

import (
	"context"
	"time"

	"pos/internal/domain/model"
)

// 時刻（テストで固定する）
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// 商品・在庫が変わったことを知らせる先（catalog.Notifier）
type CatalogNotifier interface {
	Publish(ctx context.Context, reason string, productIDs []int64)
}

// 計測（prometheus実装はinfra/metrics）
type Metrics interface {
	ObserveCheckout(outcome string, elapsed time.Duration)
	ObserveAdjustment(kind model.ChangeType, outcome string)
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, string, []int64) {}

type nopMetrics struct{}

func (nopMetrics) ObserveCheckout(string, time.Duration)      {}
func (nopMetrics) ObserveAdjustment(model.ChangeType, string) {}

// レジ操作者（JWTから復元）
type Operator struct {
	ID   int64
	Name string
	Role model.Role
}

// 会計・調整の結果ラベル
func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	if kind, ok := KindOf(err); ok {
		return string(kind)
	}
	return "error"
}
