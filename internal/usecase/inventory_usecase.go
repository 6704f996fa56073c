package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"pos/internal/domain/model"
	"pos/internal/infra/logger"
	repo "pos/internal/repository"
)

// 手動の在庫調整と在庫ログの参照
type InventoryUsecase struct {
	tx       repo.TransactionManager
	notifier CatalogNotifier
	metrics  Metrics
	clock    Clock
	opts     CheckoutOptions
}

func NewInventoryUsecase(
	tx repo.TransactionManager,
	notifier CatalogNotifier,
	metrics Metrics,
	clock Clock,
	opts CheckoutOptions,
) *InventoryUsecase {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &InventoryUsecase{
		tx:       tx,
		notifier: notifier,
		metrics:  metrics,
		clock:    clock,
		opts:     opts.withDefaults(),
	}
}

type AdjustStockInput struct {
	ProductID int64
	Kind      model.ChangeType
	Quantity  int64
	Reason    string
}

func (u *InventoryUsecase) AdjustStock(ctx context.Context, op Operator, in AdjustStockInput) (model.Product, error) {
	p, err := u.adjust(ctx, op, in)
	u.metrics.ObserveAdjustment(in.Kind, outcomeOf(err))
	if err != nil {
		if errors.Is(err, ErrPersistenceFailure) {
			logger.Error("stock adjustment failed", err, "product_id", in.ProductID, "kind", string(in.Kind))
		}
		return model.Product{}, err
	}
	logger.Info("stock adjusted", "product_id", p.ID, "kind", string(in.Kind), "quantity", in.Quantity, "stock", p.Stock, "operator_id", op.ID)
	return p, nil
}

func (u *InventoryUsecase) adjust(ctx context.Context, op Operator, in AdjustStockInput) (model.Product, error) {
	if op.ID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	//ストアに触る前に検証
	if !in.Kind.Valid() {
		return model.Product{}, &AdjustError{Kind: KindInvalidChangeType, ProductID: in.ProductID}
	}
	switch in.Kind {
	case model.ChangeInbound, model.ChangeOutbound:
		if in.Quantity <= 0 {
			return model.Product{}, &AdjustError{Kind: KindInvalidQuantity, ProductID: in.ProductID, Requested: in.Quantity}
		}
	case model.ChangeAdjustment:
		if in.Quantity < 0 {
			return model.Product{}, &AdjustError{Kind: KindNegativeStock, ProductID: in.ProductID, Requested: in.Quantity}
		}
	}
	if in.ProductID <= 0 {
		return model.Product{}, &AdjustError{Kind: KindProductNotFound, ProductID: in.ProductID}
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "manual " + string(in.Kind)
	}
	if len(reason) > 255 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "reason too long")
	}

	tctx, cancel := context.WithTimeout(ctx, u.opts.StoreTimeout)
	defer cancel()

	var out model.Product
	err := u.tx.WithinTx(tctx, func(r repo.TxRepos) error {
		var lvl model.StockLevel
		var next int64
		for attempt := 1; ; attempt++ {
			var err error
			lvl, err = r.Inventory().ReadStockForUpdate(tctx, in.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return &AdjustError{Kind: KindProductNotFound, ProductID: in.ProductID}
			}
			if err != nil {
				return err
			}

			next = applyChange(lvl.Quantity, in.Kind, in.Quantity)
			if next < 0 {
				return &AdjustError{Kind: KindNegativeStock, ProductID: in.ProductID, Current: lvl.Quantity, Requested: in.Quantity}
			}

			ok, err := r.Inventory().SetStock(tctx, in.ProductID, next, lvl.Version)
			if err != nil {
				return err
			}
			if ok {
				break
			}
			if attempt >= u.opts.CASAttempts {
				return &AdjustError{Kind: KindConflict, ProductID: in.ProductID, Current: lvl.Quantity, Requested: in.Quantity}
			}
		}

		change := in.Quantity
		if in.Kind == model.ChangeAdjustment {
			change = next - lvl.Quantity
		}
		entry := model.InventoryLog{
			ProductID:      in.ProductID,
			ProductName:    lvl.ProductName,
			ChangeType:     in.Kind,
			QuantityChange: change,
			PreviousStock:  lvl.Quantity,
			NewStock:       next,
			Reason:         reason,
			OperatorID:     op.ID,
			CreatedAt:      u.clock.Now(),
		}
		if err := r.InventoryLogs().Append(tctx, []model.InventoryLog{entry}); err != nil {
			return err
		}

		p, err := r.Products().FindByID(tctx, in.ProductID)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		var ae *AdjustError
		if errors.As(err, &ae) {
			return model.Product{}, ae
		}
		if errors.Is(err, repo.ErrTxConflict) {
			return model.Product{}, &AdjustError{Kind: KindConflict, ProductID: in.ProductID, Err: err}
		}
		return model.Product{}, &AdjustError{Kind: KindPersistenceFailure, ProductID: in.ProductID, Err: err}
	}

	u.notifier.Publish(ctx, "adjustment", []int64{in.ProductID})
	return out, nil
}

// 調整後の在庫
func applyChange(current int64, kind model.ChangeType, quantity int64) int64 {
	switch kind {
	case model.ChangeInbound:
		return current + quantity
	case model.ChangeOutbound:
		return current - quantity
	default:
		return quantity
	}
}

type ListLogsInput struct {
	ProductID  int64
	ChangeType string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

func (u *InventoryUsecase) ListLogs(ctx context.Context, in ListLogsInput) ([]model.InventoryLog, error) {
	if in.Limit < 0 || in.Limit > 200 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}
	filter := repo.InventoryLogFilter{
		CreatedFrom: in.From,
		CreatedTo:   in.To,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}
	if in.ProductID > 0 {
		id := in.ProductID
		filter.ProductID = &id
	}
	if in.ChangeType != "" {
		ct := model.ChangeType(in.ChangeType)
		if !ct.Valid() {
			return nil, &AdjustError{Kind: KindInvalidChangeType}
		}
		filter.ChangeType = &ct
	}

	var out []model.InventoryLog
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		logs, err := r.InventoryLogs().List(ctx, filter)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = logs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// 在庫ログと現在庫の突き合わせ結果
type ReconcileOutput struct {
	ProductID    int64  `json:"product_id"`
	CurrentStock int64  `json:"current_stock"`
	LogCount     int    `json:"log_count"`
	LoggedStock  int64  `json:"logged_stock"`
	Consistent   bool   `json:"consistent"`
	BrokenAtLog  *int64 `json:"broken_at_log_id,omitempty"`
}

// ログを古い順にたどり、previous→newが途切れず現在庫で終わるか確認する
func (u *InventoryUsecase) ReconcileStock(ctx context.Context, productID int64) (ReconcileOutput, error) {
	if productID <= 0 {
		return ReconcileOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	var out ReconcileOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		lvl, err := r.Inventory().ReadStock(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		logs, err := r.InventoryLogs().ListByProductAsc(ctx, productID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = reconcile(productID, lvl.Quantity, logs)
		return nil
	})
	if err != nil {
		return ReconcileOutput{}, err
	}
	if !out.Consistent {
		logger.Warn("inventory log chain broken", "product_id", productID, "current_stock", out.CurrentStock, "logged_stock", out.LoggedStock)
	}
	return out, nil
}

func reconcile(productID, current int64, logs []model.InventoryLog) ReconcileOutput {
	out := ReconcileOutput{ProductID: productID, CurrentStock: current, LogCount: len(logs), Consistent: true}
	for i, l := range logs {
		if i > 0 && l.PreviousStock != logs[i-1].NewStock {
			id := l.ID
			out.BrokenAtLog = &id
			out.Consistent = false
			break
		}
	}
	if len(logs) > 0 {
		out.LoggedStock = logs[len(logs)-1].NewStock
	}
	if out.LoggedStock != current {
		out.Consistent = false
	}
	return out
}
