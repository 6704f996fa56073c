package usecase

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"pos/internal/domain/model"
	"pos/internal/infra/logger"
	repo "pos/internal/repository"

	"github.com/shopspring/decimal"
)

// ストア呼び出しのタイムアウトとCAS再試行回数
type CheckoutOptions struct {
	StoreTimeout time.Duration
	CASAttempts  int
}

func (o CheckoutOptions) withDefaults() CheckoutOptions {
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = 5 * time.Second
	}
	if o.CASAttempts < 1 {
		o.CASAttempts = 1
	}
	return o
}

// 会計（検証→確定の2段階）
type CheckoutUsecase struct {
	tx        repo.TransactionManager
	inventory repo.InventoryRepository
	notifier  CatalogNotifier
	metrics   Metrics
	clock     Clock
	opts      CheckoutOptions
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	inventory repo.InventoryRepository,
	notifier CatalogNotifier,
	metrics Metrics,
	clock Clock,
	opts CheckoutOptions,
) *CheckoutUsecase {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &CheckoutUsecase{
		tx:        tx,
		inventory: inventory,
		notifier:  notifier,
		metrics:   metrics,
		clock:     clock,
		opts:      opts.withDefaults(),
	}
}

type SaleLineOutput struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	PriceAtSale decimal.Decimal `json:"price_at_sale"`
	LineTotal   decimal.Decimal `json:"total_item_price"`
}

type SaleOutput struct {
	ID             int64            `json:"id"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
	SubtotalAmount decimal.Decimal  `json:"subtotal_amount"`
	TaxAmount      decimal.Decimal  `json:"tax_amount"`
	OperatorID     int64            `json:"operator_id"`
	SoldBy         string           `json:"sold_by"`
	CreatedAt      time.Time        `json:"created_at"`
	Lines          []SaleLineOutput `json:"lines"`
}

// 商品ごとの合計数量
type productDemand struct {
	ProductID int64
	Quantity  int64
}

func (u *CheckoutUsecase) Checkout(ctx context.Context, cart []model.CartLine, op Operator) (SaleOutput, error) {
	start := time.Now()
	out, err := u.checkout(ctx, cart, op)
	outcome := outcomeOf(err)
	u.metrics.ObserveCheckout(outcome, time.Since(start))

	switch {
	case err == nil:
		logger.Info("checkout committed", "sale_id", out.ID, "operator_id", op.ID, "total", out.TotalAmount.String(), "lines", len(out.Lines))
	case errors.Is(err, ErrPersistenceFailure):
		logger.Error("checkout failed", err, "operator_id", op.ID)
	default:
		logger.Warn("checkout rejected", "operator_id", op.ID, "kind", outcome, "reason", err.Error())
	}
	return out, err
}

func (u *CheckoutUsecase) checkout(ctx context.Context, cart []model.CartLine, op Operator) (SaleOutput, error) {
	//空カートはストアにも認証にも触れずに返す
	if len(cart) == 0 {
		return SaleOutput{}, &CheckoutError{Kind: KindEmptyCart}
	}
	if op.ID <= 0 {
		return SaleOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	demands, err := aggregateDemand(cart)
	if err != nil {
		return SaleOutput{}, err
	}

	//検証フェーズ（Tx外・1件ずつタイムアウト）
	seen := make(map[int64]model.StockLevel, len(demands))
	for _, d := range demands {
		lvl, err := u.readStock(ctx, d.ProductID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return SaleOutput{}, &CheckoutError{Kind: KindProductNotFound, ProductID: d.ProductID, Requested: d.Quantity}
			}
			if ctx.Err() != nil {
				return SaleOutput{}, &CheckoutError{Kind: KindCanceled, Err: ctx.Err()}
			}
			return SaleOutput{}, &CheckoutError{Kind: KindPersistenceFailure, Err: err}
		}
		if !lvl.Covers(d.Quantity) {
			return SaleOutput{}, &CheckoutError{
				Kind:      KindInsufficientStock,
				ProductID: d.ProductID,
				Requested: d.Quantity,
				Available: lvl.Quantity,
			}
		}
		seen[d.ProductID] = lvl
	}

	//ここまでならキャンセル可能
	if err := ctx.Err(); err != nil {
		return SaleOutput{}, &CheckoutError{Kind: KindCanceled, Err: err}
	}

	//確定フェーズは呼び出し元のキャンセルから切り離す
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.opts.StoreTimeout)
	defer cancel()

	sale, lines := buildSale(cart, seen, op, u.clock.Now())

	//ロック順を揃える
	ordered := make([]productDemand, len(demands))
	copy(ordered, demands)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ProductID < ordered[j].ProductID })

	err = u.tx.WithinTx(commitCtx, func(r repo.TxRepos) error {
		savedSale, savedLines, err := r.Sales().InsertSale(commitCtx, sale, lines)
		if err != nil {
			return err
		}

		saleID := savedSale.ID
		reason := "sale:" + strconv.FormatInt(saleID, 10)
		entries := make([]model.InventoryLog, 0, len(ordered))
		for _, d := range ordered {
			before, err := u.decrement(commitCtx, r.Inventory(), d, seen[d.ProductID])
			if err != nil {
				return err
			}
			entries = append(entries, model.InventoryLog{
				ProductID:      d.ProductID,
				ProductName:    seen[d.ProductID].ProductName,
				ChangeType:     model.ChangeOutbound,
				QuantityChange: d.Quantity,
				PreviousStock:  before.Quantity,
				NewStock:       before.Quantity - d.Quantity,
				Reason:         reason,
				SaleID:         &saleID,
				OperatorID:     op.ID,
				CreatedAt:      savedSale.CreatedAt,
			})
		}
		if err := r.InventoryLogs().Append(commitCtx, entries); err != nil {
			return err
		}

		sale, lines = savedSale, savedLines
		return nil
	})
	if err != nil {
		return SaleOutput{}, classifyCommitError(err)
	}

	ids := make([]int64, 0, len(ordered))
	for _, d := range ordered {
		ids = append(ids, d.ProductID)
	}
	u.notifier.Publish(ctx, "sale", ids)

	return toSaleOutput(sale, lines), nil
}

func (u *CheckoutUsecase) readStock(ctx context.Context, productID int64) (model.StockLevel, error) {
	rctx, cancel := context.WithTimeout(ctx, u.opts.StoreTimeout)
	defer cancel()
	return u.inventory.ReadStock(rctx, productID)
}

// version比較で減算。外れたら行ロックで読み直して、足りる間だけ再試行。
// 戻り値は減算直前の在庫。
func (u *CheckoutUsecase) decrement(ctx context.Context, inv repo.InventoryRepository, d productDemand, lvl model.StockLevel) (model.StockLevel, error) {
	for attempt := 1; ; attempt++ {
		ok, err := inv.DecrementStock(ctx, d.ProductID, d.Quantity, lvl.Version)
		if err != nil {
			return model.StockLevel{}, err
		}
		if ok {
			return lvl, nil
		}

		lvl, err = inv.ReadStockForUpdate(ctx, d.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			//検証後に削除された
			return model.StockLevel{}, &CheckoutError{Kind: KindConflict, ProductID: d.ProductID, Requested: d.Quantity}
		}
		if err != nil {
			return model.StockLevel{}, err
		}
		if !lvl.Covers(d.Quantity) || attempt >= u.opts.CASAttempts {
			return model.StockLevel{}, &CheckoutError{
				Kind:      KindConflict,
				ProductID: d.ProductID,
				Requested: d.Quantity,
				Available: lvl.Quantity,
			}
		}
	}
}

func classifyCommitError(err error) error {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, repo.ErrTxConflict) {
		return &CheckoutError{Kind: KindConflict, Err: err}
	}
	return &CheckoutError{Kind: KindPersistenceFailure, Err: err}
}

// 明細の検証と商品ごとの集計（初出順）
func aggregateDemand(cart []model.CartLine) ([]productDemand, error) {
	idx := make(map[int64]int, len(cart))
	out := make([]productDemand, 0, len(cart))
	for _, l := range cart {
		if l.ProductID <= 0 || l.Quantity <= 0 || l.PriceSnapshot.IsNegative() {
			return nil, &CheckoutError{Kind: KindInvalidLine, ProductID: l.ProductID, Requested: l.Quantity}
		}
		if i, ok := idx[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.ProductID] = len(out)
		out = append(out, productDemand{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return out, nil
}

// 売上と明細（価格はカート追加時のスナップショット、商品名が空ならストアの名前）
func buildSale(cart []model.CartLine, stock map[int64]model.StockLevel, op Operator, now time.Time) (model.Sale, []model.SaleLine) {
	total := decimal.Zero
	lines := make([]model.SaleLine, 0, len(cart))
	for _, l := range cart {
		lt := l.LineTotal()
		total = total.Add(lt)
		name := l.ProductName
		if name == "" {
			name = stock[l.ProductID].ProductName
		}
		lines = append(lines, model.SaleLine{
			ProductID:   l.ProductID,
			ProductName: name,
			Quantity:    l.Quantity,
			PriceAtSale: l.PriceSnapshot,
			LineTotal:   lt,
		})
	}
	sale := model.Sale{
		TotalAmount:    total,
		SubtotalAmount: total,
		TaxAmount:      decimal.Zero,
		OperatorID:     op.ID,
		OperatorName:   op.Name,
		CreatedAt:      now,
	}
	return sale, lines
}

func (u *CheckoutUsecase) GetSale(ctx context.Context, saleID int64) (SaleOutput, error) {
	if saleID <= 0 {
		return SaleOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var out SaleOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		sale, err := r.Sales().FindByID(ctx, saleID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "sale not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		lines, err := r.Sales().ListLines(ctx, saleID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toSaleOutput(sale, lines)
		return nil
	})
	if err != nil {
		return SaleOutput{}, err
	}
	return out, nil
}

// 指定日の売上（新しい順・明細付き）
func (u *CheckoutUsecase) ListSales(ctx context.Context, day time.Time) ([]SaleOutput, error) {
	from, to := dayRange(day)
	var out []SaleOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		sales, lines, err := salesWithLines(ctx, r.Sales(), from, to)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = make([]SaleOutput, 0, len(sales))
		for _, s := range sales {
			out = append(out, toSaleOutput(s, lines[s.ID]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func salesWithLines(ctx context.Context, sales repo.SaleRepository, from, to time.Time) ([]model.Sale, map[int64][]model.SaleLine, error) {
	list, err := sales.ListByRange(ctx, from, to)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]int64, 0, len(list))
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	grouped := make(map[int64][]model.SaleLine, len(list))
	if len(ids) == 0 {
		return list, grouped, nil
	}
	lines, err := sales.ListLinesBySaleIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	for _, l := range lines {
		grouped[l.SaleID] = append(grouped[l.SaleID], l)
	}
	return list, grouped, nil
}

// その日の0時から翌日0時の直前まで（dayのロケーション基準）
func dayRange(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return from, to
}

func toSaleOutput(s model.Sale, lines []model.SaleLine) SaleOutput {
	out := SaleOutput{
		ID:             s.ID,
		TotalAmount:    s.TotalAmount,
		SubtotalAmount: s.SubtotalAmount,
		TaxAmount:      s.TaxAmount,
		OperatorID:     s.OperatorID,
		SoldBy:         s.OperatorName,
		CreatedAt:      s.CreatedAt,
		Lines:          make([]SaleLineOutput, 0, len(lines)),
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, SaleLineOutput{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			PriceAtSale: l.PriceAtSale,
			LineTotal:   l.LineTotal,
		})
	}
	return out
}
