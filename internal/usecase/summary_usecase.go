package usecase

import (
	"context"
	"net/http"
	"sort"
	"time"

	repo "pos/internal/repository"

	"github.com/shopspring/decimal"
)

const topProductsLimit = 5

type SummaryUsecase struct {
	tx repo.TransactionManager
}

func NewSummaryUsecase(tx repo.TransactionManager) *SummaryUsecase {
	return &SummaryUsecase{tx: tx}
}

type TopProduct struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
}

type HourlySales struct {
	Hour   int             `json:"hour"`
	Amount decimal.Decimal `json:"amount"`
}

// 日次集計
type DailySummaryOutput struct {
	Date           string          `json:"date"`
	TotalSales     decimal.Decimal `json:"total_sales"`
	SaleCount      int             `json:"sale_count"`
	TotalItemsSold int64           `json:"total_items_sold"`
	TopProducts    []TopProduct    `json:"top_products"`
	SalesByHour    []HourlySales   `json:"sales_by_hour"`
}

// dayのロケーションで0〜23時に振り分ける
func (u *SummaryUsecase) DailySummary(ctx context.Context, day time.Time) (DailySummaryOutput, error) {
	from, to := dayRange(day)
	loc := day.Location()

	out := DailySummaryOutput{
		Date:        from.Format("2006-01-02"),
		TotalSales:  decimal.Zero,
		TopProducts: []TopProduct{},
		SalesByHour: make([]HourlySales, 24),
	}
	for h := range out.SalesByHour {
		out.SalesByHour[h] = HourlySales{Hour: h, Amount: decimal.Zero}
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		sales, lines, err := salesWithLines(ctx, r.Sales(), from, to)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		byProduct := map[int64]*TopProduct{}
		for _, s := range sales {
			out.SaleCount++
			out.TotalSales = out.TotalSales.Add(s.TotalAmount)
			h := s.CreatedAt.In(loc).Hour()
			out.SalesByHour[h].Amount = out.SalesByHour[h].Amount.Add(s.TotalAmount)

			for _, l := range lines[s.ID] {
				out.TotalItemsSold += l.Quantity
				tp, ok := byProduct[l.ProductID]
				if !ok {
					tp = &TopProduct{ProductID: l.ProductID, ProductName: l.ProductName}
					byProduct[l.ProductID] = tp
				}
				tp.Quantity += l.Quantity
			}
		}

		for _, tp := range byProduct {
			out.TopProducts = append(out.TopProducts, *tp)
		}
		sort.Slice(out.TopProducts, func(i, j int) bool {
			a, b := out.TopProducts[i], out.TopProducts[j]
			if a.Quantity != b.Quantity {
				return a.Quantity > b.Quantity
			}
			return a.ProductName < b.ProductName
		})
		if len(out.TopProducts) > topProductsLimit {
			out.TopProducts = out.TopProducts[:topProductsLimit]
		}
		return nil
	})
	if err != nil {
		return DailySummaryOutput{}, err
	}
	return out, nil
}
