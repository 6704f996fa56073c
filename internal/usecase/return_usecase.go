package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pos/internal/domain/model"
	repo "pos/internal/repository"

	"github.com/shopspring/decimal"
)

// 返品の参照のみ（登録は別システム）
type ReturnUsecase struct {
	returns repo.ReturnRepository
}

func NewReturnUsecase(returns repo.ReturnRepository) *ReturnUsecase {
	return &ReturnUsecase{returns: returns}
}

type ReturnOutput struct {
	ID                int64              `json:"id"`
	SaleID            *int64             `json:"sale_id,omitempty"`
	CustomerID        *int64             `json:"customer_id,omitempty"`
	CustomerName      string             `json:"customer_name"`
	Reason            string             `json:"reason"`
	TotalRefundAmount decimal.Decimal    `json:"total_refund_amount"`
	CreatedAt         time.Time          `json:"created_at"`
	Items             []model.ReturnItem `json:"items,omitempty"`
}

func (u *ReturnUsecase) ListReturns(ctx context.Context, day time.Time) ([]ReturnOutput, error) {
	from, to := dayRange(day)
	list, err := u.returns.ListByRange(ctx, from, to)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	out := make([]ReturnOutput, 0, len(list))
	for _, r := range list {
		out = append(out, toReturnOutput(r, nil))
	}
	return out, nil
}

func (u *ReturnUsecase) GetReturn(ctx context.Context, returnID int64) (ReturnOutput, error) {
	if returnID <= 0 {
		return ReturnOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := u.returns.FindByID(ctx, returnID)
	if errors.Is(err, repo.ErrNotFound) {
		return ReturnOutput{}, NewHTTPError(http.StatusNotFound, "return not found")
	}
	if err != nil {
		return ReturnOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	items, err := u.returns.ListItems(ctx, returnID)
	if err != nil {
		return ReturnOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if items == nil {
		items = []model.ReturnItem{}
	}
	return toReturnOutput(r, items), nil
}

func toReturnOutput(r model.Return, items []model.ReturnItem) ReturnOutput {
	out := ReturnOutput{
		ID:                r.ID,
		SaleID:            r.SaleID,
		CustomerID:        r.CustomerID,
		Reason:            r.Reason,
		TotalRefundAmount: r.TotalRefundAmount,
		CreatedAt:         r.CreatedAt,
		Items:             items,
	}
	if r.Customer != nil {
		out.CustomerName = r.Customer.Name
	}
	return out
}
