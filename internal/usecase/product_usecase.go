package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pos/internal/domain/model"
	repo "pos/internal/repository"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	productRepo repo.ProductRepository
	tx          repo.TransactionManager
	notifier    CatalogNotifier
	clock       Clock
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	tx repo.TransactionManager,
	notifier CatalogNotifier,
	clock Clock,
) *ProductUsecase {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ProductUsecase{
		productRepo: productRepo,
		tx:          tx,
		notifier:    notifier,
		clock:       clock,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	Category string
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	switch in.Sort {
	case "", "name", "price_asc", "price_desc", "stock_asc":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		Category: strings.TrimSpace(in.Category),
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

type AdminProductInput struct {
	Name     string
	Price    decimal.Decimal
	Category string
	Stock    int64
	ImageURL *string
}

func validateProductInput(in AdminProductInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if len(name) > 255 {
		return NewHTTPError(http.StatusBadRequest, "name too long")
	}
	if in.Price.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if len(in.Category) > 100 {
		return NewHTTPError(http.StatusBadRequest, "category too long")
	}
	return nil
}

// 初期在庫は在庫ログ(inbound)と同じTxで登録する
func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, op Operator, in AdminProductInput) (model.Product, error) {
	if op.ID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}
	if in.Stock < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}

	var out model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := u.clock.Now()
		p, err := r.Products().Create(ctx, model.Product{
			Name:      strings.TrimSpace(in.Name),
			Price:     in.Price.Round(2),
			Category:  strings.TrimSpace(in.Category),
			Stock:     in.Stock,
			ImageURL:  in.ImageURL,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		err = r.InventoryLogs().Append(ctx, []model.InventoryLog{{
			ProductID:      p.ID,
			ProductName:    p.Name,
			ChangeType:     model.ChangeInbound,
			QuantityChange: in.Stock,
			PreviousStock:  0,
			NewStock:       in.Stock,
			Reason:         "initial stock",
			OperatorID:     op.ID,
			CreatedAt:      now,
		}})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = p
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}

	u.notifier.Publish(ctx, "product_created", []int64{out.ID})
	return out, nil
}

// 在庫は変更しない（在庫調整APIを使う）
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, op Operator, productID int64, in AdminProductInput) (model.Product, error) {
	if op.ID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	p, err := u.productRepo.Update(ctx, model.Product{
		ID:        productID,
		Name:      strings.TrimSpace(in.Name),
		Price:     in.Price.Round(2),
		Category:  strings.TrimSpace(in.Category),
		ImageURL:  in.ImageURL,
		UpdatedAt: u.clock.Now(),
	})
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.notifier.Publish(ctx, "product_updated", []int64{productID})
	return p, nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, op Operator, productID int64) error {
	if op.ID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.notifier.Publish(ctx, "product_deleted", []int64{productID})
	return nil
}
