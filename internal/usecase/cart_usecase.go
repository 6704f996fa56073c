package usecase

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"pos/internal/domain/model"

	"github.com/shopspring/decimal"
)

// カート追加時の在庫判定に使う商品一覧（catalog.SnapshotCache）
type CatalogReader interface {
	Get(productID int64) (model.Product, bool)
	Available(productID int64) int64
}

type saleCommitter interface {
	Checkout(ctx context.Context, cart []model.CartLine, op Operator) (SaleOutput, error)
}

// レジ担当者ごとのカート（メモリのみ）
type CartUsecase struct {
	mu       sync.Mutex
	carts    map[int64]*model.Cart
	catalog  CatalogReader
	checkout saleCommitter
}

func NewCartUsecase(catalog CatalogReader, checkout saleCommitter) *CartUsecase {
	return &CartUsecase{
		carts:    make(map[int64]*model.Cart),
		catalog:  catalog,
		checkout: checkout,
	}
}

// priceは追加時点の価格。availableはキャッシュ上の在庫（目安）。
type CartItemResponse struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Available int64           `json:"available"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

func (u *CartUsecase) GetCart(op Operator) (CartResponse, error) {
	if op.ID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.buildCartResponse(u.cartOf(op.ID)), nil
}

func (u *CartUsecase) AddToCart(op Operator, in AddCartInput) (CartResponse, error) {
	if op.ID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	p, ok := u.catalog.Get(in.ProductID)
	if !ok {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	cart := u.cartOf(op.ID)
	if err := cart.Add(p, in.Quantity); err != nil {
		return CartResponse{}, cartError(err)
	}
	return u.buildCartResponse(cart), nil
}

// 0以下は削除
func (u *CartUsecase) UpdateCartItem(op Operator, productID int64, quantity int64) (CartResponse, error) {
	if op.ID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	cart := u.cartOf(op.ID)
	if err := cart.SetQuantity(productID, quantity, u.catalog.Available(productID)); err != nil {
		return CartResponse{}, cartError(err)
	}
	return u.buildCartResponse(cart), nil
}

func (u *CartUsecase) DeleteCartItem(op Operator, productID int64) (CartResponse, error) {
	if op.ID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	cart := u.cartOf(op.ID)
	if err := cart.Remove(productID); err != nil {
		return CartResponse{}, cartError(err)
	}
	return u.buildCartResponse(cart), nil
}

func (u *CartUsecase) ClearCart(op Operator) error {
	if op.ID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.carts, op.ID)
	return nil
}

// カートの内容で会計。成功したときだけカートを空にする。
func (u *CartUsecase) CheckoutCart(ctx context.Context, op Operator) (SaleOutput, error) {
	if op.ID <= 0 {
		return SaleOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	u.mu.Lock()
	lines := u.cartOf(op.ID).Lines()
	u.mu.Unlock()

	//ロックを持ったままストアを待たない
	out, err := u.checkout.Checkout(ctx, lines, op)
	if err != nil {
		return SaleOutput{}, err
	}

	u.mu.Lock()
	delete(u.carts, op.ID)
	u.mu.Unlock()
	return out, nil
}

func (u *CartUsecase) cartOf(operatorID int64) *model.Cart {
	c, ok := u.carts[operatorID]
	if !ok {
		c = &model.Cart{}
		u.carts[operatorID] = c
	}
	return c
}

func (u *CartUsecase) buildCartResponse(cart *model.Cart) CartResponse {
	lines := cart.Lines()
	res := CartResponse{Items: make([]CartItemResponse, 0, len(lines)), Total: cart.Total()}
	for _, l := range lines {
		res.Items = append(res.Items, CartItemResponse{
			ProductID: l.ProductID,
			Name:      l.ProductName,
			Price:     l.PriceSnapshot,
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal(),
			Available: u.catalog.Available(l.ProductID),
		})
	}
	return res
}

func cartError(err error) error {
	var sl *model.StockLimitError
	switch {
	case errors.As(err, &sl):
		return NewHTTPError(http.StatusUnprocessableEntity, sl.Error())
	case errors.Is(err, model.ErrCartLineNotFound):
		return NewHTTPError(http.StatusNotFound, "cart item not found")
	case errors.Is(err, model.ErrInvalidQuantity):
		return NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	return NewHTTPError(http.StatusInternalServerError, "cart error")
}
