package usecase

import (
	"context"
	"net/http"
	"testing"

	"pos/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type catalogStub map[int64]model.Product

func (c catalogStub) Get(id int64) (model.Product, bool) {
	p, ok := c[id]
	return p, ok
}

func (c catalogStub) Available(id int64) int64 {
	return c[id].Stock
}

type MockSaleCommitter struct {
	mock.Mock
}

func (m *MockSaleCommitter) Checkout(ctx context.Context, cart []model.CartLine, op Operator) (SaleOutput, error) {
	args := m.Called(ctx, cart, op)
	out, _ := args.Get(0).(SaleOutput)
	return out, args.Error(1)
}

func newCartFixture() (*CartUsecase, *MockSaleCommitter) {
	catalog := catalogStub{
		p1: {ID: p1, Name: "Coffee", Price: dec("2.50"), Stock: 5},
		p2: {ID: p2, Name: "Tea", Price: dec("1.20"), Stock: 0},
	}
	m := new(MockSaleCommitter)
	return NewCartUsecase(catalog, m), m
}

func TestCart_AddMergesAndTotals(t *testing.T) {
	uc, _ := newCartFixture()

	_, err := uc.AddToCart(cashier, AddCartInput{ProductID: p1, Quantity: 2})
	require.NoError(t, err)
	res, err := uc.AddToCart(cashier, AddCartInput{ProductID: p1, Quantity: 1})
	require.NoError(t, err)

	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(3), res.Items[0].Quantity)
	assert.Equal(t, int64(5), res.Items[0].Available)
	assert.True(t, dec("7.50").Equal(res.Total))
}

// キャッシュ上の在庫で即時に弾く
func TestCart_StockLimit(t *testing.T) {
	uc, _ := newCartFixture()

	_, err := uc.AddToCart(cashier, AddCartInput{ProductID: p1, Quantity: 6})
	assertStatus(t, err, http.StatusUnprocessableEntity)
	assert.Contains(t, err.Error(), "only 5 left")

	_, err = uc.AddToCart(cashier, AddCartInput{ProductID: p2, Quantity: 1})
	assertStatus(t, err, http.StatusUnprocessableEntity)
	assert.Contains(t, err.Error(), "out of stock")

	_, err = uc.AddToCart(cashier, AddCartInput{ProductID: 404, Quantity: 1})
	assertStatus(t, err, http.StatusNotFound)
}

func TestCart_UpdateAndDelete(t *testing.T) {
	uc, _ := newCartFixture()
	_, err := uc.AddToCart(cashier, AddCartInput{ProductID: p1, Quantity: 1})
	require.NoError(t, err)

	res, err := uc.UpdateCartItem(cashier, p1, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Items[0].Quantity)

	_, err = uc.UpdateCartItem(cashier, p1, 9)
	assertStatus(t, err, http.StatusUnprocessableEntity)

	res, err = uc.UpdateCartItem(cashier, p1, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	_, err = uc.DeleteCartItem(cashier, p1)
	assertStatus(t, err, http.StatusNotFound)
}

// カートは担当者ごと
func TestCart_PerOperator(t *testing.T) {
	uc, _ := newCartFixture()
	other := Operator{ID: 99, Name: "Bo"}

	_, err := uc.AddToCart(cashier, AddCartInput{ProductID: p1, Quantity: 1})
	require.NoError(t, err)

	res, err := uc.GetCart(other)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestCart_CheckoutClearsOnlyOnSuccess(t *testing.T) {
	uc, m := newCartFixture()
	ctx := context.Background()
	_, err := uc.AddToCart(cashier, AddCartInput{ProductID: p1, Quantity: 2})
	require.NoError(t, err)

	want := []model.CartLine{{ProductID: p1, ProductName: "Coffee", Quantity: 2, PriceSnapshot: dec("2.50")}}
	m.On("Checkout", mock.Anything, want, cashier).Return(nil, &CheckoutError{Kind: KindConflict, ProductID: p1}).Once()

	_, err = uc.CheckoutCart(ctx, cashier)
	assert.ErrorIs(t, err, ErrConflict)
	res, _ := uc.GetCart(cashier)
	assert.Len(t, res.Items, 1)

	m.On("Checkout", mock.Anything, want, cashier).Return(SaleOutput{ID: 55}, nil).Once()
	out, err := uc.CheckoutCart(ctx, cashier)
	require.NoError(t, err)
	assert.Equal(t, int64(55), out.ID)
	res, _ = uc.GetCart(cashier)
	assert.Empty(t, res.Items)

	m.AssertExpectations(t)
}

func TestCart_Unauthorized(t *testing.T) {
	uc, _ := newCartFixture()
	_, err := uc.GetCart(Operator{})
	assertStatus(t, err, http.StatusUnauthorized)
	assertStatus(t, uc.ClearCart(Operator{}), http.StatusUnauthorized)
}
