package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// カートの明細
// 追加時点の価格を保存し、会計時に読み直さない。
type CartLine struct {
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Quantity      int64           `json:"quantity"`
	PriceSnapshot decimal.Decimal `json:"price"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.PriceSnapshot.Mul(decimal.NewFromInt(l.Quantity))
}

var (
	ErrCartLineNotFound = errors.New("cart line not found")
	ErrInvalidQuantity  = errors.New("invalid quantity")
)

// キャッシュ上の在庫を超えたときのエラー（画面に出す用）
type StockLimitError struct {
	ProductName string
	Available   int64
}

func (e *StockLimitError) Error() string {
	if e.Available <= 0 {
		return fmt.Sprintf("%s is out of stock", e.ProductName)
	}
	return fmt.Sprintf("not enough stock of %s, only %d left", e.ProductName, e.Available)
}

// レジ1セッション分のカート。DBには保存しない。
type Cart struct {
	lines []CartLine
}

// 同一商品は数量加算
func (c *Cart) Add(p Product, qty int64) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	for i := range c.lines {
		if c.lines[i].ProductID != p.ID {
			continue
		}
		if c.lines[i].Quantity+qty > p.Stock {
			return &StockLimitError{ProductName: p.Name, Available: p.Stock}
		}
		c.lines[i].Quantity += qty
		return nil
	}
	if qty > p.Stock {
		return &StockLimitError{ProductName: p.Name, Available: p.Stock}
	}
	c.lines = append(c.lines, CartLine{
		ProductID:     p.ID,
		ProductName:   p.Name,
		Quantity:      qty,
		PriceSnapshot: p.Price,
	})
	return nil
}

// 0以下なら削除
func (c *Cart) SetQuantity(productID int64, qty int64, available int64) error {
	for i := range c.lines {
		if c.lines[i].ProductID != productID {
			continue
		}
		if qty <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
		if qty > available {
			return &StockLimitError{ProductName: c.lines[i].ProductName, Available: available}
		}
		c.lines[i].Quantity = qty
		return nil
	}
	return ErrCartLineNotFound
}

func (c *Cart) Remove(productID int64) error {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return ErrCartLineNotFound
}

func (c *Cart) Clear() {
	c.lines = nil
}

// コピーを返す
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.LineTotal())
	}
	return total
}
