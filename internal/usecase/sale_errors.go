package usecase

import (
	"errors"
	"fmt"
)

// 会計・在庫調整の失敗の種類
type ErrorKind string

const (
	KindEmptyCart          ErrorKind = "EMPTY_CART"
	KindInvalidLine        ErrorKind = "INVALID_LINE"
	KindProductNotFound    ErrorKind = "PRODUCT_NOT_FOUND"
	KindInsufficientStock  ErrorKind = "INSUFFICIENT_STOCK"
	KindConflict           ErrorKind = "CONFLICT"
	KindNegativeStock      ErrorKind = "NEGATIVE_STOCK"
	KindInvalidQuantity    ErrorKind = "INVALID_QUANTITY"
	KindInvalidChangeType  ErrorKind = "INVALID_CHANGE_TYPE"
	KindCanceled           ErrorKind = "CANCELED"
	KindPersistenceFailure ErrorKind = "PERSISTENCE_FAILURE"
)

// errors.Is(err, ErrConflict) のように種類だけで比較する用
var (
	ErrEmptyCart          = &CheckoutError{Kind: KindEmptyCart}
	ErrInvalidLine        = &CheckoutError{Kind: KindInvalidLine}
	ErrProductNotFound    = &CheckoutError{Kind: KindProductNotFound}
	ErrInsufficientStock  = &CheckoutError{Kind: KindInsufficientStock}
	ErrConflict           = &CheckoutError{Kind: KindConflict}
	ErrCanceled           = &CheckoutError{Kind: KindCanceled}
	ErrPersistenceFailure = &CheckoutError{Kind: KindPersistenceFailure}

	ErrNegativeStock     = &AdjustError{Kind: KindNegativeStock}
	ErrInvalidQuantity   = &AdjustError{Kind: KindInvalidQuantity}
	ErrInvalidChangeType = &AdjustError{Kind: KindInvalidChangeType}
)

// 会計の失敗。Errは原因（ログ用）
type CheckoutError struct {
	Kind      ErrorKind
	ProductID int64
	Requested int64
	Available int64
	Err       error
}

// 画面に出す文言（原因は含めない）
func (e *CheckoutError) Message() string {
	switch e.Kind {
	case KindEmptyCart:
		return "cart is empty"
	case KindInvalidLine:
		return fmt.Sprintf("invalid cart line for product %d", e.ProductID)
	case KindProductNotFound:
		return fmt.Sprintf("product %d not found", e.ProductID)
	case KindInsufficientStock:
		return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
	case KindConflict:
		if e.ProductID == 0 {
			return "stock changed during checkout, review the cart and retry"
		}
		return fmt.Sprintf("stock of product %d changed during checkout (requested %d, available %d), review the cart and retry", e.ProductID, e.Requested, e.Available)
	case KindCanceled:
		return "checkout canceled before commit"
	case KindPersistenceFailure:
		return "sale could not be saved, check the sales history before retrying"
	}
	return string(e.Kind)
}

func (e *CheckoutError) Error() string {
	if e.Err != nil {
		return e.Message() + ": " + e.Err.Error()
	}
	return e.Message()
}

func (e *CheckoutError) Unwrap() error { return e.Err }

func (e *CheckoutError) Is(target error) bool {
	t, ok := target.(*CheckoutError)
	return ok && t.Kind == e.Kind
}

// 在庫調整の失敗
type AdjustError struct {
	Kind      ErrorKind
	ProductID int64
	Current   int64
	Requested int64
	Err       error
}

func (e *AdjustError) Message() string {
	switch e.Kind {
	case KindInvalidQuantity:
		return fmt.Sprintf("invalid quantity %d", e.Requested)
	case KindInvalidChangeType:
		return "change type must be inbound, outbound or adjustment"
	case KindNegativeStock:
		return fmt.Sprintf("stock of product %d would become negative (current %d, requested %d)", e.ProductID, e.Current, e.Requested)
	case KindProductNotFound:
		return fmt.Sprintf("product %d not found", e.ProductID)
	case KindConflict:
		return fmt.Sprintf("stock of product %d changed concurrently, retry the adjustment", e.ProductID)
	case KindPersistenceFailure:
		return "stock adjustment could not be saved"
	}
	return string(e.Kind)
}

func (e *AdjustError) Error() string {
	if e.Err != nil {
		return e.Message() + ": " + e.Err.Error()
	}
	return e.Message()
}

func (e *AdjustError) Unwrap() error { return e.Err }

// CheckoutErrorの番兵とも種類で一致させる（ErrConflict等を共用）
func (e *AdjustError) Is(target error) bool {
	switch t := target.(type) {
	case *AdjustError:
		return t.Kind == e.Kind
	case *CheckoutError:
		return t.Kind == e.Kind
	}
	return false
}

// エラーから種類を取り出す
func KindOf(err error) (ErrorKind, bool) {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	var ae *AdjustError
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}
