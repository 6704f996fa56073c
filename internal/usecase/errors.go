package usecase

import (
	"errors"
	"fmt"
)

var (
	//400 入力不足
	ErrValidation = errors.New("validation error")
	//401 認証失敗
	ErrUnauthorized = errors.New("unauthorized")
	//403　権限・停止ユーザー
	ErrForbidden = errors.New("forbidden")
	//500
	ErrInternal = errors.New("internal error")
)

// 管理系CRUDのエラー（ステータス付き）
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 存在しない（Handlerが404に変換する）
var ErrNotFound = errors.New("not found")

// 409 一意制約（ユーザー名など）
var ErrDuplicate = errors.New("already exists")
