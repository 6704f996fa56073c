package validator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"pos/internal/domain/model"
	"pos/internal/repository"
	"pos/internal/usecase"
)

var (
	// 入力が不正
	ErrInvalidInput = fmt.Errorf("%w: invalid input", usecase.ErrValidation)

	// usernameが既に使用済み
	ErrUsernameAlreadyUsed = fmt.Errorf("%w: username already used", usecase.ErrDuplicate)
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,50}$`)
	rolePattern     = regexp.MustCompile(`^[a-z][a-z0-9_]{0,49}$`)
)

// パスワード最低文字数
const minPasswordLength = 8

type authValidator struct {
	users repository.UserRepository
}

// Usecaseは interface を依存注入
func NewAuthValidator(users repository.UserRepository) usecase.AuthValidator {
	return &authValidator{users: users}
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, username string, password string) error {
	username = strings.TrimSpace(username)

	// 必須チェック
	if username == "" || password == "" {
		return ErrInvalidInput
	}
	if !usernamePattern.MatchString(username) {
		return ErrInvalidInput
	}
	return nil
}

// ユーザー作成の入力を検証
func (v *authValidator) ValidateCreateUser(ctx context.Context, username string, name string, password string, role model.Role) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidInput
	}
	if strings.TrimSpace(name) == "" || len(name) > 255 {
		return ErrInvalidInput
	}
	if len(password) < minPasswordLength {
		return ErrInvalidInput
	}
	if !rolePattern.MatchString(string(role)) {
		return ErrInvalidInput
	}

	// username重複チェック（DBが必要）
	u, err := v.users.FindByUsername(ctx, username)
	if err == nil && u != nil {
		return ErrUsernameAlreadyUsed
	}
	return nil
}

func (v *authValidator) ValidateUpdateUser(ctx context.Context, targetUserID int64, req usecase.UpdateUserRequest) error {
	if targetUserID <= 0 {
		return ErrInvalidInput
	}
	if req.Name == nil && req.Role == nil && req.IsActive == nil && req.Password == nil {
		return ErrInvalidInput
	}
	if req.Name != nil && (strings.TrimSpace(*req.Name) == "" || len(*req.Name) > 255) {
		return ErrInvalidInput
	}
	if req.Role != nil && !rolePattern.MatchString(strings.TrimSpace(*req.Role)) {
		return ErrInvalidInput
	}
	if req.Password != nil && len(*req.Password) < minPasswordLength {
		return ErrInvalidInput
	}
	return nil
}

// 強制ログアウトの入力を検証
func (v *authValidator) ValidateForceLogout(ctx context.Context, targetUserID int64) error {
	if targetUserID <= 0 {
		return ErrInvalidInput
	}
	return nil
}
