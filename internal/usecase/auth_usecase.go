package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"pos/internal/config"
	"pos/internal/domain/model"
	"pos/internal/infra/logger"
	"pos/internal/repository"

	"github.com/golang-jwt/jwt/v4"
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateLogin(ctx context.Context, username string, password string) error
	ValidateCreateUser(ctx context.Context, username string, name string, password string, role model.Role) error
	ValidateUpdateUser(ctx context.Context, targetUserID int64, req UpdateUserRequest) error
	ValidateForceLogout(ctx context.Context, targetUserID int64) error
}

type UserDTO struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	TokenVersion int        `json:"token_version"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

type JwtAccessTokenDTO struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type AuthLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthLoginResponse struct {
	User  UserDTO           `json:"user"`
	Token JwtAccessTokenDTO `json:"token"`
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// nilの項目は変更しない
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
}

type ForceLogoutResponse struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

type AuthUsecase struct {
	cfg       config.Config
	users     repository.UserRepository
	validator AuthValidator
	hasher    PasswordHasher
	verifier  PasswordVerifier
	clock     Clock
}

func NewAuthUsecase(
	cfg config.Config,
	users repository.UserRepository,
	validator AuthValidator,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	clock Clock,
) *AuthUsecase {
	if clock == nil {
		clock = SystemClock{}
	}
	return &AuthUsecase{
		cfg:       cfg,
		users:     users,
		validator: validator,
		hasher:    hasher,
		verifier:  verifier,
		clock:     clock,
	}
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest) (*AuthLoginResponse, error) {
	//入力検証
	if err := u.validator.ValidateLogin(ctx, req.Username, req.Password); err != nil {
		return nil, err
	}

	//ユーザー取得
	user, err := u.users.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return nil, ErrForbidden
	}

	//パスワード照合（bcrypt）
	if !u.verifier.Verify(req.Password, user.PasswordHash) {
		return nil, ErrUnauthorized
	}

	//last_login更新
	now := u.clock.Now()
	user.LastLoginAt = &now
	if err := u.users.Update(ctx, user); err != nil {
		logger.Warn("last login update failed", "user_id", user.ID, "reason", err.Error())
	}

	accessToken, expiresIn, err := u.issueAccessToken(user, now)
	if err != nil {
		return nil, ErrInternal
	}

	return &AuthLoginResponse{
		User: toUserDTO(user),
		Token: JwtAccessTokenDTO{
			AccessToken:  accessToken,
			ExpiresIn:    expiresIn,
			TokenVersion: user.TokenVersion,
		},
	}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*UserDTO, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}
	dto := toUserDTO(user)
	return &dto, nil
}

func (u *AuthUsecase) ListUsers(ctx context.Context) ([]UserDTO, error) {
	list, err := u.users.List(ctx)
	if err != nil {
		return nil, ErrInternal
	}
	out := make([]UserDTO, 0, len(list))
	for i := range list {
		out = append(out, toUserDTO(&list[i]))
	}
	return out, nil
}

func (u *AuthUsecase) CreateUser(ctx context.Context, req CreateUserRequest) (*UserDTO, error) {
	role := model.Role(strings.TrimSpace(req.Role))
	if role == "" {
		role = model.RoleCashier
	}
	username := strings.TrimSpace(req.Username)
	name := strings.TrimSpace(req.Name)
	if err := u.validator.ValidateCreateUser(ctx, username, name, req.Password, role); err != nil {
		return nil, err
	}

	hash, err := u.hasher.Hash(req.Password)
	if err != nil {
		return nil, ErrInternal
	}
	now := u.clock.Now()
	user := &model.User{
		Username:     username,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, ErrInternal
	}
	dto := toUserDTO(user)
	return &dto, nil
}

// ロール・パスワード変更時はtoken_versionを上げて既存トークンを無効化する
func (u *AuthUsecase) UpdateUser(ctx context.Context, targetUserID int64, req UpdateUserRequest) (*UserDTO, error) {
	if err := u.validator.ValidateUpdateUser(ctx, targetUserID, req); err != nil {
		return nil, err
	}

	user, err := u.users.FindByID(ctx, targetUserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrNotFound
	}
	if err != nil || user == nil {
		return nil, ErrInternal
	}

	revoke := false
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		role := model.Role(strings.TrimSpace(*req.Role))
		if role != user.Role {
			user.Role = role
			revoke = true
		}
	}
	if req.IsActive != nil {
		if user.IsActive && !*req.IsActive {
			revoke = true
		}
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		hash, err := u.hasher.Hash(*req.Password)
		if err != nil {
			return nil, ErrInternal
		}
		user.PasswordHash = hash
		revoke = true
	}
	if revoke {
		user.TokenVersion++
	}
	user.UpdatedAt = u.clock.Now()

	if err := u.users.Update(ctx, user); err != nil {
		return nil, ErrInternal
	}
	dto := toUserDTO(user)
	return &dto, nil
}

func (u *AuthUsecase) ForceLogout(ctx context.Context, targetUserID int64) (*ForceLogoutResponse, error) {
	if err := u.validator.ValidateForceLogout(ctx, targetUserID); err != nil {
		return nil, err
	}

	if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInternal
	}

	//更新後を取得してnew_token_versionを返す
	user, err := u.users.FindByID(ctx, targetUserID)
	if err != nil || user == nil {
		return nil, ErrInternal
	}

	return &ForceLogoutResponse{
		UserID:          user.ID,
		NewTokenVersion: user.TokenVersion,
	}, nil
}

// ユーザーが1人もいなければ初期ユーザーを作る。パスワード未設定のユーザーは作らない。
func (u *AuthUsecase) SeedDefaultUsers(ctx context.Context) error {
	n, err := u.users.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	seeds := []struct {
		username string
		name     string
		role     model.Role
		password string
	}{
		{"admin", "Administrator", model.RoleAdmin, u.cfg.SeedAdminPassword},
		{"cashier", "Cashier", model.RoleCashier, u.cfg.SeedCashierPassword},
	}
	for _, s := range seeds {
		if s.password == "" {
			continue
		}
		hash, err := u.hasher.Hash(s.password)
		if err != nil {
			return err
		}
		now := u.clock.Now()
		if err := u.users.Create(ctx, &model.User{
			Username:     s.username,
			Name:         s.name,
			PasswordHash: hash,
			Role:         s.role,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}); err != nil {
			return err
		}
		logger.Info("seeded user", "username", s.username, "role", string(s.role))
	}
	return nil
}

// jwt発行
func (u *AuthUsecase) issueAccessToken(user *model.User, now time.Time) (string, int, error) {
	ttl := u.cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	exp := now.Add(ttl)

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"name": user.Name,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := t.SignedString([]byte(u.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}

	return signed, int(ttl.Seconds()), nil
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Username:     u.Username,
		Name:         u.Name,
		Role:         string(u.Role),
		TokenVersion: u.TokenVersion,
		IsActive:     u.IsActive,
		LastLoginAt:  u.LastLoginAt,
	}
}
