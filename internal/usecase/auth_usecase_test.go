package usecase

import (
	"context"
	"testing"
	"time"

	"pos/internal/config"
	"pos/internal/domain/model"
	"pos/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// =====================
// Mock: UserRepository
// =====================

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]model.User)
	return list, args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) IncrementTokenVersion(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) ReassignRole(ctx context.Context, from model.Role, to model.Role) (int64, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(int64), args.Error(1)
}

// =====================
// Mock: AuthValidator
// =====================

type MockAuthValidator struct {
	mock.Mock
}

func (m *MockAuthValidator) ValidateLogin(ctx context.Context, username string, password string) error {
	args := m.Called(ctx, username, password)
	return args.Error(0)
}

func (m *MockAuthValidator) ValidateCreateUser(ctx context.Context, username string, name string, password string, role model.Role) error {
	args := m.Called(ctx, username, name, password, role)
	return args.Error(0)
}

func (m *MockAuthValidator) ValidateUpdateUser(ctx context.Context, targetUserID int64, req UpdateUserRequest) error {
	args := m.Called(ctx, targetUserID, req)
	return args.Error(0)
}

func (m *MockAuthValidator) ValidateForceLogout(ctx context.Context, targetUserID int64) error {
	args := m.Called(ctx, targetUserID)
	return args.Error(0)
}

// =====================
// Helper
// =====================

const testSecret = "test-secret"

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	return string(b)
}

func newAuthUC(userRepo *MockUserRepository, v *MockAuthValidator, cfg config.Config) *AuthUsecase {
	// JWTSecret は Login で必須
	cfg.JWTSecret = testSecret
	return NewAuthUsecase(cfg, userRepo, v, NewBcryptPasswordHasher(bcrypt.MinCost), NewBcryptPasswordVerifier(), SystemClock{})
}

// =====================
// Login
// =====================

func TestAuthUsecase_Login_Success(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	v := new(MockAuthValidator)

	v.On("ValidateLogin", mock.Anything, "ana", "CorrectPW").Return(nil)
	userRepo.On("FindByUsername", mock.Anything, "ana").Return(&model.User{
		ID:           7,
		Username:     "ana",
		Name:         "Ana",
		PasswordHash: mustHash(t, "CorrectPW"),
		Role:         model.RoleCashier,
		TokenVersion: 2,
		IsActive:     true,
	}, nil)
	// last_login 更新は失敗しても継続
	userRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

	u := newAuthUC(userRepo, v, config.Config{AccessTokenTTL: time.Hour})

	res, err := u.Login(ctx, AuthLoginRequest{Username: "ana", Password: "CorrectPW"})
	require.NoError(t, err)
	assert.Equal(t, 3600, res.Token.ExpiresIn)
	assert.Equal(t, 2, res.Token.TokenVersion)
	assert.NotNil(t, res.User.LastLoginAt)

	//クレームの中身
	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(res.Token.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, float64(7), claims["sub"])
	assert.Equal(t, "cashier", claims["role"])
	assert.Equal(t, float64(2), claims["tv"])
	assert.Equal(t, "Ana", claims["name"])

	userRepo.AssertExpectations(t)
	v.AssertExpectations(t)
}

func TestAuthUsecase_Login_WrongPassword(t *testing.T) {
	userRepo := new(MockUserRepository)
	v := new(MockAuthValidator)

	v.On("ValidateLogin", mock.Anything, "ana", "WrongPW").Return(nil)
	userRepo.On("FindByUsername", mock.Anything, "ana").Return(&model.User{
		ID: 7, Username: "ana", PasswordHash: mustHash(t, "CorrectPW"), IsActive: true,
	}, nil)

	u := newAuthUC(userRepo, v, config.Config{})
	res, err := u.Login(context.Background(), AuthLoginRequest{Username: "ana", Password: "WrongPW"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnauthorized)
	userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAuthUsecase_Login_InactiveUser(t *testing.T) {
	userRepo := new(MockUserRepository)
	v := new(MockAuthValidator)

	v.On("ValidateLogin", mock.Anything, "ana", "pw").Return(nil)
	userRepo.On("FindByUsername", mock.Anything, "ana").Return(&model.User{ID: 7, IsActive: false}, nil)

	u := newAuthUC(userRepo, v, config.Config{})
	_, err := u.Login(context.Background(), AuthLoginRequest{Username: "ana", Password: "pw"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthUsecase_Login_UnknownUser(t *testing.T) {
	userRepo := new(MockUserRepository)
	v := new(MockAuthValidator)

	v.On("ValidateLogin", mock.Anything, "ghost", "pw").Return(nil)
	userRepo.On("FindByUsername", mock.Anything, "ghost").Return(nil, repository.ErrUserNotFound)

	u := newAuthUC(userRepo, v, config.Config{})
	_, err := u.Login(context.Background(), AuthLoginRequest{Username: "ghost", Password: "pw"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

// =====================
// User admin
// =====================

func TestAuthUsecase_CreateUser_DefaultsToCashier(t *testing.T) {
	userRepo := new(MockUserRepository)
	v := new(MockAuthValidator)

	v.On("ValidateCreateUser", mock.Anything, "bo", "Bo", "LongEnough1", model.RoleCashier).Return(nil)
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Username == "bo" && u.Role == model.RoleCashier && u.IsActive &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("LongEnough1")) == nil
	})).Return(nil)

	u := newAuthUC(userRepo, v, config.Config{})
	dto, err := u.CreateUser(context.Background(), CreateUserRequest{Username: " bo ", Name: "Bo", Password: "LongEnough1"})
	require.NoError(t, err)
	assert.Equal(t, "cashier", dto.Role)
	userRepo.AssertExpectations(t)
}

// ロール変更でtoken_versionが上がる
func TestAuthUsecase_UpdateUser_RoleChangeRevokes(t *testing.T) {
	userRepo := new(MockUserRepository)
	v := new(MockAuthValidator)
	role := "admin"
	req := UpdateUserRequest{Role: &role}

	v.On("ValidateUpdateUser", mock.Anything, int64(7), req).Return(nil)
	userRepo.On("FindByID", mock.Anything, int64(7)).Return(&model.User{ID: 7, Role: model.RoleCashier, TokenVersion: 1, IsActive: true}, nil)
	userRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Role == model.RoleAdmin && u.TokenVersion == 2
	})).Return(nil)

	u := newAuthUC(userRepo, v, config.Config{})
	dto, err := u.UpdateUser(context.Background(), 7, req)
	require.NoError(t, err)
	assert.Equal(t, 2, dto.TokenVersion)
	userRepo.AssertExpectations(t)
}

func TestAuthUsecase_UpdateUser_NameOnlyKeepsTokens(t *testing.T) {
	userRepo := new(MockUserRepository)
	v := new(MockAuthValidator)
	name := "Ana B."
	req := UpdateUserRequest{Name: &name}

	v.On("ValidateUpdateUser", mock.Anything, int64(7), req).Return(nil)
	userRepo.On("FindByID", mock.Anything, int64(7)).Return(&model.User{ID: 7, Name: "Ana", TokenVersion: 1, IsActive: true}, nil)
	userRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

	u := newAuthUC(userRepo, v, config.Config{})
	dto, err := u.UpdateUser(context.Background(), 7, req)
	require.NoError(t, err)
	assert.Equal(t, "Ana B.", dto.Name)
	assert.Equal(t, 1, dto.TokenVersion)
}

func TestAuthUsecase_ForceLogout(t *testing.T) {
	userRepo := new(MockUserRepository)
	v := new(MockAuthValidator)

	v.On("ValidateForceLogout", mock.Anything, int64(7)).Return(nil)
	userRepo.On("IncrementTokenVersion", mock.Anything, int64(7)).Return(nil)
	userRepo.On("FindByID", mock.Anything, int64(7)).Return(&model.User{ID: 7, TokenVersion: 4}, nil)

	u := newAuthUC(userRepo, v, config.Config{})
	res, err := u.ForceLogout(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 4, res.NewTokenVersion)

	v.On("ValidateForceLogout", mock.Anything, int64(8)).Return(nil)
	userRepo.On("IncrementTokenVersion", mock.Anything, int64(8)).Return(repository.ErrUserNotFound)
	_, err = u.ForceLogout(context.Background(), 8)
	assert.ErrorIs(t, err, ErrNotFound)
}

// =====================
// Seed
// =====================

func TestAuthUsecase_SeedDefaultUsers(t *testing.T) {
	userRepo := new(MockUserRepository)
	v := new(MockAuthValidator)

	userRepo.On("Count", mock.Anything).Return(int64(0), nil)
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Username == "admin" && u.Role == model.RoleAdmin
	})).Return(nil).Once()

	//cashierのパスワード未設定なので作らない
	u := newAuthUC(userRepo, v, config.Config{SeedAdminPassword: "adminpass123"})
	require.NoError(t, u.SeedDefaultUsers(context.Background()))
	userRepo.AssertNumberOfCalls(t, "Create", 1)
}

func TestAuthUsecase_SeedSkipsWhenUsersExist(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("Count", mock.Anything).Return(int64(3), nil)

	u := newAuthUC(userRepo, new(MockAuthValidator), config.Config{SeedAdminPassword: "x"})
	require.NoError(t, u.SeedDefaultUsers(context.Background()))
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
