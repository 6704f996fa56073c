package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pos/internal/config"
	"pos/internal/domain/model"
	"pos/internal/middleware"
	"pos/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mwErrorResponse struct {
	Error string `json:"error"`
}

type mwOKResponse struct {
	UserID       int64  `json:"user_id"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
	Name         string `json:"name"`
}

// =====================
// UserRepository モック（FindByIDだけ使う）
// =====================

type MockUserRepoForMiddleware struct {
	mock.Mock
	repository.UserRepository
}

func (m *MockUserRepoForMiddleware) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

// =====================
// helper
// =====================

const secret = "test-secret"

func mustMakeJWT(t *testing.T, sub int64, role string, tv int, method jwt.SigningMethod) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"tv":   tv,
		"name": "Ana",
		"iat":  1,
		"exp":  9999999999,
	}
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return s
}

func runRequest(t *testing.T, e *echo.Echo, path string, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, mwOKResponse{
		UserID:       c.Get(middleware.CtxUserIDKey).(int64),
		Role:         c.Get(middleware.CtxUserRoleKey).(string),
		TokenVersion: c.Get(middleware.CtxTokenVersionKey).(int),
		Name:         c.Get(middleware.CtxUserNameKey).(string),
	})
}

func newEcho(users repository.UserRepository) *echo.Echo {
	e := echo.New()
	cfg := config.Config{JWTSecret: secret}
	e.GET("/protected", okHandler, middleware.AuthJWT(cfg), middleware.TokenVersionGuard(users))
	e.GET("/admin", okHandler, middleware.AuthJWT(cfg), middleware.TokenVersionGuard(users), middleware.AdminRoleGuard())
	return e
}

// =====================
// AuthJWT
// =====================

func TestAuthJWT_Rejects(t *testing.T) {
	e := newEcho(new(MockUserRepoForMiddleware))

	cases := map[string]string{
		"no header":  "",
		"bad scheme": "Token abc.def.ghi",
		"garbage":    "Bearer abc.def.ghi",
		"wrong alg":  "Bearer " + mustMakeJWT(t, 1, "cashier", 0, jwt.SigningMethodHS512),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec := runRequest(t, e, "/protected", header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			var body mwErrorResponse
			_ = json.NewDecoder(rec.Body).Decode(&body)
			assert.Equal(t, "unauthorized", body.Error)
		})
	}
}

func TestAuthJWT_OK_SetsContext(t *testing.T) {
	users := new(MockUserRepoForMiddleware)
	users.On("FindByID", mock.Anything, int64(7)).Return(&model.User{ID: 7, TokenVersion: 3, IsActive: true}, nil)
	e := newEcho(users)

	rec := runRequest(t, e, "/protected", "Bearer "+mustMakeJWT(t, 7, "cashier", 3, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body mwOKResponse
	_ = json.NewDecoder(rec.Body).Decode(&body)
	assert.Equal(t, int64(7), body.UserID)
	assert.Equal(t, "cashier", body.Role)
	assert.Equal(t, 3, body.TokenVersion)
	assert.Equal(t, "Ana", body.Name)
}

// =====================
// TokenVersionGuard
// =====================

func TestTokenVersionGuard(t *testing.T) {
	users := new(MockUserRepoForMiddleware)
	users.On("FindByID", mock.Anything, int64(7)).Return(&model.User{ID: 7, TokenVersion: 4, IsActive: true}, nil)
	users.On("FindByID", mock.Anything, int64(8)).Return(&model.User{ID: 8, TokenVersion: 0, IsActive: false}, nil)
	users.On("FindByID", mock.Anything, int64(9)).Return(nil, repository.ErrUserNotFound)
	e := newEcho(users)

	//強制ログアウト後の古いトークン
	rec := runRequest(t, e, "/protected", "Bearer "+mustMakeJWT(t, 7, "cashier", 3, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	//停止ユーザー
	rec = runRequest(t, e, "/protected", "Bearer "+mustMakeJWT(t, 8, "cashier", 0, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = runRequest(t, e, "/protected", "Bearer "+mustMakeJWT(t, 9, "cashier", 0, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =====================
// AdminRoleGuard
// =====================

func TestAdminRoleGuard(t *testing.T) {
	users := new(MockUserRepoForMiddleware)
	users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1, IsActive: true}, nil)
	users.On("FindByID", mock.Anything, int64(2)).Return(&model.User{ID: 2, IsActive: true}, nil)
	e := newEcho(users)

	rec := runRequest(t, e, "/admin", "Bearer "+mustMakeJWT(t, 1, "admin", 0, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = runRequest(t, e, "/admin", "Bearer "+mustMakeJWT(t, 2, "cashier", 0, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// =====================
// RequestMetrics
// =====================

type observed struct {
	handler string
	status  int
}

type observerStub struct{ got []observed }

func (o *observerStub) ObserveRequest(handler string, status int, _ time.Duration) {
	o.got = append(o.got, observed{handler, status})
}

func TestRequestMetrics(t *testing.T) {
	obs := &observerStub{}
	e := echo.New()
	e.Use(middleware.RequestMetrics(obs))
	e.GET("/sales/:id", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })

	runRequest(t, e, "/sales/12", "")
	rec := runRequest(t, e, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.Equal(t, []observed{
		{"/sales/:id", http.StatusNoContent},
		{"/boom", http.StatusInternalServerError},
	}, obs.got)
}
