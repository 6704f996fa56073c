package handler

import (
	"errors"
	"net/http"
	"time"

	"pos/internal/domain/model"
	"pos/internal/infra/logger"
	"pos/internal/middleware"
	"pos/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	ProductID int64  `json:"product_id,omitempty"`
	Requested *int64 `json:"requested,omitempty"`
	Available *int64 `json:"available,omitempty"`
	Current   *int64 `json:"current,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// 会計・在庫調整の種類ごとのステータス
var kindStatus = map[usecase.ErrorKind]int{
	usecase.KindEmptyCart:          http.StatusBadRequest,
	usecase.KindInvalidLine:        http.StatusBadRequest,
	usecase.KindInvalidQuantity:    http.StatusBadRequest,
	usecase.KindInvalidChangeType:  http.StatusBadRequest,
	usecase.KindProductNotFound:    http.StatusNotFound,
	usecase.KindInsufficientStock:  http.StatusUnprocessableEntity,
	usecase.KindNegativeStock:      http.StatusUnprocessableEntity,
	usecase.KindConflict:           http.StatusConflict,
	usecase.KindCanceled:           http.StatusRequestTimeout,
	usecase.KindPersistenceFailure: http.StatusServiceUnavailable,
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	var ce *usecase.CheckoutError
	if errors.As(err, &ce) {
		res := ErrorResponse{Error: ce.Message(), Kind: string(ce.Kind), ProductID: ce.ProductID}
		if ce.Kind == usecase.KindInsufficientStock || (ce.Kind == usecase.KindConflict && ce.ProductID != 0) {
			res.Requested = int64Ptr(ce.Requested)
			res.Available = int64Ptr(ce.Available)
		}
		return c.JSON(statusOfKind(ce.Kind), res)
	}
	var ae *usecase.AdjustError
	if errors.As(err, &ae) {
		res := ErrorResponse{Error: ae.Message(), Kind: string(ae.Kind), ProductID: ae.ProductID}
		if ae.Kind == usecase.KindNegativeStock {
			res.Current = int64Ptr(ae.Current)
			res.Requested = int64Ptr(ae.Requested)
		}
		return c.JSON(statusOfKind(ae.Kind), res)
	}

	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	switch {
	case errors.Is(err, usecase.ErrValidation):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	case errors.Is(err, usecase.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
	case errors.Is(err, usecase.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, usecase.ErrDuplicate):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	}

	//500
	logger.Error("request failed", err, "path", c.Path(), "method", c.Request().Method)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func statusOfKind(kind usecase.ErrorKind) int {
	if s, ok := kindStatus[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func int64Ptr(v int64) *int64 { return &v }

// middleware.AuthJWT が c.Set した値から操作者を組み立てる
func operatorFromContext(c echo.Context) (usecase.Operator, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(int64)
	if !ok || id <= 0 {
		return usecase.Operator{}, false
	}
	role, _ := c.Get(middleware.CtxUserRoleKey).(string)
	name, _ := c.Get(middleware.CtxUserNameKey).(string)
	return usecase.Operator{ID: id, Name: name, Role: model.Role(role)}, true
}

// ?date=YYYY-MM-DD。省略時は今日。
func parseDay(c echo.Context, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	v := c.QueryParam("date")
	if v == "" {
		return time.Now().In(loc), nil
	}
	return time.ParseInLocation("2006-01-02", v, loc)
}
