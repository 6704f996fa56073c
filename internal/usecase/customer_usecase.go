package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"pos/internal/domain/model"
	"pos/internal/repository"
)

type CustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type CustomerUsecase struct {
	customers repository.CustomerRepository
	clock     Clock
}

func NewCustomerUsecase(customers repository.CustomerRepository, clock Clock) *CustomerUsecase {
	if clock == nil {
		clock = SystemClock{}
	}
	return &CustomerUsecase{customers: customers, clock: clock}
}

func (u *CustomerUsecase) List(ctx context.Context) ([]model.Customer, error) {
	list, err := u.customers.List(ctx)
	if err != nil {
		return nil, ErrInternal
	}
	if list == nil {
		list = []model.Customer{}
	}
	return list, nil
}

func (u *CustomerUsecase) Create(ctx context.Context, req CustomerRequest) (model.Customer, error) {
	req = normalizeCustomer(req)
	if err := validateCustomer(req); err != nil {
		return model.Customer{}, err
	}

	now := u.clock.Now()
	created, err := u.customers.Create(ctx, model.Customer{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return model.Customer{}, ErrInternal
	}
	return created, nil
}

func (u *CustomerUsecase) Update(ctx context.Context, customerID int64, req CustomerRequest) (model.Customer, error) {
	if customerID <= 0 {
		return model.Customer{}, ErrValidation
	}
	req = normalizeCustomer(req)
	if err := validateCustomer(req); err != nil {
		return model.Customer{}, err
	}

	//存在確認して404に
	current, err := u.customers.FindByID(ctx, customerID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Customer{}, ErrNotFound
	}
	if err != nil {
		return model.Customer{}, ErrInternal
	}

	current.Name = req.Name
	current.Email = req.Email
	current.Phone = req.Phone
	current.Address = req.Address
	current.UpdatedAt = u.clock.Now()

	updated, err := u.customers.Update(ctx, current)
	if err != nil {
		return model.Customer{}, ErrInternal
	}
	return updated, nil
}

func (u *CustomerUsecase) Delete(ctx context.Context, customerID int64) error {
	if customerID <= 0 {
		return ErrValidation
	}
	err := u.customers.Delete(ctx, customerID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return ErrInternal
	}
	return nil
}

func normalizeCustomer(req CustomerRequest) CustomerRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)
	return req
}

// 名前は必須、メールは任意（入れたら形式チェック）
func validateCustomer(req CustomerRequest) error {
	if req.Name == "" || len(req.Name) > 255 {
		return ErrValidation
	}
	if req.Email != "" && !isValidEmailFormat(req.Email) {
		return ErrValidation
	}
	if len(req.Phone) > 30 || len(req.Address) > 255 {
		return ErrValidation
	}
	return nil
}

// メールチェック
func isValidEmailFormat(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
