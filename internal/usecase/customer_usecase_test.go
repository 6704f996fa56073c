package usecase

import (
	"context"
	"testing"

	"pos/internal/domain/model"
	"pos/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mock: CustomerRepository
// =====================

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) List(ctx context.Context) ([]model.Customer, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]model.Customer)
	return list, args.Error(1)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, customerID int64) (model.Customer, error) {
	args := m.Called(ctx, customerID)
	c, _ := args.Get(0).(model.Customer)
	return c, args.Error(1)
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer model.Customer) (model.Customer, error) {
	args := m.Called(ctx, customer)
	c, _ := args.Get(0).(model.Customer)
	return c, args.Error(1)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer model.Customer) (model.Customer, error) {
	args := m.Called(ctx, customer)
	c, _ := args.Get(0).(model.Customer)
	return c, args.Error(1)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, customerID int64) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func TestCustomer_Create(t *testing.T) {
	repo := new(MockCustomerRepository)
	uc := NewCustomerUsecase(repo, fixedClock{testNow})

	repo.On("Create", mock.Anything, mock.MatchedBy(func(c model.Customer) bool {
		return c.Name == "Maria" && c.Email == "maria@example.com" && c.CreatedAt.Equal(testNow)
	})).Return(model.Customer{ID: 3, Name: "Maria", Email: "maria@example.com"}, nil)

	out, err := uc.Create(context.Background(), CustomerRequest{Name: " Maria ", Email: "maria@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.ID)
	repo.AssertExpectations(t)
}

func TestCustomer_Validation(t *testing.T) {
	repo := new(MockCustomerRepository)
	uc := NewCustomerUsecase(repo, nil)
	ctx := context.Background()

	_, err := uc.Create(ctx, CustomerRequest{Name: ""})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = uc.Create(ctx, CustomerRequest{Name: "Bo", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = uc.Create(ctx, CustomerRequest{Name: "Bo", Email: "Bo <bo@example.com>"})
	assert.ErrorIs(t, err, ErrValidation)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCustomer_UpdateNotFound(t *testing.T) {
	repo := new(MockCustomerRepository)
	uc := NewCustomerUsecase(repo, nil)

	repo.On("FindByID", mock.Anything, int64(9)).Return(nil, repository.ErrNotFound)

	_, err := uc.Update(context.Background(), 9, CustomerRequest{Name: "Bo"})
	assert.ErrorIs(t, err, ErrNotFound)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestCustomer_UpdateAndDelete(t *testing.T) {
	repo := new(MockCustomerRepository)
	uc := NewCustomerUsecase(repo, fixedClock{testNow})
	ctx := context.Background()

	repo.On("FindByID", mock.Anything, int64(3)).Return(model.Customer{ID: 3, Name: "Maria"}, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(c model.Customer) bool {
		return c.ID == 3 && c.Phone == "555-0100" && c.UpdatedAt.Equal(testNow)
	})).Return(model.Customer{ID: 3, Name: "Maria", Phone: "555-0100"}, nil)
	repo.On("Delete", mock.Anything, int64(3)).Return(nil)
	repo.On("Delete", mock.Anything, int64(4)).Return(repository.ErrNotFound)

	out, err := uc.Update(ctx, 3, CustomerRequest{Name: "Maria", Phone: "555-0100"})
	require.NoError(t, err)
	assert.Equal(t, "555-0100", out.Phone)

	assert.NoError(t, uc.Delete(ctx, 3))
	assert.ErrorIs(t, uc.Delete(ctx, 4), ErrNotFound)
	assert.ErrorIs(t, uc.Delete(ctx, 0), ErrValidation)
	repo.AssertExpectations(t)
}
