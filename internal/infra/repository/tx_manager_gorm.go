package repository

import (
	"context"
	"errors"
	"fmt"

	repo "pos/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// 直列化失敗・デッドロック
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

type txReposGorm struct {
	products      repo.ProductRepository
	inventory     repo.InventoryRepository
	inventoryLogs repo.InventoryLogRepository
	sales         repo.SaleRepository
	roles         repo.RoleRepository
	users         repo.UserRepository
}

func (r *txReposGorm) Products() repo.ProductRepository           { return r.products }
func (r *txReposGorm) Inventory() repo.InventoryRepository        { return r.inventory }
func (r *txReposGorm) InventoryLogs() repo.InventoryLogRepository { return r.inventoryLogs }
func (r *txReposGorm) Sales() repo.SaleRepository                 { return r.sales }
func (r *txReposGorm) Roles() repo.RoleRepository                 { return r.roles }
func (r *txReposGorm) Users() repo.UserRepository                 { return r.users }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	err := tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			products:      NewProductGormRepository(tx),
			inventory:     NewInventoryGormRepository(tx),
			inventoryLogs: NewInventoryLogGormRepository(tx),
			sales:         NewSaleGormRepository(tx),
			roles:         NewRoleGormRepository(tx),
			users:         NewUserGormRepository(tx),
		}
		return fn(r)
	})
	if isTxConflict(err) {
		return fmt.Errorf("%w: %v", repo.ErrTxConflict, err)
	}
	return err
}

func isTxConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
}
