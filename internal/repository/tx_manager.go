package repository

import (
	"context"
	"errors"
)

// トランザクション内で使う約束
type TxRepos interface {
	Products() ProductRepository
	Inventory() InventoryRepository
	InventoryLogs() InventoryLogRepository
	Sales() SaleRepository
	Roles() RoleRepository
	Users() UserRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fnがerrorを返したらrollback。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}

// 同時実行によるTxの失敗（直列化失敗・デッドロック）
var ErrTxConflict = errors.New("transaction conflict")
