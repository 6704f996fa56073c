package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"pos/internal/domain/model"
	repo "pos/internal/repository"
)

// =====================
// In-memory store（Txはグローバルロック＋スナップショット復元）
// =====================

type memState struct {
	products  map[int64]model.Product
	sales     []model.Sale
	lines     []model.SaleLine
	logs      []model.InventoryLog
	perms     []model.Permission
	rolePerms []model.RolePermission
	users     map[int64]model.User
	nextID    int64
}

func (s *memState) clone() *memState {
	c := &memState{
		products:  make(map[int64]model.Product, len(s.products)),
		sales:     append([]model.Sale(nil), s.sales...),
		lines:     append([]model.SaleLine(nil), s.lines...),
		logs:      append([]model.InventoryLog(nil), s.logs...),
		perms:     append([]model.Permission(nil), s.perms...),
		rolePerms: append([]model.RolePermission(nil), s.rolePerms...),
		users:     make(map[int64]model.User, len(s.users)),
		nextID:    s.nextID,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

type memStore struct {
	mu    sync.Mutex
	state *memState

	// 操作名 -> 返すエラー（"InsertSale", "DecrementStock", "Append", "SetStock", "ReadStock"）
	fail map[string]error
	// Tx外のReadStockの直前に呼ぶ
	readHook func(ctx context.Context, productID int64)
	// Tx外のReadStockの直後に呼ぶ
	afterReadHook func(productID int64)
	// InsertSaleの直前に呼ぶ
	insertHook func()
}

func newMemStore() *memStore {
	return &memStore{
		state: &memState{
			products: map[int64]model.Product{},
			users:    map[int64]model.User{},
			nextID:   100,
		},
		fail: map[string]error{},
	}
}

func (s *memStore) addProduct(id int64, name string, price string, stock int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.products[id] = model.Product{ID: id, Name: name, Price: dec(price), Stock: stock}
}

func (s *memStore) stock(id int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.products[id].Stock
}

func (s *memStore) snapshot() *memState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.state.clone()
	if err := fn(memRepos{s: s, inTx: true}); err != nil {
		s.state = before
		return err
	}
	return nil
}

// Tx外から使う在庫参照
func (s *memStore) Inventory() repo.InventoryRepository {
	return memInventory{memRepos{s: s}}
}

type memRepos struct {
	s    *memStore
	inTx bool
}

func (r memRepos) Products() repo.ProductRepository           { return r }
func (r memRepos) Inventory() repo.InventoryRepository        { return memInventory{r} }
func (r memRepos) InventoryLogs() repo.InventoryLogRepository { return memLogs{r} }
func (r memRepos) Sales() repo.SaleRepository                 { return memSales{r} }
func (r memRepos) Roles() repo.RoleRepository                 { return memRoles{r} }
func (r memRepos) Users() repo.UserRepository                 { return memUsers{r} }

func (r memRepos) with(fn func(st *memState)) {
	if !r.inTx {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	fn(r.s.state)
}

func (r memRepos) failure(op string) error {
	return r.s.fail[op]
}

// ---- ProductRepository ----

func (r memRepos) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	all, _ := r.ListAll(ctx)
	return all, int64(len(all)), nil
}

func (r memRepos) ListAll(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	r.with(func(st *memState) {
		for _, p := range st.products {
			out = append(out, p)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memRepos) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	var ok bool
	r.with(func(st *memState) { p, ok = st.products[id] })
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memRepos) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	var out []model.Product
	r.with(func(st *memState) {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				out = append(out, p)
			}
		}
	})
	return out, nil
}

func (r memRepos) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.failure("CreateProduct"); err != nil {
		return model.Product{}, err
	}
	r.with(func(st *memState) {
		p.ID = st.id()
		st.products[p.ID] = p
	})
	return p, nil
}

func (r memRepos) Update(ctx context.Context, p model.Product) (model.Product, error) {
	var out model.Product
	var ok bool
	r.with(func(st *memState) {
		cur, found := st.products[p.ID]
		if !found {
			return
		}
		cur.Name, cur.Price, cur.Category, cur.ImageURL = p.Name, p.Price, p.Category, p.ImageURL
		st.products[p.ID] = cur
		out, ok = cur, true
	})
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return out, nil
}

func (r memRepos) SoftDelete(ctx context.Context, id int64) error {
	var ok bool
	r.with(func(st *memState) {
		_, ok = st.products[id]
		delete(st.products, id)
	})
	if !ok {
		return repo.ErrNotFound
	}
	return nil
}

// ---- InventoryRepository ----

type memInventory struct{ memRepos }

func (r memInventory) ReadStock(ctx context.Context, productID int64) (model.StockLevel, error) {
	if !r.inTx && r.s.readHook != nil {
		r.s.readHook(ctx, productID)
	}
	if err := ctx.Err(); err != nil {
		return model.StockLevel{}, err
	}
	if err := r.failure("ReadStock"); err != nil {
		return model.StockLevel{}, err
	}
	lvl, err := r.read(productID)
	if !r.inTx && r.s.afterReadHook != nil {
		r.s.afterReadHook(productID)
	}
	return lvl, err
}

func (r memInventory) ReadStockForUpdate(ctx context.Context, productID int64) (model.StockLevel, error) {
	return r.read(productID)
}

func (r memInventory) read(productID int64) (model.StockLevel, error) {
	var p model.Product
	var ok bool
	r.with(func(st *memState) { p, ok = st.products[productID] })
	if !ok {
		return model.StockLevel{}, repo.ErrNotFound
	}
	return model.StockLevel{ProductID: p.ID, ProductName: p.Name, Quantity: p.Stock, Version: p.Version}, nil
}

func (r memInventory) DecrementStock(ctx context.Context, productID int64, amount int64, expectedVersion int64) (bool, error) {
	if err := r.failure("DecrementStock"); err != nil {
		return false, err
	}
	var ok bool
	r.with(func(st *memState) {
		p, found := st.products[productID]
		if !found || p.Version != expectedVersion || p.Stock < amount {
			return
		}
		p.Stock -= amount
		p.Version++
		st.products[productID] = p
		ok = true
	})
	return ok, nil
}

func (r memInventory) SetStock(ctx context.Context, productID int64, newStock int64, expectedVersion int64) (bool, error) {
	if err := r.failure("SetStock"); err != nil {
		return false, err
	}
	var ok bool
	r.with(func(st *memState) {
		p, found := st.products[productID]
		if !found || p.Version != expectedVersion || newStock < 0 {
			return
		}
		p.Stock = newStock
		p.Version++
		st.products[productID] = p
		ok = true
	})
	return ok, nil
}

// ---- InventoryLogRepository ----

type memLogs struct{ memRepos }

func (r memLogs) Append(ctx context.Context, entries []model.InventoryLog) error {
	if err := r.failure("Append"); err != nil {
		return err
	}
	r.with(func(st *memState) {
		for _, e := range entries {
			e.ID = st.id()
			st.logs = append(st.logs, e)
		}
	})
	return nil
}

func (r memLogs) List(ctx context.Context, f repo.InventoryLogFilter) ([]model.InventoryLog, error) {
	var out []model.InventoryLog
	r.with(func(st *memState) {
		for i := len(st.logs) - 1; i >= 0; i-- {
			l := st.logs[i]
			if f.ProductID != nil && l.ProductID != *f.ProductID {
				continue
			}
			if f.ChangeType != nil && l.ChangeType != *f.ChangeType {
				continue
			}
			out = append(out, l)
		}
	})
	return out, nil
}

func (r memLogs) ListByProductAsc(ctx context.Context, productID int64) ([]model.InventoryLog, error) {
	var out []model.InventoryLog
	r.with(func(st *memState) {
		for _, l := range st.logs {
			if l.ProductID == productID {
				out = append(out, l)
			}
		}
	})
	return out, nil
}

// ---- SaleRepository ----

type memSales struct{ memRepos }

func (r memSales) InsertSale(ctx context.Context, sale model.Sale, lines []model.SaleLine) (model.Sale, []model.SaleLine, error) {
	if r.s.insertHook != nil {
		r.s.insertHook()
	}
	if err := ctx.Err(); err != nil {
		return model.Sale{}, nil, err
	}
	if err := r.failure("InsertSale"); err != nil {
		return model.Sale{}, nil, err
	}
	saved := make([]model.SaleLine, 0, len(lines))
	r.with(func(st *memState) {
		sale.ID = st.id()
		st.sales = append(st.sales, sale)
		for _, l := range lines {
			l.ID = st.id()
			l.SaleID = sale.ID
			st.lines = append(st.lines, l)
			saved = append(saved, l)
		}
	})
	return sale, saved, nil
}

func (r memSales) FindByID(ctx context.Context, saleID int64) (model.Sale, error) {
	var out model.Sale
	var ok bool
	r.with(func(st *memState) {
		for _, s := range st.sales {
			if s.ID == saleID {
				out, ok = s, true
			}
		}
	})
	if !ok {
		return model.Sale{}, repo.ErrNotFound
	}
	return out, nil
}

func (r memSales) ListLines(ctx context.Context, saleID int64) ([]model.SaleLine, error) {
	return r.ListLinesBySaleIDs(ctx, []int64{saleID})
}

func (r memSales) ListByRange(ctx context.Context, from, to time.Time) ([]model.Sale, error) {
	var out []model.Sale
	r.with(func(st *memState) {
		for _, s := range st.sales {
			if !s.CreatedAt.Before(from) && !s.CreatedAt.After(to) {
				out = append(out, s)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memSales) ListLinesBySaleIDs(ctx context.Context, saleIDs []int64) ([]model.SaleLine, error) {
	want := map[int64]bool{}
	for _, id := range saleIDs {
		want[id] = true
	}
	var out []model.SaleLine
	r.with(func(st *memState) {
		for _, l := range st.lines {
			if want[l.SaleID] {
				out = append(out, l)
			}
		}
	})
	return out, nil
}

// ---- RoleRepository ----

type memRoles struct{ memRepos }

func (r memRoles) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var out []model.Permission
	r.with(func(st *memState) { out = append(out, st.perms...) })
	return out, nil
}

func (r memRoles) ListRolePermissions(ctx context.Context) ([]model.RolePermission, error) {
	var out []model.RolePermission
	r.with(func(st *memState) { out = append(out, st.rolePerms...) })
	return out, nil
}

func (r memRoles) ReplaceRolePermissions(ctx context.Context, role model.Role, permissionIDs []int64) error {
	if err := r.DeleteRolePermissions(ctx, role); err != nil {
		return err
	}
	if err := r.failure("InsertRolePermissions"); err != nil {
		return err
	}
	r.with(func(st *memState) {
		for _, id := range permissionIDs {
			st.rolePerms = append(st.rolePerms, model.RolePermission{RoleName: role, PermissionID: id})
		}
	})
	return nil
}

func (r memRoles) DeleteRolePermissions(ctx context.Context, role model.Role) error {
	r.with(func(st *memState) {
		kept := st.rolePerms[:0:0]
		for _, rp := range st.rolePerms {
			if rp.RoleName != role {
				kept = append(kept, rp)
			}
		}
		st.rolePerms = kept
	})
	return nil
}

// ---- UserRepository（ロール付け替えの確認用）----

type memUsers struct{ memRepos }

func (r memUsers) Create(ctx context.Context, user *model.User) error {
	r.with(func(st *memState) {
		user.ID = st.id()
		st.users[user.ID] = *user
	})
	return nil
}

func (r memUsers) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	var u model.User
	var ok bool
	r.with(func(st *memState) { u, ok = st.users[userID] })
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	return &u, nil
}

func (r memUsers) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var out *model.User
	r.with(func(st *memState) {
		for _, u := range st.users {
			if u.Username == username {
				u := u
				out = &u
			}
		}
	})
	if out == nil {
		return nil, repo.ErrUserNotFound
	}
	return out, nil
}

func (r memUsers) List(ctx context.Context) ([]model.User, error) {
	var out []model.User
	r.with(func(st *memState) {
		for _, u := range st.users {
			out = append(out, u)
		}
	})
	return out, nil
}

func (r memUsers) Count(ctx context.Context) (int64, error) {
	var n int64
	r.with(func(st *memState) { n = int64(len(st.users)) })
	return n, nil
}

func (r memUsers) Update(ctx context.Context, user *model.User) error {
	r.with(func(st *memState) { st.users[user.ID] = *user })
	return nil
}

func (r memUsers) IncrementTokenVersion(ctx context.Context, userID int64) error {
	var ok bool
	r.with(func(st *memState) {
		u, found := st.users[userID]
		if found {
			u.TokenVersion++
			st.users[userID] = u
			ok = true
		}
	})
	if !ok {
		return repo.ErrUserNotFound
	}
	return nil
}

func (r memUsers) ReassignRole(ctx context.Context, from model.Role, to model.Role) (int64, error) {
	if err := r.failure("ReassignRole"); err != nil {
		return 0, err
	}
	var n int64
	r.with(func(st *memState) {
		for id, u := range st.users {
			if u.Role == from {
				u.Role = to
				st.users[id] = u
				n++
			}
		}
	})
	return n, nil
}

// =====================
// Helpers
// =====================

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// 通知の記録
type recordingNotifier struct {
	mu     sync.Mutex
	events []notified
}

type notified struct {
	reason string
	ids    []int64
}

func (n *recordingNotifier) Publish(ctx context.Context, reason string, productIDs []int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notified{reason: reason, ids: append([]int64(nil), productIDs...)})
}

func (n *recordingNotifier) all() []notified {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notified(nil), n.events...)
}
