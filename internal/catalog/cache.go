package catalog

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"pos/internal/domain/model"
	"pos/internal/infra/logger"
	repo "pos/internal/repository"
)

// 画面表示・カート追加の即時判定用の商品一覧。
// 会計の在庫検証には使わない（古い可能性がある）。
type SnapshotCache struct {
	products repo.ProductRepository
	timeout  time.Duration

	mu       sync.RWMutex
	byID     map[int64]model.Product
	loadedAt time.Time

	pending  chan Event
	needFull atomic.Bool
}

func NewSnapshotCache(products repo.ProductRepository, timeout time.Duration) *SnapshotCache {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SnapshotCache{
		products: products,
		timeout:  timeout,
		byID:     make(map[int64]model.Product),
		pending:  make(chan Event, 64),
	}
}

// 全件を読み直す
func (c *SnapshotCache) Refresh(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	list, err := c.products.ListAll(rctx)
	if err != nil {
		return err
	}
	next := make(map[int64]model.Product, len(list))
	for _, p := range list {
		next[p.ID] = p
	}
	c.mu.Lock()
	c.byID = next
	c.loadedAt = time.Now()
	c.mu.Unlock()
	return nil
}

// 通知された商品だけ読み直す。見つからない商品は削除済みとして外す。
func (c *SnapshotCache) Apply(ctx context.Context, ev Event) error {
	if len(ev.ProductIDs) == 0 {
		return nil
	}
	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	list, err := c.products.FindByIDs(rctx, ev.ProductIDs)
	if err != nil {
		return err
	}
	found := make(map[int64]model.Product, len(list))
	for _, p := range list {
		found[p.ID] = p
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ev.ProductIDs {
		if p, ok := found[id]; ok {
			c.byID[id] = p
			continue
		}
		delete(c.byID, id)
	}
	return nil
}

// Notifierの購読者。詰まったら次のRunで全件更新に切り替える。
func (c *SnapshotCache) OnEvent(ev Event) {
	select {
	case c.pending <- ev:
	default:
		c.needFull.Store(true)
	}
}

// 通知を順に反映する。ctxが終わるまで戻らない。
func (c *SnapshotCache) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.pending:
			if c.needFull.Swap(false) {
				if err := c.Refresh(ctx); err != nil {
					c.needFull.Store(true)
					logger.Error("catalog refresh failed", err)
				}
				continue
			}
			if err := c.Apply(ctx, ev); err != nil {
				//取りこぼした商品は次の通知で全件更新して拾う
				c.needFull.Store(true)
				logger.Error("catalog update failed", err, "event_id", ev.EventID.String())
			}
		}
	}
}

// 名前順
func (c *SnapshotCache) Products() []model.Product {
	c.mu.RLock()
	out := make([]model.Product, 0, len(c.byID))
	for _, p := range c.byID {
		out = append(out, p)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (c *SnapshotCache) Get(productID int64) (model.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[productID]
	return p, ok
}

// キャッシュ上の在庫（未登録なら0）
func (c *SnapshotCache) Available(productID int64) int64 {
	p, ok := c.Get(productID)
	if !ok {
		return 0
	}
	return p.Stock
}

func (c *SnapshotCache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}
