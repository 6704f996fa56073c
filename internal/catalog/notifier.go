package catalog

import (
	"context"
	"sync"
	"time"

	"pos/internal/infra/logger"

	"github.com/google/uuid"
)

const EventTypeChanged = "catalog.changed"

// 商品・在庫が変わった通知
type Event struct {
	EventID    uuid.UUID `json:"event_id"`
	Type       string    `json:"type"`
	ProductIDs []int64   `json:"product_ids"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// プロセス外への配送先（Kafkaなど）
type Sink interface {
	Send(ctx context.Context, ev Event) error
	Close() error
}

// 購読者は同期で呼ぶので重い処理をしないこと。
// Sinkへは非同期で送り、失敗はログだけ。
type Notifier struct {
	mu          sync.RWMutex
	subscribers []func(Event)
	sinks       []Sink
	sinkTimeout time.Duration
	wg          sync.WaitGroup
	now         func() time.Time
}

func NewNotifier(sinkTimeout time.Duration) *Notifier {
	if sinkTimeout <= 0 {
		sinkTimeout = 5 * time.Second
	}
	return &Notifier{sinkTimeout: sinkTimeout, now: time.Now}
}

func (n *Notifier) Subscribe(fn func(Event)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subscribers = append(n.subscribers, fn)
}

func (n *Notifier) AddSink(s Sink) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sinks = append(n.sinks, s)
}

func (n *Notifier) Publish(ctx context.Context, reason string, productIDs []int64) {
	ids := make([]int64, len(productIDs))
	copy(ids, productIDs)
	ev := Event{
		EventID:    uuid.New(),
		Type:       EventTypeChanged,
		ProductIDs: ids,
		Reason:     reason,
		OccurredAt: n.now().UTC(),
	}

	n.mu.RLock()
	subs := append([]func(Event){}, n.subscribers...)
	sinks := append([]Sink{}, n.sinks...)
	n.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}

	for _, s := range sinks {
		n.wg.Add(1)
		go func(s Sink) {
			defer n.wg.Done()
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.sinkTimeout)
			defer cancel()
			if err := s.Send(sctx, ev); err != nil {
				logger.Error("catalog event delivery failed", err, "event_id", ev.EventID.String(), "reason", ev.Reason)
			}
		}(s)
	}
}

// 送信中のイベントを待ってからSinkを閉じる
func (n *Notifier) Close() error {
	n.wg.Wait()
	n.mu.Lock()
	defer n.mu.Unlock()
	var firstErr error
	for _, s := range n.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	n.sinks = nil
	return firstErr
}
