package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"pos/internal/catalog"

	"github.com/segmentio/kafka-go"
)

// 書き込み先（テストで差し替え）
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// catalog.changed をKafkaへ流すSink
type CatalogPublisher struct {
	writer messageWriter
}

func NewCatalogPublisher(brokers []string, topic string) *CatalogPublisher {
	return &CatalogPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

// 商品ごとに1メッセージ（key=商品ID）。同じ商品のイベントは同じパーティションで順序が保たれる。
// event_idは共通なので、まとめて扱いたい側はevent_idで寄せる。
func (p *CatalogPublisher) Send(ctx context.Context, ev catalog.Event) error {
	if len(ev.ProductIDs) == 0 {
		msg, err := newMessage(ev.EventID.String(), ev)
		if err != nil {
			return err
		}
		return p.writer.WriteMessages(ctx, msg)
	}

	msgs := make([]kafka.Message, 0, len(ev.ProductIDs))
	for _, id := range ev.ProductIDs {
		one := ev
		one.ProductIDs = []int64{id}
		msg, err := newMessage(strconv.FormatInt(id, 10), one)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *CatalogPublisher) Close() error {
	return p.writer.Close()
}

func newMessage(key string, ev catalog.Event) (kafka.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}, nil
}
