// Package firehose publishes committed messages to Kafka for downstream
// consumers (archival, analytics). It is strictly post-commit: the primary
// append path never routes through Kafka.
package firehose

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/myst-6/messaging/pkg/model"
)

// Record is the wire shape on the firehose topic.
type Record struct {
	RoomID  string        `json:"roomId"`
	Message model.Message `json:"message"`
}

// Publisher writes records keyed by room id so per-room order survives
// partitioning. The writer runs in async mode: Publish hands the record off
// and returns, delivery failures surface through the completion callback. A
// nil *Publisher disables the firehose.
type Publisher struct {
	writer *kafka.Writer
}

func New(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
			Async:    true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					slog.Warn("firehose delivery failed", "count", len(messages), "error", err)
				}
			},
		},
	}
}

// Publish enqueues one committed message without blocking. Best-effort: the
// message is already durable in the primary store.
func (p *Publisher) Publish(roomID string, msg model.Message) {
	if p == nil {
		return
	}
	value, err := json.Marshal(Record{RoomID: roomID, Message: msg})
	if err != nil {
		slog.Error("marshal firehose record", "room", roomID, "error", err)
		return
	}
	if err := p.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(roomID),
		Value: value,
		Time:  time.Now(),
	}); err != nil {
		slog.Warn("firehose enqueue failed", "room", roomID, "id", msg.ID, "error", err)
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
