package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/myst-6/messaging/pkg/firehose"
	"github.com/myst-6/messaging/pkg/store"
)

type Consumer struct {
	reader  *kafka.Reader
	backend store.Backend
	logger  *slog.Logger
}

func NewConsumer(brokers []string, topic, groupID string, backend store.Backend, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: r, backend: backend, logger: logger}
}

// Consume reads firehose records until ctx is cancelled. Appends are
// idempotent per (room, id), so redelivery after a rebalance is harmless.
func (c *Consumer) Consume(ctx context.Context) {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("read firehose", "error", err)
			time.Sleep(1 * time.Second)
			continue
		}

		var rec firehose.Record
		if err := json.Unmarshal(m.Value, &rec); err != nil {
			c.logger.Warn("skip malformed record", "offset", m.Offset, "error", err)
			continue
		}

		if err := c.backend.Room(rec.RoomID).Append(ctx, rec.Message); err != nil {
			c.logger.Error("archive append failed", "room", rec.RoomID, "id", rec.Message.ID, "error", err)
			continue
		}
		c.logger.Info("archived message", "room", rec.RoomID, "id", rec.Message.ID)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
