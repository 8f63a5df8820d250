// The archiver tails the committed-message firehose and appends each record
// into a secondary store. The gateway has already made every record durable
// in the primary store before it reaches Kafka, so this service is free to
// lag or restart without affecting conversations.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/myst-6/messaging/pkg/config"
	"github.com/myst-6/messaging/pkg/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if cfg.KafkaBrokers == "" {
		logger.Error("KAFKA_BROKERS is required for the archiver")
		os.Exit(1)
	}

	backend, err := store.OpenScylla(strings.Split(cfg.ScyllaHosts, ","), cfg.ScyllaKeyspace)
	if err != nil {
		logger.Error("open archive store", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	consumer := NewConsumer(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic, "archiver-group", backend, logger)
	defer consumer.Close()

	logger.Info("archiver starting", "topic", cfg.KafkaTopic)
	consumer.Consume(context.Background())
}
