package main

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/myst-6/messaging/pkg/auth"
	"github.com/myst-6/messaging/pkg/config"
	"github.com/myst-6/messaging/pkg/firehose"
	"github.com/myst-6/messaging/pkg/presence"
	"github.com/myst-6/messaging/pkg/room"
	"github.com/myst-6/messaging/pkg/snowflake"
	"github.com/myst-6/messaging/pkg/store"
)

func openBackend(cfg config.Config) (store.Backend, error) {
	if cfg.StoreBackend == "scylla" {
		return store.OpenScylla(strings.Split(cfg.ScyllaHosts, ","), cfg.ScyllaKeyspace)
	}
	return store.OpenSQLite(cfg.SQLitePath)
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	backend, err := openBackend(cfg)
	if err != nil {
		logger.Error("open message store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	ids, err := snowflake.New(cfg.SnowflakeNode)
	if err != nil {
		logger.Error("init id generator", "error", err)
		os.Exit(1)
	}

	var mirror *presence.Mirror
	if cfg.RedisAddr != "" {
		mirror = presence.NewMirror(cfg.RedisAddr)
		defer mirror.Close()
	}

	var publisher *firehose.Publisher
	if cfg.KafkaBrokers != "" {
		publisher = firehose.New(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic)
		defer publisher.Close()
	}

	manager := room.NewManager(backend, room.Options{
		HeartbeatPeriod: cfg.HeartbeatPeriod,
		TypingExpiry:    cfg.TypingExpiry,
		HistoryLimit:    cfg.HistoryLimit,
		IDs:             ids,
		Mirror:          mirror,
		Firehose:        publisher,
		Logger:          logger,
	})

	authn := auth.New(cfg.JWTSecret)
	conversations := &conversationHandlers{manager: manager}

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(manager, authn, logger, w, r)
	})
	http.Handle("/conversation/info", authn.Middleware(http.HandlerFunc(conversations.info)))
	http.Handle("/conversation/participants", authn.Middleware(http.HandlerFunc(conversations.participants)))
	http.Handle("/conversation/messages", authn.Middleware(http.HandlerFunc(conversations.messages)))

	logger.Info("gateway service starting", "addr", cfg.GatewayAddr, "backend", cfg.StoreBackend)
	if err := http.ListenAndServe(cfg.GatewayAddr, nil); err != nil {
		logger.Error("listen", "error", err)
		os.Exit(1)
	}
}
