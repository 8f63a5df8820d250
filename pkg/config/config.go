// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	GatewayAddr string `env:"GATEWAY_ADDR" envDefault:":8080"`
	APIAddr     string `env:"API_ADDR" envDefault:":8081"`

	JWTSecret string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`

	// StoreBackend selects the durable message log: "sqlite" or "scylla".
	StoreBackend   string `env:"STORE_BACKEND" envDefault:"sqlite"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"conversations.db"`
	ScyllaHosts    string `env:"SCYLLA_HOSTS" envDefault:"localhost:9042"`
	ScyllaKeyspace string `env:"SCYLLA_KEYSPACE" envDefault:"chat"`

	// RedisAddr enables the presence mirror when set.
	RedisAddr string `env:"REDIS_ADDR" envDefault:""`

	// KafkaBrokers enables the committed-message firehose when set.
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:""`
	KafkaTopic   string `env:"KAFKA_TOPIC" envDefault:"chat-messages"`

	HeartbeatPeriod time.Duration `env:"HEARTBEAT_PERIOD" envDefault:"5s"`
	TypingExpiry    time.Duration `env:"TYPING_EXPIRY" envDefault:"5s"`
	HistoryLimit    int           `env:"HISTORY_LIMIT" envDefault:"50"`

	SnowflakeNode int64 `env:"SNOWFLAKE_NODE" envDefault:"1"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
