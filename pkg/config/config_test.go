package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.GatewayAddr)
	require.Equal(t, "sqlite", cfg.StoreBackend)
	require.Equal(t, 5*time.Second, cfg.HeartbeatPeriod)
	require.Equal(t, 5*time.Second, cfg.TypingExpiry)
	require.Equal(t, 50, cfg.HistoryLimit)
	require.Empty(t, cfg.RedisAddr)
	require.Empty(t, cfg.KafkaBrokers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "scylla")
	t.Setenv("SCYLLA_HOSTS", "db1:9042,db2:9042")
	t.Setenv("HEARTBEAT_PERIOD", "250ms")
	t.Setenv("HISTORY_LIMIT", "10")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "scylla", cfg.StoreBackend)
	require.Equal(t, "db1:9042,db2:9042", cfg.ScyllaHosts)
	require.Equal(t, 250*time.Millisecond, cfg.HeartbeatPeriod)
	require.Equal(t, 10, cfg.HistoryLimit)
}
