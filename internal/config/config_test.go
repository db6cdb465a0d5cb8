package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "payflow", cfg.ServiceName)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, StoreMemory, cfg.Store)
	require.InDelta(t, 0.9, cfg.GatewaySuccessRate, 1e-9)
}

func TestLoad_SQLiteStore(t *testing.T) {
	t.Setenv("STORE", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/payflow-test.db")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, StoreSQLite, cfg.Store)
	require.Equal(t, "/tmp/payflow-test.db", cfg.SQLitePath)
}

func TestLoad_InvalidStore(t *testing.T) {
	t.Setenv("STORE", "dynamo")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid STORE")
}

func TestLoad_InvalidSuccessRate(t *testing.T) {
	t.Setenv("GATEWAY_SUCCESS_RATE", "1.5")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "GATEWAY_SUCCESS_RATE")
}
