package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddress)
	require.Equal(t, "postgres", cfg.DatabaseType)
	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "time_tracking_activities", cfg.ConsumerTopic)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TT_DB_TYPE", "sqlite")
	t.Setenv("TT_DB_DSN", ":memory:")
	t.Setenv("TT_HTTP_ADDRESS", ":9999")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.DatabaseType)
	require.Equal(t, ":memory:", cfg.DatabaseDSN)
	require.Equal(t, ":9999", cfg.HTTPAddress)
}

func TestLoadRejectsUnsupportedDatabaseType(t *testing.T) {
	t.Setenv("TT_DB_TYPE", "mssql")

	_, err := Load()
	require.EqualError(t, err, "cannot build activity query due to unsupported database type: mssql")
}
