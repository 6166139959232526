package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("TOSS_CLIENT_KEY", "test_ck")
	t.Setenv("TOSS_SECRET_KEY", "test_sk")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Contains(t, cfg.DBDataSourceName, "dbname=realive_checkout")
	assert.Equal(t, int64(3000), cfg.DeliveryFee)
	assert.Equal(t, 30*time.Minute, cfg.IntentTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
}

func TestLoad_MissingTossKeys(t *testing.T) {
	t.Setenv("TOSS_CLIENT_KEY", "")
	t.Setenv("TOSS_SECRET_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_DSNOverrideWinsOverHostParts(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file:/var/lib/realive/checkout.db")
	t.Setenv("DB_HOST", "ignored-host")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "file:/var/lib/realive/checkout.db", cfg.DBDataSourceName)
	assert.NotContains(t, cfg.DBDataSourceName, "ignored-host")
}

func TestLoad_KafkaBrokersSplitAndTrimmed(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092 ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
}
