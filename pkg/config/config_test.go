package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Rebate.AutoLockDays)
	assert.True(t, decimal.NewFromInt(5).Equal(cfg.Rebate.DefaultRebatePercentage))
	assert.Equal(t, time.Duration(0), cfg.Rebate.SweepInterval)
	assert.Equal(t, "rebate.orders", cfg.Kafka.OrdersTopic)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("AUTO_LOCK_DAYS", "7")
	t.Setenv("DEFAULT_REBATE_PERCENTAGE", "2.5")
	t.Setenv("AUTO_LOCK_SWEEP_INTERVAL_SECONDS", "60")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DB_MAX_CONNS", "10")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Rebate.AutoLockDays)
	assert.True(t, decimal.RequireFromString("2.5").Equal(cfg.Rebate.DefaultRebatePercentage))
	assert.Equal(t, time.Minute, cfg.Rebate.SweepInterval)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
	assert.Equal(t, 10, cfg.DB.MaxConns)
}

func TestLoad_RangosInvalidos(t *testing.T) {
	t.Setenv("AUTO_LOCK_DAYS", "0")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("AUTO_LOCK_DAYS", "3")
	t.Setenv("DEFAULT_REBATE_PERCENTAGE", "150")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("DEFAULT_REBATE_PERCENTAGE", "abc")
	_, err = Load()
	assert.Error(t, err)
}

func TestDSN_EscapaCredenciales(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "rebate", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/rebate?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
