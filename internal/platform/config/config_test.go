package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "test-key")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, time.Duration(0), cfg.Server.TokenTTL, "tokens do not expire unless configured")
	assert.Equal(t, 5, cfg.Lockout.Attempts)
	assert.Equal(t, 15*time.Minute, cfg.Lockout.Window)
	assert.Equal(t, "account-notifications", cfg.Kafka.NotificationsTopic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Database)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "test-key")
	t.Setenv("TOKEN_TTL", "24h")
	t.Setenv("KAFKA_BROKERS", " broker-1:9092,broker-2:9092,,broker-1:9092")
	t.Setenv("SENDGRID_API_KEY", "SG.test")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.Server.TokenTTL)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "SG.test", cfg.Mail.SendGridAPIKey)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestFromEnvValidation(t *testing.T) {
	t.Run("signing key required outside dev mode", func(t *testing.T) {
		t.Setenv("JWT_SIGNING_KEY", "")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("dev mode falls back to a development key", func(t *testing.T) {
		t.Setenv("JWT_SIGNING_KEY", "")
		t.Setenv("DEV_MODE", "true")
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, devSigningKey, cfg.Server.JWTSigningKey)
	})

	t.Run("malformed values carry the parse prefix", func(t *testing.T) {
		t.Setenv("JWT_SIGNING_KEY", "test-key")
		t.Setenv("LOCKOUT_ATTEMPTS", "many")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse env:")
	})
}
