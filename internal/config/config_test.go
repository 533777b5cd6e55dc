package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppConfigFromEnv(t *testing.T) {
	t.Run("defaults apply when nothing is set", func(t *testing.T) {
		cfg, err := LoadAppConfigFromEnv(context.Background())
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.ListenAddr)
		assert.Equal(t, 30, cfg.DefaultExpirationDays)
		assert.Equal(t, 10*time.Second, cfg.WebhookTimeout)
		assert.Equal(t, 5*time.Minute, cfg.WebhookSecretTTL)
		assert.Equal(t, time.Hour, cfg.SweepInterval)
		assert.Equal(t, 100, cfg.SweepBatchSize)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("LEDGER_LISTEN_ADDR", ":9090")
		t.Setenv("LEDGER_DEFAULT_EXPIRATION_DAYS", "7")
		t.Setenv("LEDGER_WEBHOOK_TIMEOUT", "3s")

		cfg, err := LoadAppConfigFromEnv(context.Background())
		require.NoError(t, err)

		assert.Equal(t, ":9090", cfg.ListenAddr)
		assert.Equal(t, 7, cfg.DefaultExpirationDays)
		assert.Equal(t, 3*time.Second, cfg.WebhookTimeout)
	})
}

func TestValidateAppConfig(t *testing.T) {
	valid := func() *AppConfig {
		return &AppConfig{
			ListenAddr:            ":8080",
			DefaultExpirationDays: 30,
			WebhookTimeout:        10 * time.Second,
			WebhookSecretTTL:      5 * time.Minute,
			SweepInterval:         time.Hour,
			SweepBatchSize:        100,
		}
	}

	tests := []struct {
		name        string
		mutate      func(*AppConfig)
		errContains string
	}{
		{
			name:   "valid config",
			mutate: func(*AppConfig) {},
		},
		{
			name:        "empty listen addr",
			mutate:      func(c *AppConfig) { c.ListenAddr = "  " },
			errContains: "LEDGER_LISTEN_ADDR",
		},
		{
			name:        "negative expiration days",
			mutate:      func(c *AppConfig) { c.DefaultExpirationDays = -1 },
			errContains: "LEDGER_DEFAULT_EXPIRATION_DAYS",
		},
		{
			name:        "zero webhook timeout",
			mutate:      func(c *AppConfig) { c.WebhookTimeout = 0 },
			errContains: "LEDGER_WEBHOOK_TIMEOUT",
		},
		{
			name:        "zero sweep interval",
			mutate:      func(c *AppConfig) { c.SweepInterval = 0 },
			errContains: "LEDGER_SWEEP_INTERVAL",
		},
		{
			name:        "zero sweep batch size",
			mutate:      func(c *AppConfig) { c.SweepBatchSize = 0 },
			errContains: "LEDGER_SWEEP_BATCH_SIZE",
		},
		{
			name: "multiple failures are joined",
			mutate: func(c *AppConfig) {
				c.ListenAddr = ""
				c.SweepBatchSize = 0
			},
			errContains: "; ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := validateAppConfig(cfg)
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.False(t, JobStatusRunning.IsTerminal())
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusCompletedWithFailures.IsTerminal())
	assert.False(t, JobStatus("UNKNOWN").IsTerminal())
}
