package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type AppConfig struct {
	ListenAddr            string        `env:"LEDGER_LISTEN_ADDR,default=:8080"`
	DefaultExpirationDays int           `env:"LEDGER_DEFAULT_EXPIRATION_DAYS,default=30"`
	WebhookTimeout        time.Duration `env:"LEDGER_WEBHOOK_TIMEOUT,default=10s"`
	WebhookSecret         string        `env:"LEDGER_WEBHOOK_SECRET"`
	WebhookSecretTTL      time.Duration `env:"LEDGER_WEBHOOK_SECRET_TTL,default=5m"`
	SweepInterval         time.Duration `env:"LEDGER_SWEEP_INTERVAL,default=1h"`
	SweepBatchSize        int           `env:"LEDGER_SWEEP_BATCH_SIZE,default=100"`
}

func LoadAppConfigFromEnv(ctx context.Context) (*AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if err := validateAppConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func validateAppConfig(cfg *AppConfig) error {
	var errors []string

	if strings.TrimSpace(cfg.ListenAddr) == "" {
		errors = append(errors, "LEDGER_LISTEN_ADDR is required")
	}

	if cfg.DefaultExpirationDays < 0 {
		errors = append(errors, "LEDGER_DEFAULT_EXPIRATION_DAYS must be non-negative")
	}

	if cfg.WebhookTimeout <= 0 {
		errors = append(errors, "LEDGER_WEBHOOK_TIMEOUT must be positive")
	}

	if cfg.SweepInterval <= 0 {
		errors = append(errors, "LEDGER_SWEEP_INTERVAL must be positive")
	}

	if cfg.SweepBatchSize < 1 {
		errors = append(errors, "LEDGER_SWEEP_BATCH_SIZE must be at least 1")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}
