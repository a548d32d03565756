package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/iho/creditledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ACCOUNTS", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.StorageDriver != config.StorageDriverPostgres {
		t.Fatalf("expected postgres storage by default, got %s", cfg.StorageDriver)
	}

	if cfg.RedisURL != "" {
		t.Fatalf("expected redis to be disabled by default, got %q", cfg.RedisURL)
	}

	registry, err := cfg.AccountRegistry()
	if err != nil {
		t.Fatalf("unexpected registry error: %v", err)
	}

	if registry.Len() != 5 {
		t.Fatalf("expected 5 default accounts, got %d", registry.Len())
	}

	if limit, ok := registry.Lookup(2); !ok || limit != 80000 {
		t.Fatalf("expected account 2 limit 80000, got %d (%v)", limit, ok)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("ACCOUNTS", "7:700")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("TX_MAX_RETRIES", "5")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,192.168.1.7")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.StorageDriver != config.StorageDriverMemory {
		t.Fatalf("expected memory storage, got %s", cfg.StorageDriver)
	}

	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Fatalf("expected two kafka brokers, got %v", cfg.KafkaBrokers)
	}

	if cfg.TxMaxRetries != 5 {
		t.Fatalf("expected 5 retries, got %d", cfg.TxMaxRetries)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[1] != "192.168.1.7" {
		t.Fatalf("unexpected trusted proxies: %v", cfg.TrustedProxies)
	}

	registry, err := cfg.AccountRegistry()
	if err != nil {
		t.Fatalf("unexpected registry error: %v", err)
	}
	if !registry.Contains(7) || registry.Contains(1) {
		t.Fatalf("expected only account 7, got %v", registry.IDs())
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown storage driver", "STORAGE_DRIVER", "sqlite"},
		{"malformed accounts", "ACCOUNTS", "1-100"},
		{"duplicate accounts", "ACCOUNTS", "1:100,1:200"},
		{"negative retries", "TX_MAX_RETRIES", "-1"},
		{"malformed trusted proxy", "TRUSTED_PROXIES", "10.0.0.0/8,proxy.local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
