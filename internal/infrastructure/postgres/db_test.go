package postgres

import (
	"context"
	"testing"
	"time"
)

func TestNewPoolWithConfigRequiresURL(t *testing.T) {
	if _, err := NewPoolWithConfig(context.Background(), PoolConfig{}); err == nil {
		t.Fatalf("expected error for empty database URL")
	}
}

func TestNewPoolWithConfigInvalidURL(t *testing.T) {
	ctx := context.Background()

	if _, err := NewPoolWithConfig(ctx, PoolConfig{DatabaseURL: "not-a-url"}); err == nil {
		t.Fatalf("expected error when parsing invalid URL")
	}
}

func TestNewPoolWithConfigPingFailure(t *testing.T) {
	ctx := context.Background()
	cfg := PoolConfig{
		DatabaseURL:    "postgres://invalid:5432/db?connect_timeout=1",
		MaxConns:       1,
		ConnectTimeout: 2 * time.Second,
	}

	_, err := NewPoolWithConfig(ctx, cfg)
	if err == nil {
		t.Fatalf("expected error when pool cannot connect")
	}
}

func TestMigrationSourceEmbedded(t *testing.T) {
	src, err := migrationSource("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	version, err := src.First()
	if err != nil {
		t.Fatalf("expected embedded migrations: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected first migration version 1, got %d", version)
	}
}
