// Package store provides the key-value backends for profiles and scan history.
package store

import (
	"context"
	"fmt"

	"github.com/allergenapp/backend/internal/domain"
)

// Store backend types
const (
	TypeMemory = "memory"
	TypeSQLite = "sqlite"
	TypeRedis  = "redis"
)

// Config selects and configures a backend
type Config struct {
	Type       string
	SQLitePath string
	RedisURL   string
}

// New opens the configured backend
func New(ctx context.Context, cfg Config) (domain.KeyValueStore, error) {
	switch cfg.Type {
	case TypeMemory, "":
		return NewMemoryStore(), nil
	case TypeSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case TypeRedis:
		return NewRedisStore(ctx, cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}
