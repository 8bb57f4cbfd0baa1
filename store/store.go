// Package store provides key/value backends for saved wizard progress.
// Writes are last-write-wins; no backend coordinates concurrent sessions.
package store

import (
	"context"
	"fmt"

	"verinest-onboarding/config"
)

// Store is a wizard.StateStore that owns a connection.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, blob []byte) error
	Clear(ctx context.Context, key string) error
	Close() error
}

// Open returns the backend selected by cfg.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(cfg.Path)
	case "redis":
		return NewRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.TTL,
		})
	case "sqlite":
		return NewSQLite(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Key builds the per-flow storage key of a user's wizard.
func Key(flow, userID string) string {
	return fmt.Sprintf("wizard:%s:%s", flow, userID)
}
