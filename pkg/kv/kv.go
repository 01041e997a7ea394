// Package kv is the durable key-value layer behind the trend history and
// category overrides. Values are opaque bytes; callers own the encoding.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"xfollowers/pkg/config"
)

// ErrNotFound is returned by Get when a key has never been set or was deleted
var ErrNotFound = errors.New("kv: key not found")

// Store is a minimal durable key-value store. Implementations assume a
// single writer per key; concurrent writers are last-write-wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the backend selected by cfg.Backend
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "file":
		return NewFileStore(cfg.Path)
	case "sqlite":
		return NewSQLiteStore(ctx, cfg.Path)
	case "redis":
		return NewRedisStore(ctx, cfg.RedisURL)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("kv: unknown backend %q", cfg.Backend)
	}
}
