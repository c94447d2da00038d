package cache

import (
	"context"
	"errors"
	"time"
)

var ErrUnknownBackend = errors.New("unknown cache backend")

// Backend is the key-value store behind EdgeCache. Get collapses "has" and
// "get" into one call so a concurrent delete cannot slip between them.
type Backend interface {
	// Get returns the stored ids and true, or false on a miss.
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, ids []string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config selects and configures a Backend.
type Config struct {
	Driver string `mapstructure:"driver"` // "redis", "memory"

	RedisAddress  string `mapstructure:"redis_address"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	MemorySize int `mapstructure:"memory_size"`
}

// NewBackend creates the Backend named by cfg.Driver.
func NewBackend(cfg Config) (Backend, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedisBackend(cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
	case "memory", "":
		return NewMemoryBackend(cfg.MemorySize)
	default:
		return nil, ErrUnknownBackend
	}
}
