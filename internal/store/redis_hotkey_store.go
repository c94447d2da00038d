package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultHotKeyScoresKey = "social:hotkey:scores"

// HotKeyStore tracks how often each identity's relationships are read so
// the busiest ones can be kept warm.
type HotKeyStore interface {
	RecordAccess(ctx context.Context, userID string) error
	GetTopHotKeys(ctx context.Context, n int64) ([]string, error)
	ResetHotKeyScores(ctx context.Context) error
	Close() error
}

// RedisHotKeyStore implements HotKeyStore with a Redis sorted set.
type RedisHotKeyStore struct {
	client *redis.Client
	key    string
}

// NewRedisHotKeyStore connects to Redis and verifies the connection.
func NewRedisHotKeyStore(address, password string, db int) (*RedisHotKeyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisHotKeyStoreFromClient(client, ""), nil
}

// NewRedisHotKeyStoreFromClient uses an existing client. An empty key uses
// the default sorted set name.
func NewRedisHotKeyStoreFromClient(client *redis.Client, key string) *RedisHotKeyStore {
	if key == "" {
		key = defaultHotKeyScoresKey
	}
	return &RedisHotKeyStore{client: client, key: key}
}

// RecordAccess increments the access score for a user in the hot key sorted set.
func (s *RedisHotKeyStore) RecordAccess(ctx context.Context, userID string) error {
	err := s.client.ZIncrBy(ctx, s.key, 1, userID).Err()
	if err != nil {
		return fmt.Errorf("redis record access: %w", err)
	}
	return nil
}

// GetTopHotKeys returns the top-n most accessed user IDs.
func (s *RedisHotKeyStore) GetTopHotKeys(ctx context.Context, n int64) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	keys, err := s.client.ZRevRange(ctx, s.key, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get top hot keys: %w", err)
	}
	return keys, nil
}

// ResetHotKeyScores deletes the hot key scores sorted set.
func (s *RedisHotKeyStore) ResetHotKeyScores(ctx context.Context) error {
	err := s.client.Del(ctx, s.key).Err()
	if err != nil {
		return fmt.Errorf("redis reset hot key scores: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisHotKeyStore) Close() error {
	return s.client.Close()
}

var _ HotKeyStore = (*RedisHotKeyStore)(nil)
