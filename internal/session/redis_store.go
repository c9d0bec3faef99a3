// Package session persists the device's signed-in identity so a restarted
// process resumes its session without credentials, the way the mobile app
// restored its auth state from local storage.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no session is persisted for a device.
var ErrNotFound = errors.New("session not found or expired")

// Record holds the persisted identity for one device.
type Record struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	IsAnonymous bool      `json:"is_anonymous"`
	CreatedAt   time.Time `json:"created_at"`
}

// RedisStore implements device-session storage using Redis
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a new Redis-backed session store
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		prefix: "device:",
		ttl:    ttl,
	}, nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "device:",
		ttl:    ttl,
	}
}

func (s *RedisStore) key(deviceID string) string {
	return s.prefix + deviceID
}

// Save stores the device's current identity with the configured TTL.
func (s *RedisStore) Save(ctx context.Context, deviceID string, record Record) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	jsonData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := s.ttl
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour // Default 30 days
	}

	if err := s.client.Set(ctx, s.key(deviceID), jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Lookup retrieves the persisted identity for a device.
func (s *RedisStore) Lookup(ctx context.Context, deviceID string) (Record, error) {
	jsonData, err := s.client.Get(ctx, s.key(deviceID)).Result()
	if err == redis.Nil {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("lookup session: %w", err)
	}

	var record Record
	if err := json.Unmarshal([]byte(jsonData), &record); err != nil {
		return Record{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return record, nil
}

// Revoke deletes the device's persisted session.
func (s *RedisStore) Revoke(ctx context.Context, deviceID string) error {
	if err := s.client.Del(ctx, s.key(deviceID)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
