package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultTTL is how long idle user state survives in Redis. The engine
	// only looks back 60 days (watch history), so 90 days is comfortably
	// past every rolling window.
	DefaultTTL = 90 * 24 * time.Hour

	// KeyPrefix is the prefix for all per-user state hashes.
	KeyPrefix = "attention_budget:user_state:"

	// changeChannelPrefix is the pub/sub channel prefix for Set patches.
	changeChannelPrefix = "attention_budget:changes:"
)

// RedisKVConfig tunes the Redis-backed store.
type RedisKVConfig struct {
	TTL time.Duration
}

// RedisKV stores each user's state as a Redis hash, one field per logical
// key, and broadcasts patches over pub/sub for Subscribe.
type RedisKV struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisKV creates a Redis-backed KV store.
func NewRedisKV(client *redis.Client, cfg RedisKVConfig) *RedisKV {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisKV{client: client, ttl: ttl}
}

// InitRedisClient initializes and returns a Redis client, retrying the
// initial ping with exponential backoff.
func InitRedisClient(ctx context.Context, addr, password string, maxRetries int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(maxRetries)), ctx)
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if _, err := client.Ping(ctx).Result(); err != nil {
			logrus.Warnf("Redis connection failed (attempt %d): %v", attempt, err)
			return err
		}
		return nil
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logrus.Infof("connected to Redis at %s (attempt %d)", addr, attempt)
	return client, nil
}

func makeKey(userID string) string {
	return KeyPrefix + userID
}

// Get implements KV.
func (s *RedisKV) Get(ctx context.Context, userID string, fields ...string) (Record, error) {
	if len(fields) == 0 {
		return Record{}, nil
	}

	values, err := s.client.HMGet(ctx, makeKey(userID), fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get fields for user %s: %w", userID, err)
	}

	rec := make(Record, len(fields))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			continue // field absent
		}
		rec[fields[i]] = json.RawMessage(str)
	}
	return rec, nil
}

// Set implements KV.
func (s *RedisKV) Set(ctx context.Context, userID string, patch Record) error {
	if len(patch) == 0 {
		return nil
	}

	key := makeKey(userID)
	args := make([]interface{}, 0, len(patch)*2)
	for field, raw := range patch {
		args = append(args, field, string(raw))
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, args...)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set fields for user %s: %w", userID, err)
	}

	// Change notification is best-effort; a lost publish only delays other
	// tabs until their next read.
	payload, err := json.Marshal(patch)
	if err == nil {
		if err := s.client.Publish(ctx, changeChannelPrefix+userID, payload).Err(); err != nil {
			logrus.Debugf("failed to publish change for user %s: %v", userID, err)
		}
	}

	return nil
}

// Subscribe implements KV using Redis pub/sub.
func (s *RedisKV) Subscribe(ctx context.Context, userID string, fn func(Record)) (func(), error) {
	sub := s.client.Subscribe(ctx, changeChannelPrefix+userID)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("failed to subscribe for user %s: %w", userID, err)
	}

	go func() {
		for msg := range sub.Channel() {
			var rec Record
			if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
				logrus.Warnf("malformed change payload for user %s: %v", userID, err)
				continue
			}
			fn(rec)
		}
	}()

	return func() { _ = sub.Close() }, nil
}
