package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis lists, one list per session.
// It suits multi-instance deployments where history must be shared and
// idle sessions should expire automatically.
type RedisStore struct {
	// client is the underlying Redis client.
	client *redis.Client
	// ttl is the idle expiry applied to each session list on write.
	// Zero disables expiry.
	ttl time.Duration
}

// RedisConfig holds connection parameters for a RedisStore.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string
	// Password is the optional Redis AUTH password.
	Password string
	// DB is the Redis logical database number.
	DB int
	// TTL is the idle expiry for session lists (default: 24h, 0 keeps default).
	TTL time.Duration
}

// OpenRedis connects to Redis and verifies the connection with a ping.
func OpenRedis(ctx context.Context, cfg *RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("memory: redis ping %s: %w", cfg.Addr, err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// sessionKey namespaces session lists in the keyspace.
func sessionKey(sessionID string) string {
	return "navigator:session:" + sessionID
}

// Append pushes turns onto the session list and refreshes its expiry.
func (s *RedisStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now()
		}
		encoded, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("memory: encode turn: %w", err)
		}
		values = append(values, encoded)
	}

	key := sessionKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("memory: append: %w", err)
	}
	return nil
}

// Recent returns the last n turns for the session, oldest-first.
func (s *RedisStore) Recent(ctx context.Context, sessionID string, n int) ([]Turn, error) {
	raw, err := s.client.LRange(ctx, sessionKey(sessionID), int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("memory: recent: %w", err)
	}

	turns := make([]Turn, 0, len(raw))
	for _, r := range raw {
		var t Turn
		if err := json.Unmarshal([]byte(r), &t); err != nil {
			return nil, fmt.Errorf("memory: decode turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("memory: close: %w", err)
	}
	return nil
}
