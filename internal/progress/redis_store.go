package progress

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisConfig configures Redis access for completion state.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	// TTL expires a session's completion hash after its last update. Zero keeps it.
	TTL time.Duration
}

// RedisStore keeps one hash per session: field = step id, value = unix time completed.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore constructs a Redis-backed completion store.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = "chronosec:progress"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis progress store: %w", err)
	}

	return &RedisStore{client: client, prefix: strings.TrimSpace(cfg.KeyPrefix), ttl: cfg.TTL}, nil
}

func (s *RedisStore) SetCompleted(ctx context.Context, session, step string, done bool) error {
	key := s.sessionKey(session)
	pipe := s.client.TxPipeline()
	if done {
		pipe.HSet(ctx, key, step, strconv.FormatInt(time.Now().Unix(), 10))
	} else {
		pipe.HDel(ctx, key, step)
	}
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update progress %s/%s: %w", session, step, err)
	}
	return nil
}

func (s *RedisStore) Completed(ctx context.Context, session string) (map[string]bool, error) {
	hash, err := s.client.HGetAll(ctx, s.sessionKey(session)).Result()
	if err != nil {
		return nil, fmt.Errorf("read progress %s: %w", session, err)
	}
	out := make(map[string]bool, len(hash))
	for step := range hash {
		out[step] = true
	}
	return out, nil
}

func (s *RedisStore) Clear(ctx context.Context, session string) error {
	if err := s.client.Del(ctx, s.sessionKey(session)).Err(); err != nil {
		return fmt.Errorf("clear progress %s: %w", session, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *RedisStore) sessionKey(session string) string {
	return s.prefix + ":" + session
}
