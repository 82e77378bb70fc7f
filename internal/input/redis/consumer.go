// Package redis consumes intake alerts from a Redis list.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// DefaultKey is the intake list read when no key is configured.
const DefaultKey = "chronosec:incidents"

// Config configures the Redis consumer.
type Config struct {
	Addr         string
	Password     string
	DB           int
	Key          string
	BlockTimeout time.Duration
	// DeadLetterKey receives payloads that could not be parsed. Defaults to Key + ":dead".
	DeadLetterKey string
}

// Consumer wraps a Redis list popper.
type Consumer struct {
	client       *redis.Client
	key          string
	deadKey      string
	blockTimeout time.Duration
}

// NewConsumer creates a Redis consumer for list-based queues.
func NewConsumer(cfg Config) (*Consumer, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.BlockTimeout == 0 {
		cfg.BlockTimeout = 5 * time.Second
	}
	if cfg.DeadLetterKey == "" {
		cfg.DeadLetterKey = DeadLetterKey(cfg.Key)
	}
	if cfg.DeadLetterKey == cfg.Key {
		return nil, fmt.Errorf("dead-letter key must differ from intake key %q", cfg.Key)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Consumer{
		client:       client,
		key:          cfg.Key,
		deadKey:      cfg.DeadLetterKey,
		blockTimeout: cfg.BlockTimeout,
	}, nil
}

// DeadLetterKey returns the default dead-letter list for key.
func DeadLetterKey(key string) string {
	return key + ":dead"
}

// Key returns the intake list name.
func (c *Consumer) Key() string { return c.key }

// Pop pops one message from the list. It returns nil, nil when the block
// timeout passes without a message.
func (c *Consumer) Pop(ctx context.Context) ([]byte, error) {
	res, err := c.client.BLPop(ctx, c.blockTimeout, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

// Push appends a payload to the intake list.
func (c *Consumer) Push(ctx context.Context, payload []byte) error {
	if err := c.client.RPush(ctx, c.key, payload).Err(); err != nil {
		return fmt.Errorf("push to %s: %w", c.key, err)
	}
	return nil
}

// DeadLetter parks a payload that could not be processed.
func (c *Consumer) DeadLetter(ctx context.Context, payload []byte) error {
	if err := c.client.RPush(ctx, c.deadKey, payload).Err(); err != nil {
		return fmt.Errorf("push to %s: %w", c.deadKey, err)
	}
	return nil
}

// Close closes the consumer.
func (c *Consumer) Close() error {
	return c.client.Close()
}
