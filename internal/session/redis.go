package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
)

const defaultRedisPrefix = "assistant:session:"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr     string
	Password string
	DB       int
	// Prefix is the key prefix for conversation keys (default: "assistant:session:").
	Prefix string
	// TTL is the conversation expiry (0 = never expire).
	TTL        time.Duration
	PoolSize   int
	MaxHistory int
}

// RedisStore is a Manager backed by Redis. Each conversation is one JSON
// value under prefix+sessionID.
type RedisStore struct {
	client     *redis.Client
	prefix     string
	ttl        time.Duration
	maxHistory int
	mu         sync.RWMutex
	closed     bool
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: poolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	s := NewRedisStoreFromClient(client, cfg.Prefix, cfg.TTL)
	if cfg.MaxHistory > 0 {
		s.maxHistory = cfg.MaxHistory
	}
	return s, nil
}

// NewRedisStoreFromClient creates a store over an existing client.
// This is useful for testing with miniredis.
func NewRedisStoreFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{
		client:     client,
		prefix:     prefix,
		ttl:        ttl,
		maxHistory: DefaultMaxHistory,
	}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStorageClosed
	}
	return nil
}

// Load retrieves a conversation, or a new one when the key is missing.
func (s *RedisStore) Load(ctx context.Context, sessionID, userID string) (*agent.Conversation, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return agent.NewConversation(sessionID, userID), nil
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	var conv agent.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	if conv.State == nil {
		conv.State = make(map[string]any)
	}
	return &conv, nil
}

// UpdateContext writes the conversation, trimming history to MaxHistory.
func (s *RedisStore) UpdateContext(ctx context.Context, conv *agent.Conversation) error {
	if conv == nil || conv.SessionID == "" {
		return ErrInvalidConversation
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	stored := conv.Clone()
	trimHistory(stored, s.maxHistory)

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}

	if err := s.client.Set(ctx, s.key(conv.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

// Delete removes a conversation
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}
