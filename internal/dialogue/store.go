package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Store persists one Conversation record per active session.
type Store interface {
	Save(ctx context.Context, conv *Conversation) error
	Load(ctx context.Context, id string) (*Conversation, error)
}

// RedisStore keeps conversation records in Redis with a session TTL.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisStore wraps a Redis client as a conversation store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("dialogue: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("firsttier.internal.dialogue.store"),
	}
}

func conversationKey(id string) string {
	return fmt.Sprintf("conversation:%s", id)
}

func (s *RedisStore) Save(ctx context.Context, conv *Conversation) error {
	ctx, span := s.tracer.Start(ctx, "dialogue.save_conversation")
	defer span.End()

	data, err := json.Marshal(conv)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("dialogue: failed to marshal conversation: %w", err)
	}
	if err := s.redis.Set(ctx, conversationKey(conv.ID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("dialogue: failed to persist conversation: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Conversation, error) {
	ctx, span := s.tracer.Start(ctx, "dialogue.load_conversation")
	defer span.End()

	data, err := s.redis.Get(ctx, conversationKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("dialogue: failed to load conversation: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("dialogue: failed to decode conversation: %w", err)
	}
	return &conv, nil
}

// MemoryStore is an in-process store for tests and single-node development.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryStore returns an empty in-memory conversation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func (s *MemoryStore) Save(ctx context.Context, conv *Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("dialogue: failed to marshal conversation: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[conv.ID] = data
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*Conversation, error) {
	s.mu.RLock()
	data, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("dialogue: failed to decode conversation: %w", err)
	}
	return &conv, nil
}
