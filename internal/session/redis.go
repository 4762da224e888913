package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"tourchat/internal/common/database"
	"tourchat/internal/models"
)

const keyPrefix = "tourchat:conversation:"

// RedisStore keeps conversations in Redis with a rolling TTL so multiple
// instances can share dialogue state. Locking is still per-process: the
// HTTP layer routes a conversation to a single instance.
type RedisStore struct {
	client *database.RedisClient
	ttl    time.Duration

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewRedisStore(client *database.RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Conversation, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id)
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation %s: %w", id, err)
	}

	var conv models.Conversation
	if err := json.Unmarshal([]byte(raw), &conv); err != nil {
		return nil, fmt.Errorf("failed to decode conversation %s: %w", id, err)
	}
	return &conv, nil
}

func (s *RedisStore) Save(ctx context.Context, conv *models.Conversation) error {
	raw, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to encode conversation %s: %w", conv.ID, err)
	}

	if err := s.client.Set(ctx, keyPrefix+conv.ID, raw, s.ttl); err != nil {
		return fmt.Errorf("failed to save conversation %s: %w", conv.ID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id); err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Lock(id string) func() {
	s.locksMu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.locksMu.Unlock()

	m.Lock()
	return m.Unlock
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
