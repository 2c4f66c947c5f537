package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "table-session:"

// RedisStore persists table sessions as JSON values with the guard's TTL,
// so abandoned bindings expire server-side as well.
type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client}
}

func (s *RedisStore) Save(ctx context.Context, key string, sess TableSession) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, keyPrefix+key, payload, TTL).Err()
}

func (s *RedisStore) Load(ctx context.Context, key string) (*TableSession, error) {
	payload, err := s.Client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess TableSession
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.Client.Del(ctx, keyPrefix+key).Err()
}

// MemoryStore is the durable-store stand-in for tests and for deployments
// without Redis configured.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]TableSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]TableSession)}
}

func (s *MemoryStore) Save(_ context.Context, key string, sess TableSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = sess
	return nil
}

func (s *MemoryStore) Load(_ context.Context, key string) (*TableSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}
