package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"cadgen/internal/model"
)

type RedisSessionStore struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redisv9.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*model.SessionState, bool, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(id)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get session failed: %w", err)
	}

	var state model.SessionState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached session failed: %w", err)
	}
	return &state, true, nil
}

// Save writes the state and refreshes its expiry.
func (s *RedisSessionStore) Save(ctx context.Context, state *model.SessionState) error {
	state.UpdatedAt = time.Now()
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}
	if err := s.client.Set(ctx, s.sessionKey(state.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session failed: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session failed: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSessionStore) Name() string { return "redis" }

func (s *RedisSessionStore) sessionKey(id string) string {
	return fmt.Sprintf("cadgen:session:%s", id)
}
