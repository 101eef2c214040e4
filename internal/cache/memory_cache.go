package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"cadgen/internal/model"
)

// MemorySessionStore keeps sessions in process. States are stored as JSON so
// callers never share a pointer with the cache.
type MemorySessionStore struct {
	cache *gocache.Cache
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &MemorySessionStore{cache: gocache.New(ttl, 10*time.Minute)}
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*model.SessionState, bool, error) {
	x, found := s.cache.Get(id)
	if !found {
		return nil, false, nil
	}
	var state model.SessionState
	if err := json.Unmarshal(x.([]byte), &state); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached session failed: %w", err)
	}
	return &state, true, nil
}

func (s *MemorySessionStore) Save(_ context.Context, state *model.SessionState) error {
	state.UpdatedAt = time.Now()
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}
	s.cache.Set(state.ID, payload, gocache.DefaultExpiration)
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.cache.Delete(id)
	return nil
}

func (s *MemorySessionStore) Ping(context.Context) error { return nil }

func (s *MemorySessionStore) Name() string { return "memory" }
