package state

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore is used when redis is unreachable. State only survives within
// a single process.
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: cache.New(10*time.Minute, time.Minute),
	}
}

func (s *MemoryStore) Save(ctx context.Context, state string, value OAuthState, ttl time.Duration) error {
	s.cache.Set(state, value, ttl)
	return nil
}

func (s *MemoryStore) Consume(ctx context.Context, state string) (*OAuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	x, found := s.cache.Get(state)
	if !found {
		return nil, nil
	}
	s.cache.Delete(state)

	value := x.(OAuthState)
	return &value, nil
}
