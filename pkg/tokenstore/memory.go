package tokenstore

import (
	"context"
	"time"

	"brokerage-chat/backend/pkg/cache"
)

// MemoryStore is the single-instance fallback used when Redis is disabled
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore creates an in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: cache.New(cache.Options{CleanupInterval: 10 * time.Minute}),
	}
}

// Revoke marks jti as revoked until the given time
func (s *MemoryStore) Revoke(_ context.Context, jti string, until time.Time) error {
	if jti == "" {
		return nil
	}
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	s.cache.SetWithExpiration(jti, struct{}{}, ttl)
	return nil
}

// IsRevoked reports whether jti was revoked
func (s *MemoryStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, ok := s.cache.Get(jti)
	return ok, nil
}

// Close stops the cleanup goroutine
func (s *MemoryStore) Close() {
	s.cache.Close()
}
