package cache

import (
	"context"
	"sync"
	"time"

	"kelasku/backend/internal/domain"
)

// SuggestionCache holds the latest published suggestion result per user.
type SuggestionCache interface {
	Get(ctx context.Context, userID string) (*domain.SuggestionResult, bool, error)
	Set(ctx context.Context, userID string, value *domain.SuggestionResult, ttl time.Duration) error
	Delete(ctx context.Context, userID string) error
}

func suggestionKey(userID string) string {
	return "kelasku:suggestions:" + userID
}

type NoopSuggestionCache struct{}

func (NoopSuggestionCache) Get(_ context.Context, _ string) (*domain.SuggestionResult, bool, error) {
	return nil, false, nil
}

func (NoopSuggestionCache) Set(_ context.Context, _ string, _ *domain.SuggestionResult, _ time.Duration) error {
	return nil
}

func (NoopSuggestionCache) Delete(_ context.Context, _ string) error {
	return nil
}

type memoryEntry struct {
	value     domain.SuggestionResult
	expiresAt time.Time
}

// MemorySuggestionCache is a process-local cache with per-entry TTL. A zero
// or negative TTL keeps the entry until it is replaced or deleted.
type MemorySuggestionCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemorySuggestionCache() *MemorySuggestionCache {
	return &MemorySuggestionCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemorySuggestionCache) Get(_ context.Context, userID string) (*domain.SuggestionResult, bool, error) {
	key := suggestionKey(userID)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		if current, still := c.entries[key]; still && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}

	value := entry.value
	value.Items = append([]domain.Product(nil), entry.value.Items...)
	return &value, true, nil
}

func (c *MemorySuggestionCache) Set(_ context.Context, userID string, value *domain.SuggestionResult, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	entry := memoryEntry{value: *value}
	entry.value.Items = append([]domain.Product(nil), value.Items...)
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[suggestionKey(userID)] = entry
	c.mu.Unlock()
	return nil
}

func (c *MemorySuggestionCache) Delete(_ context.Context, userID string) error {
	c.mu.Lock()
	delete(c.entries, suggestionKey(userID))
	c.mu.Unlock()
	return nil
}
