package catalog

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"kelasku/backend/internal/domain"
)

type Source interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// Cache memoizes the first successful catalog load for the lifetime of the
// process. Concurrent cold callers share a single load. Failed loads are not
// cached.
type Cache struct {
	source Source
	group  singleflight.Group

	mu       sync.RWMutex
	products []domain.Product
	byID     map[int]domain.Product
	loaded   bool
}

func NewCache(source Source) *Cache {
	return &Cache{source: source}
}

func (c *Cache) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if products, ok := c.snapshot(); ok {
		return products, nil
	}

	// The shared load outlives any single caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	_, err, _ := c.group.Do("catalog", func() (any, error) {
		if _, ok := c.snapshot(); ok {
			return nil, nil
		}
		products, err := c.source.ListProducts(loadCtx)
		if err != nil {
			return nil, err
		}
		c.store(products)
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	products, _ := c.snapshot()
	return products, nil
}

func (c *Cache) Lookup(ctx context.Context, id int) (domain.Product, bool, error) {
	if _, err := c.ListProducts(ctx); err != nil {
		return domain.Product{}, false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[id]
	return p, ok, nil
}

func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// snapshot hands out a copy so callers cannot reorder the cached catalog.
func (c *Cache) snapshot() ([]domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, false
	}
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out, true
}

func (c *Cache) store(products []domain.Product) {
	byID := make(map[int]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	kept := make([]domain.Product, len(products))
	copy(kept, products)

	c.mu.Lock()
	c.products = kept
	c.byID = byID
	c.loaded = true
	c.mu.Unlock()
}
