package web

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// PageCache memoizes rendered page bytes by request path. Command handlers
// signal writes through Invalidate, which evicts the affected paths so the
// next view recomputes them. It satisfies service.Invalidator.
type PageCache struct {
	cache *lru.Cache[string, []byte]
}

func NewPageCache(size int) (*PageCache, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create page cache: %w", err)
	}
	return &PageCache{cache: cache}, nil
}

func (p *PageCache) Get(path string) ([]byte, bool) {
	return p.cache.Get(path)
}

func (p *PageCache) Put(path string, body []byte) {
	p.cache.Add(path, body)
}

// Invalidate marks the given paths stale by evicting their cached renders.
func (p *PageCache) Invalidate(paths ...string) {
	for _, path := range paths {
		p.cache.Remove(path)
	}
}
