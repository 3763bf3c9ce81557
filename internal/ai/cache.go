package ai

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Entry is a cached completion.
type Entry struct {
	Text         string `json:"text"`
	PromptTokens int    `json:"prompt_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Cache stores completions by payload key. Implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool)
	Set(ctx context.Context, key string, e Entry)
	Delete(ctx context.Context, key string)
}

// LRUCache is a bounded in-process cache.
type LRUCache struct {
	entries *lru.Cache[string, Entry]
}

const defaultCacheSize = 256

func NewLRUCache(size int) *LRUCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	entries, _ := lru.New[string, Entry](size) // only fails for size <= 0
	return &LRUCache{entries: entries}
}

func (c *LRUCache) Get(_ context.Context, key string) (Entry, bool) {
	return c.entries.Get(key)
}

func (c *LRUCache) Set(_ context.Context, key string, e Entry) {
	c.entries.Add(key, e)
}

func (c *LRUCache) Delete(_ context.Context, key string) {
	c.entries.Remove(key)
}

func (c *LRUCache) Len() int {
	return c.entries.Len()
}

// TieredCache checks L1, then L2. L2 hits are promoted to L1.
type TieredCache struct {
	l1 Cache
	l2 Cache
}

func NewTieredCache(l1, l2 Cache) *TieredCache {
	return &TieredCache{l1: l1, l2: l2}
}

func (c *TieredCache) Get(ctx context.Context, key string) (Entry, bool) {
	if e, ok := c.l1.Get(ctx, key); ok {
		return e, true
	}
	e, ok := c.l2.Get(ctx, key)
	if ok {
		c.l1.Set(ctx, key, e)
	}
	return e, ok
}

func (c *TieredCache) Set(ctx context.Context, key string, e Entry) {
	c.l1.Set(ctx, key, e)
	c.l2.Set(ctx, key, e)
}

func (c *TieredCache) Delete(ctx context.Context, key string) {
	c.l1.Delete(ctx, key)
	c.l2.Delete(ctx, key)
}
