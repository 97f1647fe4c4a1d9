package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// PageCache holds rendered pages keyed by request path. Each path has a
// generation that Invalidate bumps; a page is stored under the generation
// that was current when its render started, so a render that overlaps a
// write can never be served after it.
type PageCache interface {
	Get(ctx context.Context, path string) ([]byte, bool, error)
	// Generation returns the current generation of path. Read it before
	// loading the data a page is rendered from.
	Generation(ctx context.Context, path string) (int64, error)
	// Set stores body rendered at generation gen. Bodies from an older
	// generation are never returned by Get.
	Set(ctx context.Context, path string, gen int64, body []byte) error
	Invalidate(ctx context.Context, path string) error
}

func pageKey(path string, gen int64) string {
	return "page:" + path + ":" + strconv.FormatInt(gen, 10)
}

func genKey(path string) string {
	return "page:gen:" + path
}

type memoryEntry struct {
	gen     int64
	body    []byte
	expires time.Time
}

// MemoryCache is the in-process PageCache used when no Redis is configured.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	gens    map[string]int64
	entries map[string]memoryEntry
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		gens:    map[string]int64{},
		entries: map[string]memoryEntry{},
	}
}

func (c *MemoryCache) Get(_ context.Context, path string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	if !ok || e.gen != c.gens[path] {
		return nil, false, nil
	}
	if c.ttl > 0 && c.now().After(e.expires) {
		delete(c.entries, path)
		return nil, false, nil
	}
	return e.body, true, nil
}

func (c *MemoryCache) Generation(_ context.Context, path string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[path], nil
}

func (c *MemoryCache) Set(_ context.Context, path string, gen int64, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	// 渲染期间发生过写入，丢弃旧页面
	if gen != c.gens[path] {
		return nil
	}
	c.entries[path] = memoryEntry{gen: gen, body: append([]byte(nil), body...), expires: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[path]++
	delete(c.entries, path)
	return nil
}
