package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryItem struct {
	entry     Entry
	expiresAt time.Time
}

// MemoryCache is an in-process Cache guarded by a RWMutex. Expired entries
// are dropped lazily on read and periodically by a sweeper goroutine.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewMemoryCache starts a cache whose sweeper runs every interval. A zero
// interval disables the sweeper.
func NewMemoryCache(sweepInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		items: make(map[string]memoryItem),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if sweepInterval > 0 {
		c.wg.Add(1)
		go c.sweep(sweepInterval)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) (Entry, bool, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false, nil
	}
	if !c.now().Before(it.expiresAt) {
		c.mu.Lock()
		if cur, still := c.items[key]; still && cur.expiresAt.Equal(it.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return Entry{}, false, nil
	}
	return it.entry, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, e Entry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	body := append([]byte(nil), e.Body...)
	e.Body = body
	c.mu.Lock()
	c.items[key] = memoryItem{entry: e, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
			n++
		}
	}
	return n, nil
}

// Len counts stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	c.wg.Wait()
	return nil
}

func (c *MemoryCache) sweep(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *MemoryCache) evictExpired() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, it := range c.items {
		if !now.Before(it.expiresAt) {
			delete(c.items, k)
		}
	}
}
