package cache

import (
	"context"
	"sync"
	"time"
)

// Store is a byte-oriented key/value cache. A miss is reported through the
// bool, never as an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Item represents a cached item with expiration
type Item struct {
	Value      []byte
	Expiration int64
}

// Expired checks if the cache item has expired
func (item Item) Expired(now int64) bool {
	if item.Expiration == 0 {
		return false
	}
	return now > item.Expiration
}

// Memory is a thread-safe in-process Store with expiration and a size cap.
type Memory struct {
	items             map[string]Item
	mu                sync.RWMutex
	defaultExpiration time.Duration
	maxItems          int
	stop              chan struct{}
	stopOnce          sync.Once
}

// NewMemory creates a cache. A positive cleanupInterval starts a janitor
// goroutine that lives until Close.
func NewMemory(defaultExpiration, cleanupInterval time.Duration, maxItems int) *Memory {
	c := &Memory{
		items:             make(map[string]Item),
		defaultExpiration: defaultExpiration,
		maxItems:          maxItems,
		stop:              make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go c.startCleanupTimer(cleanupInterval)
	}

	return c
}

// Get retrieves an item from the cache
func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found || item.Expired(time.Now().UnixNano()) {
		return nil, false, nil
	}

	out := make([]byte, len(item.Value))
	copy(out, item.Value)
	return out, true, nil
}

// Set adds an item with the default expiration
func (c *Memory) Set(_ context.Context, key string, value []byte) error {
	var exp int64
	if c.defaultExpiration > 0 {
		exp = time.Now().Add(c.defaultExpiration).UnixNano()
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxItems > 0 && len(c.items) >= c.maxItems {
		c.evictOldest()
	}

	c.items[key] = Item{Value: stored, Expiration: exp}
	return nil
}

// Delete removes an item from the cache
func (c *Memory) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Count returns the number of items in the cache (including expired items)
func (c *Memory) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Close stops the janitor goroutine.
func (c *Memory) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

func (c *Memory) startCleanupTimer(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Memory) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for k, v := range c.items {
		if v.Expired(now) {
			delete(c.items, k)
		}
	}
}

// evictOldest drops the entry closest to expiry. Caller holds the lock.
func (c *Memory) evictOldest() {
	var oldestKey string
	var oldest int64
	first := true

	for k, v := range c.items {
		if first || (v.Expiration != 0 && (oldest == 0 || v.Expiration < oldest)) {
			oldestKey = k
			oldest = v.Expiration
			first = false
		}
	}

	if !first {
		delete(c.items, oldestKey)
	}
}
