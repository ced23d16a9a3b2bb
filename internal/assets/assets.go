// Package assets layers a byte cache over one or more transport fetchers.
package assets

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/Faultbox/supermesh/internal/transport"
)

// Manager fetches uris from its sources and caches the results. It
// implements transport.Fetcher.
type Manager struct {
	sources []transport.Fetcher
	cache   *Cache
	mu      sync.RWMutex

	// Cacheable decides which uris are kept. Nil caches everything.
	Cacheable func(uri string) bool
}

// NewManager creates a new asset manager.
func NewManager(sources ...transport.Fetcher) *Manager {
	return &Manager{
		sources: sources,
		cache:   NewCache(),
	}
}

// CacheAssets only caches the immutable per-asset documents; revision lists
// and model settings are always refetched.
func CacheAssets(uri string) bool {
	return strings.HasSuffix(uri, transport.SRCSuffix) || strings.HasSuffix(uri, transport.MappingSuffix)
}

// AddSource adds a fetcher.
// Sources are searched in reverse order (last added = highest priority).
func (m *Manager) AddSource(f transport.Fetcher) {
	m.mu.Lock()
	m.sources = append(m.sources, f)
	m.mu.Unlock()
}

// Fetch returns the bytes of uri from the cache or the first source that has
// them. When every source fails the last error is returned.
func (m *Manager) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if data, ok := m.cache.Get(uri); ok {
		return data, nil
	}

	m.mu.RLock()
	sources := append([]transport.Fetcher(nil), m.sources...)
	m.mu.RUnlock()

	if len(sources) == 0 {
		return nil, errors.Wrapf(transport.ErrTransport, "%s: no sources", uri)
	}

	var lastErr error
	for i := len(sources) - 1; i >= 0; i-- {
		data, err := sources[i].Fetch(ctx, uri)
		if err == nil {
			if m.Cacheable == nil || m.Cacheable(uri) {
				m.cache.Set(uri, data)
			}
			return data, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

// Cache returns the manager's cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Close drops all sources and cached data.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = nil
	m.cache.Clear()
}

// Cache is a simple in-memory cache for fetched documents.
type Cache struct {
	data map[string][]byte
	size int64
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.data[key]; ok {
		c.size -= int64(len(old))
	}
	c.data[key] = data
	c.size += int64(len(data))
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.size = 0
	c.hits = 0
	c.misses = 0
}

// Size returns the number of cached bytes.
func (c *Cache) Size() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
