package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryCache implements CacheBackend using sync.Map. Expired entries are
// dropped lazily on read and swept periodically; when the sweep finds more
// than maxSize live entries, the ones closest to expiry go first.
type MemoryCache struct {
	data            sync.Map
	maxSize         int
	cleanupInterval time.Duration
	stopCh          chan struct{}
}

type memoryCacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(maxSize int, cleanupInterval time.Duration) *MemoryCache {
	mc := &MemoryCache{
		maxSize:         maxSize,
		cleanupInterval: cleanupInterval,
		stopCh:          make(chan struct{}),
	}
	go mc.cleanupLoop()
	return mc
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, ok := m.data.Load(key)
	if !ok {
		return nil, false, nil
	}
	entry := val.(*memoryCacheEntry)
	if time.Now().After(entry.expiresAt) {
		m.data.Delete(key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.data.Store(key, &memoryCacheEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	})
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.data.Delete(key)
	return nil
}

func (m *MemoryCache) GetMultiple(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte)
	now := time.Now()
	for _, key := range keys {
		val, ok := m.data.Load(key)
		if !ok {
			continue
		}
		entry := val.(*memoryCacheEntry)
		if now.After(entry.expiresAt) {
			m.data.Delete(key)
			continue
		}
		result[key] = entry.value
	}
	return result, nil
}

func (m *MemoryCache) SetMultiple(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl)
	for key, value := range items {
		m.data.Store(key, &memoryCacheEntry{
			value:     value,
			expiresAt: expiresAt,
		})
	}
	return nil
}

func (m *MemoryCache) Close() error {
	close(m.stopCh)
	return nil
}

func (m *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

type liveEntry struct {
	key       string
	expiresAt time.Time
}

func (m *MemoryCache) cleanup() {
	now := time.Now()
	var live []liveEntry

	// Remove expired entries and collect the rest
	m.data.Range(func(key, value interface{}) bool {
		k := key.(string)
		entry := value.(*memoryCacheEntry)
		if now.After(entry.expiresAt) {
			m.data.Delete(k)
		} else {
			live = append(live, liveEntry{key: k, expiresAt: entry.expiresAt})
		}
		return true
	})

	// Enforce max size, evicting entries closest to expiry first
	if len(live) > m.maxSize {
		sort.Slice(live, func(i, j int) bool {
			return live[i].expiresAt.Before(live[j].expiresAt)
		})
		for _, entry := range live[:len(live)-m.maxSize] {
			m.data.Delete(entry.key)
		}
	}
}
