package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"nostr-workbench/internal/cache"
	"nostr-workbench/internal/types"
)

// Global cache instances
var (
	profileCache *ProfileCacheWrapper
	eventCache   *EventCacheWrapper
	qrCache      *QRCacheWrapper

	// Cache backend (memory or redis)
	cacheBackend cache.CacheBackend

	// Cache configuration
	cacheConfig cache.CacheConfig

	// Cache backend type for health reporting
	cacheBackendType string // "redis" or "memory"
)

// InitCaches initializes all caches with Redis if REDIS_URL is set, otherwise memory
func InitCaches() error {
	cacheConfig = cache.DefaultCacheConfig()
	redisURL := os.Getenv("REDIS_URL")

	if redisURL != "" {
		slog.Info("initializing Redis cache")
		redisCache, err := cache.NewRedisCache(redisURL, "workbench:")
		if err != nil {
			slog.Warn("Redis connection failed, using memory cache", "error", err)
			initMemoryBackend()
		} else {
			cacheBackend = redisCache
			cacheBackendType = "redis"
			slog.Info("Redis cache initialized")
		}
	} else {
		initMemoryBackend()
	}

	profileCache = NewProfileCacheWrapper(cacheBackend, cacheConfig)
	eventCache = NewEventCacheWrapper(cacheBackend, cacheConfig)
	qrCache = NewQRCacheWrapper(cacheBackend, cacheConfig)

	return nil
}

func initMemoryBackend() {
	slog.Info("initializing in-memory cache")
	cacheBackend = cache.NewMemoryCache(10000, 2*time.Minute)
	cacheBackendType = "memory"
}

// CloseCaches releases the backing store
func CloseCaches() {
	if cacheBackend != nil {
		cacheBackend.Close()
	}
}

// CachedProfile wraps a profile with fetch metadata for negative caching
type CachedProfile struct {
	Profile   *types.ProfileInfo `json:"profile"`
	FetchedAt int64              `json:"fetched_at"`
	NotFound  bool               `json:"not_found"`
}

// ProfileCacheWrapper provides typed access to profile cache
type ProfileCacheWrapper struct {
	backend cache.CacheBackend
	config  cache.CacheConfig
}

func NewProfileCacheWrapper(backend cache.CacheBackend, config cache.CacheConfig) *ProfileCacheWrapper {
	return &ProfileCacheWrapper{backend: backend, config: config}
}

// Get retrieves a profile from cache if it exists and isn't expired
// Returns (profile, notFound, inCache) - if inCache is true but notFound is true, we know it doesn't exist
func (c *ProfileCacheWrapper) Get(pubkey string) (*types.ProfileInfo, bool, bool) {
	ctx := context.Background()
	data, found, err := c.backend.Get(ctx, "profile:"+pubkey)
	if err != nil || !found {
		return nil, false, false
	}

	var cached CachedProfile
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, false
	}

	return cached.Profile, cached.NotFound, true
}

// SetMultiple stores multiple profiles at once (nil profiles are stored as "not found")
func (c *ProfileCacheWrapper) SetMultiple(profiles map[string]*types.ProfileInfo) {
	ctx := context.Background()
	now := time.Now().Unix()

	for pubkey, profile := range profiles {
		cached := CachedProfile{
			Profile:   profile,
			FetchedAt: now,
			NotFound:  profile == nil,
		}
		data, err := json.Marshal(cached)
		if err != nil {
			continue
		}

		ttl := c.config.ProfileTTL
		if profile == nil {
			ttl = c.config.ProfileNotFoundTTL
		}
		c.backend.Set(ctx, "profile:"+pubkey, data, ttl)
	}
}

// SetNotFound marks multiple pubkeys as "not found" in cache
func (c *ProfileCacheWrapper) SetNotFound(pubkeys []string) {
	ctx := context.Background()
	now := time.Now().Unix()

	for _, pubkey := range pubkeys {
		cached := CachedProfile{
			FetchedAt: now,
			NotFound:  true,
		}
		data, err := json.Marshal(cached)
		if err != nil {
			continue
		}
		c.backend.Set(ctx, "profile:"+pubkey, data, c.config.ProfileNotFoundTTL)
	}
}

// GetMultiple retrieves multiple profiles, returning found ones and list of missing pubkeys
// Pubkeys with cached "not found" status are NOT included in missing
func (c *ProfileCacheWrapper) GetMultiple(pubkeys []string) (found map[string]*types.ProfileInfo, missing []string) {
	found = make(map[string]*types.ProfileInfo)
	ctx := context.Background()

	keys := make([]string, len(pubkeys))
	for i, pk := range pubkeys {
		keys[i] = "profile:" + pk
	}

	results, err := c.backend.GetMultiple(ctx, keys)
	if err != nil {
		return found, pubkeys
	}

	for i, pubkey := range pubkeys {
		data, ok := results[keys[i]]
		if !ok {
			missing = append(missing, pubkey)
			continue
		}

		var cached CachedProfile
		if err := json.Unmarshal(data, &cached); err != nil {
			missing = append(missing, pubkey)
			continue
		}

		if !cached.NotFound && cached.Profile != nil {
			found[pubkey] = cached.Profile
		}
	}

	return found, missing
}

// EventCacheWrapper provides typed access to fetched events by ID
type EventCacheWrapper struct {
	backend cache.CacheBackend
	config  cache.CacheConfig
}

func NewEventCacheWrapper(backend cache.CacheBackend, config cache.CacheConfig) *EventCacheWrapper {
	return &EventCacheWrapper{backend: backend, config: config}
}

func (c *EventCacheWrapper) Get(eventID string) (*types.Event, bool) {
	ctx := context.Background()
	data, found, err := c.backend.Get(ctx, "event:"+eventID)
	if err != nil || !found {
		return nil, false
	}

	var evt types.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, false
	}
	return &evt, true
}

func (c *EventCacheWrapper) Set(evt *types.Event) {
	if evt == nil || evt.ID == "" {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	c.backend.Set(context.Background(), "event:"+evt.ID, data, c.config.EventTTL)
}

// QRCacheWrapper caches rendered QR PNGs keyed by event ID
type QRCacheWrapper struct {
	backend cache.CacheBackend
	config  cache.CacheConfig
}

func NewQRCacheWrapper(backend cache.CacheBackend, config cache.CacheConfig) *QRCacheWrapper {
	return &QRCacheWrapper{backend: backend, config: config}
}

func (c *QRCacheWrapper) Get(eventID string) ([]byte, bool) {
	data, found, err := c.backend.Get(context.Background(), "qr:"+eventID)
	if err != nil || !found {
		return nil, false
	}
	return data, true
}

func (c *QRCacheWrapper) Set(eventID string, png []byte) {
	c.backend.Set(context.Background(), "qr:"+eventID, png, c.config.QRCodeTTL)
}
