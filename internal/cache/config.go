package cache

import "time"

// CacheConfig holds cache TTL configuration
type CacheConfig struct {
	ProfileTTL         time.Duration
	ProfileNotFoundTTL time.Duration
	EventTTL           time.Duration
	RenderedNoteTTL    time.Duration
	QRCodeTTL          time.Duration
}

// DefaultCacheConfig returns sensible defaults
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		ProfileTTL:         1 * time.Hour,    // Profiles rarely change hourly
		ProfileNotFoundTTL: 30 * time.Second, // Short TTL so missing profiles get retried
		EventTTL:           10 * time.Minute, // Immutable events, bounded so deletions age out
		RenderedNoteTTL:    10 * time.Minute,
		QRCodeTTL:          24 * time.Hour, // QR for an event ID never changes
	}
}
