package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Namespace scopes every key, usually to the contract address.
	// Empty keeps keys directly under the "whot" prefix.
	Namespace string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// SnapshotTTL bounds how stale a cached game read may be. Keep it short:
	// the chain moves on every block.
	SnapshotTTL time.Duration
	HandTTL     time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		SnapshotTTL:  5 * time.Second,
		HandTTL:      24 * time.Hour,
	}
}
