// Package cache provides caching for expensive pipeline stages.
//
// Generating a path over a large density field dominates the pipeline's
// runtime, so the pipeline caches generated paths and rendered artifacts
// between runs. Two implementations are provided: FileCache stores
// entries on disk for CLI usage, and NullCache disables caching
// entirely. Keys are derived from content hashes, so identical inputs
// hit identical entries across runs and across machines.
package cache

import (
	"context"
	"time"
)

// TTLs for cached pipeline stages. Entries are content-addressed and
// never go stale; the TTLs only bound disk growth.
const (
	// TTLPath is how long generated paths stay cached.
	TTLPath = 30 * 24 * time.Hour

	// TTLArtifact is how long rendered artifacts stay cached.
	TTLArtifact = 30 * 24 * time.Hour
)

// Cache is the interface for pipeline result caching.
type Cache interface {
	// Get retrieves a value from the cache.
	// The boolean reports whether the key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value in the cache with an optional TTL.
	// A non-positive TTL means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	// Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// PathKeyOpts captures the generation parameters that shape a path.
// Two runs with the same source image and the same PathKeyOpts produce
// byte-identical paths, which is what makes path caching sound.
type PathKeyOpts struct {
	Layers              int     `json:"layers"`
	Exponent            float64 `json:"exponent"`
	Prefactor           float64 `json:"prefactor"`
	MaxLineLengthFactor float64 `json:"max_line_length_factor"`
	Seed                uint64  `json:"seed"`
	Scale               float64 `json:"scale"`
}

// ArtifactKeyOpts captures the rendering parameters for an output
// artifact. Animation fields are zero for still formats.
type ArtifactKeyOpts struct {
	Format        string  `json:"format"`
	Duration      float64 `json:"duration,omitempty"`
	FPS           float64 `json:"fps,omitempty"`
	Width         int     `json:"width,omitempty"`
	Height        int     `json:"height,omitempty"`
	Highlight     string  `json:"highlight,omitempty"`
	HighlightSecs float64 `json:"highlight_secs,omitempty"`
	HoldSecs      float64 `json:"hold_secs,omitempty"`
}

// Keyer generates cache keys for pipeline stages.
type Keyer interface {
	// PathKey generates a key for a generated path.
	// fieldHash identifies the source image content.
	PathKey(fieldHash string, opts PathKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	// pathHash identifies the generated path content.
	ArtifactKey(pathHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key generation strategy.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// PathKey generates a key for path caching.
// Format: path:hash(fieldHash, opts)
func (k *DefaultKeyer) PathKey(fieldHash string, opts PathKeyOpts) string {
	return hashKey("path", fieldHash, opts)
}

// ArtifactKey generates a key for artifact caching.
// Format: artifact:hash(pathHash, opts)
func (k *DefaultKeyer) ArtifactKey(pathHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", pathHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
