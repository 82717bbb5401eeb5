package cache

// ScopedKeyer wraps a Keyer with a prefix so different contexts can
// share one cache directory without colliding. The API server scopes
// its entries apart from local CLI runs this way.
//
// Example usage:
//
//	// Server-side entries
//	apiKeyer := NewScopedKeyer(NewDefaultKeyer(), "api:")
//
//	// Local CLI entries
//	cliKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// PathKey generates a prefixed key for path caching.
func (k *ScopedKeyer) PathKey(fieldHash string, opts PathKeyOpts) string {
	return k.prefix + k.inner.PathKey(fieldHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(pathHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(pathHash, opts)
}
