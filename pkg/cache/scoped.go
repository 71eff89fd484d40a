package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one cache backend without colliding.
//
// Example usage:
//
//	// Keys of a staging server sharing production's Redis
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
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

// MatrixKey generates a prefixed cost matrix key.
func (k *ScopedKeyer) MatrixKey(targetHash, tilesHash string, opts MatrixKeyOpts) string {
	return k.prefix + k.inner.MatrixKey(targetHash, tilesHash, opts)
}

// PlanKey generates a prefixed plan key.
func (k *ScopedKeyer) PlanKey(matrixHash string, opts PlanKeyOpts) string {
	return k.prefix + k.inner.PlanKey(matrixHash, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(planHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(planHash, opts)
}
