package cache

// ScopedKeyer prefixes every key produced by an inner Keyer, so several
// deployments or tenants can share one backend without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
//	keyer.LayoutKey(fp) // "staging:layout:<fp>"
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer uses the
// default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LayoutKey returns the prefixed layout key.
func (k *ScopedKeyer) LayoutKey(fingerprint string) string {
	return k.prefix + k.inner.LayoutKey(fingerprint)
}
