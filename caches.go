package objtree

import (
	"sync"
)

// cache is a concurrent memo of values derived from keys, typically
// codecs derived from a reflect.Type.
//
// Derivation may recurse back into the cache for the key being
// derived, as happens with self-referential types. Such lookups get
// the value produced by the OnPending func, which is handed a wait
// function that returns the final value once derivation completes.
type cache[K comparable, V any] struct {
	derive    func(K) V
	onPending func(wait func() V) V
	m         sync.Map
}

type cacheEntry[V any] struct {
	ready chan struct{}
	val   V
}

// Init sets the derivation functions of the cache. It must be called
// before any call to Get.
func (c *cache[K, V]) Init(derive func(K) V, onPending func(wait func() V) V) {
	c.derive = derive
	c.onPending = onPending
}

// Get returns the value for k, deriving it if necessary.
func (c *cache[K, V]) Get(k K) V {
	ent := &cacheEntry[V]{ready: make(chan struct{})}
	if prev, loaded := c.m.LoadOrStore(k, ent); loaded {
		prev := prev.(*cacheEntry[V])
		select {
		case <-prev.ready:
			return prev.val
		default:
			return c.onPending(func() V {
				<-prev.ready
				return prev.val
			})
		}
	}
	ent.val = c.derive(k)
	close(ent.ready)
	return ent.val
}
