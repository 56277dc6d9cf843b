// Package cache holds computed summaries between mutations of the store.
package cache

// Cache maps comparable keys to values. Implementations are safe for
// concurrent use.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Put(key K, value V)
	// Purge drops every value. Called after each committed mutation.
	Purge()
	Len() int
}

// Nop is a Cache that never stores anything.
type Nop[K comparable, V any] struct{}

func (Nop[K, V]) Get(K) (V, bool) {
	var zero V
	return zero, false
}

func (Nop[K, V]) Put(K, V) {}
func (Nop[K, V]) Purge()   {}
func (Nop[K, V]) Len() int { return 0 }
