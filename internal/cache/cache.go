// Package cache holds small in-process caches for values that are expensive
// to recompute, such as a year of monthly totals.
package cache

// Cache is a keyed store whose entries may disappear at any time.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Delete(key K)
	// Purge drops every entry.
	Purge()
	Len() int
}
