package jsonmap

import (
	"fmt"
	"sync"
)

// cache is a concurrent memo of values derived from immutable keys,
// such as the property accessors of a model type.
type cache[K comparable, V any] struct {
	m sync.Map
}

// Get returns the cached value for k, computing it with mk if
// necessary. Concurrent callers may compute the value more than once,
// but all of them observe the first stored value.
func (c *cache[K, V]) Get(k K, mk func(K) V) V {
	if ent, ok := c.m.Load(k); ok {
		return c.check(ent)
	}
	ent, _ := c.m.LoadOrStore(k, mk(k))
	return c.check(ent)
}

func (c *cache[K, V]) check(ent any) V {
	if val, ok := ent.(V); ok {
		return val
	}
	panic(fmt.Sprintf("mystery value %v (%T) in cache", ent, ent))
}
