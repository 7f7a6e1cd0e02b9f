package utils

import (
	"sync"

	"github.com/zeebo/xxh3"
)

// DefaultShardCount is the number of shards used by NewShardedMap when a non-positive count is passed.
const DefaultShardCount = 32

// ShardedMap is a concurrent map keyed by string. Keys are spread over a fixed number of shards by their
// xxh3 hash, and each shard has its own lock, so operations on different keys rarely contend and
// operations on the same key are always serialised.
type ShardedMap[V any] struct {
	shards []*mapShard[V]
}

type mapShard[V any] struct {
	mu sync.Mutex
	m  map[string]V
}

// NewShardedMap returns an empty ShardedMap with count shards.
func NewShardedMap[V any](count int) *ShardedMap[V] {
	if count <= 0 {
		count = DefaultShardCount
	}
	s := &ShardedMap[V]{shards: make([]*mapShard[V], count)}
	for i := range s.shards {
		s.shards[i] = &mapShard[V]{m: make(map[string]V)}
	}
	return s
}

func (s *ShardedMap[V]) shard(key string) *mapShard[V] {
	return s.shards[xxh3.HashString(key)%uint64(len(s.shards))]
}

// Insert stores v under key only if key is not present yet. It returns false, leaving the existing value
// untouched, if key was already present.
func (s *ShardedMap[V]) Insert(key string, v V) bool {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.m[key]; ok {
		return false
	}
	sh.m[key] = v
	return true
}

// Set stores v under key, replacing any existing value.
func (s *ShardedMap[V]) Set(key string, v V) {
	sh := s.shard(key)
	sh.mu.Lock()
	sh.m[key] = v
	sh.mu.Unlock()
}

// Load returns the value stored under key.
func (s *ShardedMap[V]) Load(key string) (v V, ok bool) {
	sh := s.shard(key)
	sh.mu.Lock()
	v, ok = sh.m[key]
	sh.mu.Unlock()
	return v, ok
}

// Update calls f with the value stored under key while holding the key's lock. It returns false without
// calling f if key is not present.
func (s *ShardedMap[V]) Update(key string, f func(V)) bool {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	v, ok := sh.m[key]
	if !ok {
		return false
	}
	f(v)
	return true
}

// View is like Update but passes the result of f back to the caller.
func View[V, R any](s *ShardedMap[V], key string, f func(V) R) (r R, ok bool) {
	s.Update(key, func(v V) {
		r, ok = f(v), true
	})
	return r, ok
}

// Remove deletes and returns the value stored under key.
func (s *ShardedMap[V]) Remove(key string) (v V, ok bool) {
	return s.RemoveIf(key, func(V) bool { return true })
}

// RemoveIf deletes and returns the value stored under key, but only if cond returns true for it. The
// check and the removal happen atomically.
func (s *ShardedMap[V]) RemoveIf(key string, cond func(V) bool) (v V, ok bool) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	v, ok = sh.m[key]
	if !ok || !cond(v) {
		var zero V
		return zero, false
	}
	delete(sh.m, key)
	return v, true
}

// Len returns the number of keys in the map.
func (s *ShardedMap[V]) Len() (n int) {
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.m)
		sh.mu.Unlock()
	}
	return n
}

// Keys returns all keys present in the map. The order is unspecified.
func (s *ShardedMap[V]) Keys() []string {
	keys := make([]string, 0, s.Len())
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k := range sh.m {
			keys = append(keys, k)
		}
		sh.mu.Unlock()
	}
	return keys
}

// Drain removes every entry from the map and calls f for each removed value, outside of any lock.
func (s *ShardedMap[V]) Drain(f func(key string, v V)) {
	for _, sh := range s.shards {
		sh.mu.Lock()
		removed := sh.m
		sh.m = make(map[string]V)
		sh.mu.Unlock()

		for k, v := range removed {
			f(k, v)
		}
	}
}
