package memo

import (
	"sync"
)

// table is the write-once store behind a Memoizer. Keys are spread over
// shards by their digest so unrelated keys rarely contend on one lock.
type table[V any] struct {
	shards []*shard[V]
}

type shard[V any] struct {
	mu         sync.RWMutex
	entries    map[string]V
	generation uint64
}

func newTable[V any](numShards int) *table[V] {
	if numShards <= 0 {
		panic("newTable: numShards should be greater than 0")
	}
	shards := make([]*shard[V], numShards)
	for i := range shards {
		shards[i] = &shard[V]{entries: map[string]V{}}
	}
	return &table[V]{shards: shards}
}

func (t *table[V]) shardOf(key Key) *shard[V] {
	switch n := len(t.shards); n {
	case 1:
		return t.shards[0]
	default:
		return t.shards[key.Digest()%uint64(n)]
	}
}

// load returns the stored value together with the shard generation it was
// observed at. A later storeIfAbsent made with an older generation is dropped.
func (t *table[V]) load(key Key) (v V, generation uint64, ok bool) {
	s := t.shardOf(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok = s.entries[key.canonical]
	return v, s.generation, ok
}

// storeIfAbsent keeps the first value ever stored for key. It reports the
// value that ends up in the table, which is the existing one if there was one.
func (t *table[V]) storeIfAbsent(key Key, generation uint64, value V) (V, bool) {
	s := t.shardOf(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		return value, false
	}
	if existing, ok := s.entries[key.canonical]; ok {
		return existing, false
	}
	s.entries[key.canonical] = value
	return value, true
}

func (t *table[V]) len() int {
	n := 0
	for _, s := range t.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// clear drops every entry and bumps each shard's generation so results of
// flights started before the clear are not written back.
func (t *table[V]) clear() {
	for _, s := range t.shards {
		s.mu.Lock()
		s.entries = map[string]V{}
		s.generation++
		s.mu.Unlock()
	}
}
