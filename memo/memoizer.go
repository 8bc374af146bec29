package memo

import (
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/on-the-ground/memoize_go/observe"
)

// core is what both memoizer variants share: the table, the flight group
// that keeps at most one underlying call per key in flight, and diagnostics.
type core[V any] struct {
	id    string
	cfg   Config
	table *table[V]
	group singleflight.Group
}

func newCore[V any](cfg Config) core[V] {
	cfg = NewConfig(cfg)
	return core[V]{
		id:    uuid.New().String(),
		cfg:   cfg,
		table: newTable[V](cfg.NumShards),
	}
}

// ID identifies this memoizer in events.
func (c *core[V]) ID() string { return c.id }

// Len is the number of cached results.
func (c *core[V]) Len() int { return c.table.len() }

// Clear forgets every cached result. Flights already running when Clear is
// called still answer their callers but do not repopulate the table.
func (c *core[V]) Clear() { c.table.clear() }

// storeResult keeps a successful value; failures leave the key absent.
func (c *core[V]) storeResult(key Key, generation uint64, v V, err error) (V, error) {
	if err != nil {
		return v, err
	}
	v, _ = c.table.storeIfAbsent(key, generation, v)
	return v, nil
}

func (c *core[V]) emit(key string, kind observe.Kind, start time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("observer panicked on event: %+v", map[string]interface{}{
				"memoizerId": c.id,
				"kind":       kind,
				"panic":      r,
			})
		}
	}()
	if err != nil && kind != observe.KindRejected {
		kind = observe.KindFailed
	}
	c.cfg.Observer.On(observe.Event{
		MemoizerID: c.id,
		Name:       c.cfg.Name,
		Key:        key,
		Kind:       kind,
		Duration:   time.Since(start),
		Err:        err,
	})
}

// Memoizer wraps a synchronous operation.
type Memoizer[V any] struct {
	core[V]
	op func(args ...any) (V, error)
}

// New memoizes op. Each call to New owns a fresh table.
func New[V any](op func(args ...any) (V, error), cfg Config) *Memoizer[V] {
	if op == nil {
		panic("memo.New: nil operation")
	}
	return &Memoizer[V]{core: newCore[V](cfg), op: op}
}

// Invoke returns the cached result for args or runs the operation once for
// all concurrent callers with equal args. Errors from the operation are
// returned unchanged and never cached. A panic in the operation reaches every
// caller sharing the flight and leaves nothing cached.
func (m *Memoizer[V]) Invoke(args ...any) (V, error) {
	start := time.Now()
	key, err := Canonicalize(args...)
	if err != nil {
		m.emit("", observe.KindRejected, start, err)
		var zero V
		return zero, err
	}

	if v, _, ok := m.table.load(key); ok {
		m.emit(key.canonical, observe.KindCached, start, nil)
		return v, nil
	}

	kind := observe.KindShared
	res, err, _ := m.group.Do(key.canonical, func() (any, error) {
		v, generation, ok := m.table.load(key)
		if ok {
			kind = observe.KindCached
			return v, nil
		}
		kind = observe.KindComputed
		v, err := m.op(args...)
		return m.storeResult(key, generation, v, err)
	})
	m.emit(key.canonical, kind, start, err)

	v, _ := res.(V)
	return v, err
}

// Func returns Invoke as a plain function value.
func (m *Memoizer[V]) Func() func(args ...any) (V, error) {
	return m.Invoke
}
