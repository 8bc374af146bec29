package memo

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/on-the-ground/memoize_go/observe"
)

// Result is the eventual outcome of an asynchronous call.
type Result[V any] struct {
	Value V
	Err   error
}

// AsyncMemoizer wraps an operation that takes a context and may block.
type AsyncMemoizer[V any] struct {
	core[V]
	op func(ctx context.Context, args ...any) (V, error)
}

// NewAsync memoizes op. Each call to NewAsync owns a fresh table.
func NewAsync[V any](op func(ctx context.Context, args ...any) (V, error), cfg Config) *AsyncMemoizer[V] {
	if op == nil {
		panic("memo.NewAsync: nil operation")
	}
	return &AsyncMemoizer[V]{core: newCore[V](cfg), op: op}
}

// Invoke returns a future for args. The channel is buffered, receives exactly
// one Result and is then closed.
//
// A cached key resolves at once. Otherwise the call joins the flight for its
// key, starting one if none is running, and every caller of that flight sees
// the same Result. When ctx is done first, the caller gets ctx.Err() and stops
// waiting; the flight itself keeps going unless Config.CancelOnLeaderDone is
// set and ctx belongs to the caller that started it.
func (m *AsyncMemoizer[V]) Invoke(ctx context.Context, args ...any) <-chan Result[V] {
	start := time.Now()
	out := make(chan Result[V], 1)

	key, err := Canonicalize(args...)
	if err != nil {
		m.emit("", observe.KindRejected, start, err)
		out <- Result[V]{Err: err}
		close(out)
		return out
	}

	if v, _, ok := m.table.load(key); ok {
		m.emit(key.canonical, observe.KindCached, start, nil)
		out <- Result[V]{Value: v}
		close(out)
		return out
	}

	if err := ctx.Err(); err != nil {
		m.emit(key.canonical, observe.KindFailed, start, err)
		out <- Result[V]{Err: err}
		close(out)
		return out
	}

	// written only by the flight this caller started, read after its result
	// has been received
	kind := observe.KindShared
	flight := m.group.DoChan(key.canonical, func() (any, error) {
		v, generation, ok := m.table.load(key)
		if ok {
			kind = observe.KindCached
			return v, nil
		}
		kind = observe.KindComputed
		opCtx := ctx
		if !m.cfg.CancelOnLeaderDone {
			opCtx = context.WithoutCancel(ctx)
		}
		v, err := m.call(opCtx, args)
		return m.storeResult(key, generation, v, err)
	})

	go func() {
		defer close(out)
		select {
		case res := <-flight:
			v, _ := res.Val.(V)
			m.emit(key.canonical, kind, start, res.Err)
			out <- Result[V]{Value: v, Err: res.Err}
		case <-ctx.Done():
			m.emit(key.canonical, observe.KindFailed, start, ctx.Err())
			out <- Result[V]{Err: ctx.Err()}
		}
	}()
	return out
}

// Await blocks until Invoke resolves.
func (m *AsyncMemoizer[V]) Await(ctx context.Context, args ...any) (V, error) {
	res := <-m.Invoke(ctx, args...)
	return res.Value, res.Err
}

// Func returns Await as a plain function value.
func (m *AsyncMemoizer[V]) Func() func(ctx context.Context, args ...any) (V, error) {
	return m.Await
}

// call runs op on the flight's goroutine, where an unrecovered panic would
// take the whole process down.
func (m *AsyncMemoizer[V]) call(ctx context.Context, args []any) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return m.op(ctx, args...)
}
