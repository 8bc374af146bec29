package memo_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/on-the-ground/memoize_go/memo"
	"github.com/on-the-ground/memoize_go/observe"
)

func factorial(n int) int {
	if n <= 1 {
		return 1
	}
	return n * factorial(n-1)
}

func TestMemoizer_Factorial(t *testing.T) {
	count := 0
	m := memo.New(func(args ...any) (int, error) {
		count++
		return factorial(args[0].(int)), nil
	}, memo.Config{Name: "factorial"})

	v, err := m.Invoke(10)
	require.NoError(t, err)
	assert.Equal(t, 3628800, v)
	assert.Equal(t, 1, count)

	v, err = m.Invoke(10)
	require.NoError(t, err)
	assert.Equal(t, 3628800, v)
	assert.Equal(t, 1, count) // cached
}

func TestMemoizer_KeyDiscrimination(t *testing.T) {
	count := 0
	m := memo.New(func(args ...any) (int, error) {
		count++
		return args[0].(int) - args[1].(int), nil
	}, memo.Config{})

	a, _ := m.Invoke(3, 1)
	b, _ := m.Invoke(1, 3)
	assert.Equal(t, 2, a)
	assert.Equal(t, -2, b)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, m.Len())
}

var errZero = errors.New("zero is not allowed")

func TestMemoizer_FailuresAreNotCached(t *testing.T) {
	calls := map[int]int{}
	m := memo.New(func(args ...any) (int, error) {
		n := args[0].(int)
		calls[n]++
		if n == 0 {
			return 0, errZero
		}
		return 1, nil
	}, memo.Config{})

	_, err := m.Invoke(0)
	assert.ErrorIs(t, err, errZero)
	_, err = m.Invoke(0)
	assert.Same(t, errZero, err) // unchanged, not wrapped
	assert.Equal(t, 2, calls[0])
	assert.Equal(t, 0, m.Len())

	for i := 0; i < 3; i++ {
		v, err := m.Invoke(1)
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	}
	assert.Equal(t, 1, calls[1])
}

func TestMemoizer_SingleFlight(t *testing.T) {
	var count atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	rec := &observe.Recorder{}
	m := memo.New(func(args ...any) (string, error) {
		if count.Add(1) == 1 {
			close(started)
		}
		<-release
		return "done", nil
	}, memo.Config{Observer: rec})

	const callers = 16
	var wg sync.WaitGroup
	results := make([]string, callers)
	call := func(i int) {
		defer wg.Done()
		results[i], _ = m.Invoke("same")
	}

	wg.Add(1)
	go call(0)
	<-started

	// the flight is registered and nothing is cached until release, so
	// every caller from here on has to join it
	var entered sync.WaitGroup
	for i := 1; i < callers; i++ {
		wg.Add(1)
		entered.Add(1)
		go func(i int) {
			entered.Done()
			call(i)
		}(i)
	}
	entered.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), count.Load())
	assert.Equal(t, 1, rec.Count(observe.KindComputed))
	assert.Equal(t, 0, rec.Count(observe.KindCached))
	assert.Equal(t, callers-1, rec.Count(observe.KindShared))
	for _, r := range results {
		assert.Equal(t, "done", r)
	}
}

type hiddenPair struct {
	a, b int
}

func TestMemoizer_HiddenStateIsRejectedNotShared(t *testing.T) {
	count := 0
	sum := memo.New(func(args ...any) (int, error) {
		count++
		h := args[0].(hiddenPair)
		return h.a + h.b, nil
	}, memo.Config{})

	_, err := sum.Invoke(hiddenPair{1, 2})
	assert.ErrorIs(t, err, memo.ErrKeyDerivation)
	_, err = sum.Invoke(hiddenPair{10, 20})
	assert.ErrorIs(t, err, memo.ErrKeyDerivation)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, sum.Len())
}

func TestMemoizer_RejectedKey(t *testing.T) {
	rec := &observe.Recorder{}
	count := 0
	m := memo.New(func(args ...any) (int, error) {
		count++
		return 0, nil
	}, memo.Config{Observer: rec})

	_, err := m.Invoke(func() {})
	assert.ErrorIs(t, err, memo.ErrKeyDerivation)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 1, rec.Count(observe.KindRejected))
}

func TestMemoizer_PanicIsNotCached(t *testing.T) {
	count := 0
	m := memo.New(func(args ...any) (int, error) {
		count++
		if count == 1 {
			panic("boom")
		}
		return 7, nil
	}, memo.Config{})

	assert.Panics(t, func() { _, _ = m.Invoke("x") })
	assert.Equal(t, 0, m.Len())

	v, err := m.Invoke("x")
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, count)
}

func TestMemoizer_Clear(t *testing.T) {
	count := 0
	m := memo.New(func(args ...any) (int, error) {
		count++
		return count, nil
	}, memo.Config{})

	first, _ := m.Invoke("k")
	m.Clear()
	assert.Equal(t, 0, m.Len())
	second, _ := m.Invoke("k")

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestMemoizer_InstancesDoNotShare(t *testing.T) {
	count := 0
	op := func(args ...any) (int, error) {
		count++
		return 1, nil
	}
	a := memo.New(op, memo.Config{})
	b := memo.New(op, memo.Config{})

	_, _ = a.Invoke(1)
	_, _ = b.Invoke(1)
	assert.Equal(t, 2, count)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestMemoizer_Events(t *testing.T) {
	rec := &observe.Recorder{}
	m := memo.New(func(args ...any) (int, error) {
		if args[0].(int) < 0 {
			return 0, errZero
		}
		return args[0].(int), nil
	}, memo.Config{Name: "events", Observer: rec})

	fn := m.Func()
	_, _ = fn(1)
	_, _ = fn(1)
	_, _ = fn(-1)

	events := rec.Events()
	require.Len(t, events, 3)
	assert.Equal(t, observe.KindComputed, events[0].Kind)
	assert.Equal(t, observe.KindCached, events[1].Kind)
	assert.Equal(t, observe.KindFailed, events[2].Kind)
	assert.ErrorIs(t, events[2].Err, errZero)
	for _, e := range events {
		assert.Equal(t, "events", e.Name)
		assert.Equal(t, m.ID(), e.MemoizerID)
	}
}

type panickyObserver struct{}

func (panickyObserver) On(observe.Event) { panic("observer broke") }
func (panickyObserver) Close() error     { return nil }

func TestMemoizer_ObserverPanicDoesNotLeak(t *testing.T) {
	m := memo.New(func(args ...any) (int, error) {
		return 5, nil
	}, memo.Config{Observer: panickyObserver{}})

	v, err := m.Invoke(1)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.Equal(t, 1, m.Len())
}

func TestNew_NilOperationPanics(t *testing.T) {
	assert.Panics(t, func() { memo.New[int](nil, memo.Config{}) })
}
