package observe

import (
	"context"
	"log"
	"sync"
)

// Queued hands events to next on a dedicated goroutine so a slow sink costs
// callers no more than a channel send. The worker stops when ctx is done or
// Close is called; Close drains what is already queued before closing next.
func Queued(ctx context.Context, bufferSize int, next Observer) Observer {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	q := &queued{
		ctx:  ctx,
		ch:   make(chan Event, bufferSize),
		next: next,
		done: make(chan struct{}),
	}

	ready := make(chan struct{})
	go func() {
		defer close(q.done)
		close(ready)
		for {
			select {
			case e, ok := <-q.ch:
				if !ok {
					return
				}
				q.deliver(e)
			case <-ctx.Done():
				return
			}
		}
	}()
	<-ready

	return q
}

type queued struct {
	ctx    context.Context
	ch     chan Event
	next   Observer
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

func (q *queued) On(e Event) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return
	}
	select {
	case <-q.ctx.Done():
	case q.ch <- e:
	}
}

func (q *queued) deliver(e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("observer panicked on event: %+v", map[string]interface{}{
				"memoizerId": e.MemoizerID,
				"kind":       e.Kind,
				"panic":      r,
			})
		}
	}()
	q.next.On(e)
}

func (q *queued) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	<-q.done
	return q.next.Close()
}
