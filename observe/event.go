// Package observe carries diagnostic events out of memoizers.
//
// Every memoized call produces exactly one Event telling whether the result
// was computed, served from cache, shared with a concurrent caller, failed, or
// rejected before lookup because its arguments had no canonical key.
// Observers only watch; nothing they do changes what a memoizer caches.
package observe

import (
	"sync"
	"time"

	"go.uber.org/multierr"
)

// Kind classifies how a call was answered.
type Kind string

const (
	// KindComputed means the underlying operation ran for this call.
	KindComputed Kind = "computed"

	// KindCached means the result came straight from the table.
	KindCached Kind = "cached"

	// KindShared means the call joined a flight another caller started.
	KindShared Kind = "shared"

	// KindFailed means the underlying operation returned an error.
	KindFailed Kind = "failed"

	// KindRejected means no key could be derived from the arguments.
	KindRejected Kind = "rejected"
)

// Event describes one memoized call.
type Event struct {
	MemoizerID string
	Name       string
	Key        string
	Kind       Kind
	Duration   time.Duration
	Err        error
}

// Observer receives events. On may be called from many goroutines at once.
type Observer interface {
	On(Event)
	Close() error
}

// Noop drops every event.
var Noop Observer = noop{}

type noop struct{}

func (noop) On(Event)     {}
func (noop) Close() error { return nil }

// Multi fans each event out to all observers in order.
func Multi(observers ...Observer) Observer {
	return multi(observers)
}

type multi []Observer

func (m multi) On(e Event) {
	for _, o := range m {
		o.On(e)
	}
}

func (m multi) Close() error {
	var err error
	for _, o := range m {
		err = multierr.Append(err, o.Close())
	}
	return err
}

// Recorder keeps every event in memory. Handy in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) On(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of what has been recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many recorded events have the given kind.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
