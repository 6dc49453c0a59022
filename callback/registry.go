// Package callback implements the logger's observer registry: producers
// broadcast every accepted record to subscribed callbacks before it is
// hand off to the output manager and the write queue.
package callback

import (
	"sync"
	"sync/atomic"

	"github.com/hesphoros/lumberhouse/corelog"
)

// Func receives a fully-populated record. It runs on the producer's
// goroutine, before the record is enqueued, so it must not block for
// long and must not re-enter the logger.
type Func func(record *corelog.Record)

// Handle identifies a subscription for later removal.
type Handle uint64

type subscription struct {
	handle   Handle
	fn       Func
	minLevel corelog.Level
}

// Registry holds the set of active subscriptions, protected by its own
// lock per spec §5.
type Registry struct {
	mu   sync.RWMutex
	subs []subscription
	next atomic.Uint64
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Subscribe adds fn, invoked only for records whose level is >= minLevel.
func (r *Registry) Subscribe(minLevel corelog.Level, fn Func) Handle {
	h := Handle(r.next.Add(1))
	r.mu.Lock()
	r.subs = append(r.subs, subscription{handle: h, fn: fn, minLevel: minLevel})
	r.mu.Unlock()
	return h
}

// Unsubscribe removes the subscription identified by h. After it
// returns, no further invocation of that callback begins for records
// enqueued afterward. Returns false if h was not found.
func (r *Registry) Unsubscribe(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.subs {
		if s.handle == h {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every subscription.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.subs = nil
	r.mu.Unlock()
}

// Broadcast invokes every subscribed callback whose minLevel <= the
// record's level, on the caller's goroutine, swallowing panics so one
// misbehaving observer cannot take down the producer.
func (r *Registry) Broadcast(record *corelog.Record) {
	r.mu.RLock()
	// Copy the subscriptions under the lock so callbacks run outside it;
	// Unsubscribe during broadcast must not affect this pass.
	subs := make([]subscription, len(r.subs))
	copy(subs, r.subs)
	r.mu.RUnlock()

	for _, s := range subs {
		if record.Level < s.minLevel {
			continue
		}
		invokeSafely(s.fn, record)
	}
}

func invokeSafely(fn Func, record *corelog.Record) {
	defer func() {
		_ = recover()
	}()
	fn(record)
}

// Len reports the number of active subscriptions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
