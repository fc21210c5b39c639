// Package reachability caches whether the peer process is currently
// reachable and tells observers when that changes.
package reachability

import (
	"sync"
	"sync/atomic"
)

// Observer is called with the new value after every transition.
type Observer func(reachable bool)

// Tracker is an edge-triggered reachability cache. It starts unreachable.
// Observers run synchronously, one transition at a time and in transition
// order; they may call IsReachable but must not feed the tracker.
type Tracker struct {
	value atomic.Bool

	mu        sync.Mutex
	observers []Observer
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Observe registers fn for future transitions.
func (t *Tracker) Observe(fn Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, fn)
}

// OnChannelActivated records the reachability reported at channel activation.
func (t *Tracker) OnChannelActivated(peerActive bool) {
	t.set(peerActive)
}

// OnReachabilityChanged records a reachability notification from the channel.
func (t *Tracker) OnReachabilityChanged(reachable bool) {
	t.set(reachable)
}

// OnChannelDeactivated marks the peer unreachable.
func (t *Tracker) OnChannelDeactivated() {
	t.set(false)
}

// IsReachable returns the cached value; it never probes the peer.
func (t *Tracker) IsReachable() bool {
	return t.value.Load()
}

func (t *Tracker) set(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.value.Load() == v {
		return
	}
	t.value.Store(v)
	for _, fn := range t.observers {
		fn(v)
	}
}
