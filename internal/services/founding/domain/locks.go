package domain

import "sync"

// requestLocks serializes Confirm, Decline, and ExpireIfDue for the same
// request while letting different requests proceed in parallel. Entries
// are reference-counted and removed when idle, so the table stays small.
//
// The table also tracks finalizing markers: a request whose provisioning
// saga is running holds a marker instead of the request lock, so slow
// provisioning I/O never blocks other transitions while still preventing
// a second saga invocation.
//
// All of this state is safe to lose on restart; the persisted status is
// re-read under the lock before any transition is applied.
type requestLocks struct {
	mu         sync.Mutex
	entries    map[string]*lockEntry
	finalizing map[string]struct{}
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newRequestLocks() *requestLocks {
	return &requestLocks{
		entries:    make(map[string]*lockEntry),
		finalizing: make(map[string]struct{}),
	}
}

// lock acquires the per-request lock and returns its release function.
func (l *requestLocks) lock(requestID string) func() {
	l.mu.Lock()
	entry, ok := l.entries[requestID]
	if !ok {
		entry = &lockEntry{}
		l.entries[requestID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, requestID)
		}
		l.mu.Unlock()
	}
}

// beginFinalize marks the request as finalizing. It reports false when
// another caller already holds the marker.
func (l *requestLocks) beginFinalize(requestID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.finalizing[requestID]; busy {
		return false
	}
	l.finalizing[requestID] = struct{}{}
	return true
}

// endFinalize clears the finalizing marker.
func (l *requestLocks) endFinalize(requestID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.finalizing, requestID)
}

// isFinalizing reports whether a provisioning saga is in flight for the request.
func (l *requestLocks) isFinalizing(requestID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, busy := l.finalizing[requestID]
	return busy
}
