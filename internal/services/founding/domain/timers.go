package domain

import (
	"sync"
	"time"
)

// Timers is the in-process Scheduler: one time.AfterFunc per pending
// request. Timers lost to a restart are reconciled by RunExpirySweep,
// so firing and disarming here are throughput optimizations rather than
// correctness requirements.
type Timers struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	clock  func() time.Time
	fire   func(requestID string)
}

// NewTimers builds a timer scheduler. fire runs on the timer goroutine
// when a request's expiry is reached.
func NewTimers(clock func() time.Time, fire func(requestID string)) *Timers {
	if clock == nil {
		clock = time.Now
	}
	return &Timers{
		timers: make(map[string]*time.Timer),
		clock:  clock,
		fire:   fire,
	}
}

// Arm schedules expiry for a request, replacing any existing timer.
func (t *Timers) Arm(requestID string, at time.Time) {
	if t == nil || t.fire == nil || requestID == "" {
		return
	}
	delay := at.Sub(t.clock())
	if delay < 0 {
		delay = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.timers[requestID]; ok {
		existing.Stop()
	}
	t.timers[requestID] = time.AfterFunc(delay, func() {
		t.mu.Lock()
		delete(t.timers, requestID)
		t.mu.Unlock()
		t.fire(requestID)
	})
}

// Disarm cancels the timer for a request if one is armed. A timer that
// already fired is harmless: ExpireIfDue re-checks persisted status.
func (t *Timers) Disarm(requestID string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[requestID]; ok {
		timer.Stop()
		delete(t.timers, requestID)
	}
}

// Stop cancels every armed timer, for graceful shutdown.
func (t *Timers) Stop() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for requestID, timer := range t.timers {
		timer.Stop()
		delete(t.timers, requestID)
	}
}
