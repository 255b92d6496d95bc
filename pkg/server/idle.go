package server

import (
	"sync"
	"time"
)

// watchdogInterval is the cadence at which the watchdog re-checks expiry.
const watchdogInterval = time.Second

// idleTracker records how long a connection has been sitting between
// requests. idleSince is nil while a request is being processed. The session
// loop writes it and the watchdog reads it; both hold mu only for the O(1)
// access, never across a blocking operation.
type idleTracker struct {
	mu        sync.Mutex
	idleSince *time.Time
}

// newIdleTracker starts idle, as a fresh connection is waiting for its first
// request.
func newIdleTracker() *idleTracker {
	now := time.Now()
	return &idleTracker{idleSince: &now}
}

// guard marks the connection active and returns the release step, which
// restarts the idle clock. Callers defer the release so it runs on every
// exit path of request processing.
func (t *idleTracker) guard() func() {
	t.mu.Lock()
	t.idleSince = nil
	t.mu.Unlock()

	return func() {
		now := time.Now()
		t.mu.Lock()
		t.idleSince = &now
		t.mu.Unlock()
	}
}

// expired reports whether the connection has been idle for longer than max.
// An active connection never expires.
func (t *idleTracker) expired(max time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.idleSince != nil && time.Since(*t.idleSince) > max
}

// watch polls the tracker until it expires or stop is closed. It returns
// true only on expiry.
func (t *idleTracker) watch(stop <-chan struct{}, max time.Duration) bool {
	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return false
		case <-ticker.C:
			if t.expired(max) {
				return true
			}
		}
	}
}
