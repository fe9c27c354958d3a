package memory

import "sync"

// Locks serialises writes per session so concurrent requests for the same
// session cannot interleave their read-generate-append cycles. Requests for
// different sessions proceed independently. Lock entries are reference
// counted and removed when the last holder releases, so the map does not
// grow with the total number of sessions ever seen.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocks constructs an empty lock set.
func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*sessionLock)}
}

// Acquire blocks until the session's lock is held and returns a release
// function. The release function must be called exactly once.
func (l *Locks) Acquire(sessionID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[sessionID]
	if !ok {
		entry = &sessionLock{}
		l.locks[sessionID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, sessionID)
		}
		l.mu.Unlock()
	}
}
