package journey

import "sync"

// sessionLocks serializes transitions per session id: the read-merge-write of
// the session data bag is not safe under concurrent transitions, so at most
// one transition per session may be in flight.
//
// Locks are never evicted; one mutex per session seen this process is a few
// dozen bytes and sessions number in the thousands at most.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sync.Mutex)}
}

// lockFor returns the mutex guarding the given session id.
func (l *sessionLocks) lockFor(sessionID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[sessionID] = lock
	}
	return lock
}
