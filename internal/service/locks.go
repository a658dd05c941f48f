package service

import "sync"

// rideLocks is a keyed mutex. Entries are reference counted and removed once
// nobody holds or waits on them.
type rideLocks struct {
	mu    sync.Mutex
	locks map[string]*rideLock
}

type rideLock struct {
	mu   sync.Mutex
	refs int
}

func newRideLocks() *rideLocks {
	return &rideLocks{locks: make(map[string]*rideLock)}
}

// lock blocks until the caller holds the lock for rideID and returns the
// matching unlock function.
func (l *rideLocks) lock(rideID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[rideID]
	if !ok {
		entry = &rideLock{}
		l.locks[rideID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, rideID)
		}
		l.mu.Unlock()
	}
}
