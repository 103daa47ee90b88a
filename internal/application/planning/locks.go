package planning

import "sync"

// householdLocks serializes reconciliation per household
type householdLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newHouseholdLocks() *householdLocks {
	return &householdLocks{locks: make(map[string]*lockEntry)}
}

// lock blocks until the household is free and returns its unlock func
func (l *householdLocks) lock(householdID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[householdID]
	if !ok {
		entry = &lockEntry{}
		l.locks[householdID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, householdID)
		}
		l.mu.Unlock()
	}
}
