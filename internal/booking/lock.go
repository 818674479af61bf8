package booking

import "sync"

// ShowLocks hands out one mutex per show so that reservation attempts on the
// same show are serialized while attempts on different shows run in parallel.
// Locks are created on first use and kept for the life of the process.
type ShowLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewShowLocks() *ShowLocks {
	return &ShowLocks{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks the mutex for the given show and returns the unlock func.
func (l *ShowLocks) Acquire(showID string) func() {
	l.mu.Lock()
	m, ok := l.locks[showID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[showID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
