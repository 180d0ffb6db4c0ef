// Package keylock provides per-key mutual exclusion. The progression
// machine serializes attempt counting and stage advancement per user, and
// the certificate gate serializes eligibility check plus insert per user.
package keylock

import "sync"

type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New() *Locker {
	return &Locker{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use, and returns
// the unlock function. Entries are retained for the process lifetime; the
// map is bounded by the active user population.
func (l *Locker) Lock(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
