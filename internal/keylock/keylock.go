// Package keylock provides mutual exclusion keyed by string identifiers.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locker serialises work per key while letting different keys proceed in
// parallel. Entries are dropped once no goroutine holds or waits on them.
// The zero value is ready to use.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Lock blocks until key is held by the caller and returns the release func.
func (l *Locker) Lock(key string) func() {
	l.mu.Lock()
	if l.entries == nil {
		l.entries = make(map[string]*entry)
	}
	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.entries, key)
			}
			l.mu.Unlock()
		})
	}
}

// With runs fn while holding key.
func (l *Locker) With(key string, fn func()) {
	unlock := l.Lock(key)
	defer unlock()
	fn()
}

// Len reports how many keys are currently held or awaited.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
