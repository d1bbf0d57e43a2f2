// Package ifacelist tracks the set of live network interface names.
package ifacelist

import (
	"sort"
	"sync"
)

// List is a set of interface names. Safe for concurrent use. The zero
// value is not usable; use New.
type List struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

// New creates an empty list.
func New() *List {
	return &List{names: make(map[string]struct{})}
}

// Add inserts name. Returns false if it was already present.
func (l *List) Add(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.names[name]; ok {
		return false
	}
	l.names[name] = struct{}{}
	return true
}

// Remove deletes name. Returns false if it was not present.
func (l *List) Remove(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.names[name]; !ok {
		return false
	}
	delete(l.names, name)
	return true
}

// Contains reports whether name is present.
func (l *List) Contains(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.names[name]
	return ok
}

// Len returns the number of names.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.names)
}

// Names returns the names in sorted order.
func (l *List) Names() []string {
	l.mu.RLock()
	out := make([]string, 0, len(l.names))
	for name := range l.names {
		out = append(out, name)
	}
	l.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Clear removes all names.
func (l *List) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = make(map[string]struct{})
}
