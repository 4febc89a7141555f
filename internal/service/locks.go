package service

import (
	"sort"
	"sync"
)

// Locks serializes mutations per club and per event inside this process.
// Storage writes are compare-and-swap regardless, so a second process
// sharing the database still cannot break roster invariants; the locks
// only keep conflicting writers from burning retries against each other.
//
// Order: a club lock may be held while taking event locks, never the reverse.
type Locks struct {
	clubs  keyedMutex
	events keyedMutex
}

// NewLocks creates an empty lock table
func NewLocks() *Locks {
	return &Locks{
		clubs:  keyedMutex{held: make(map[string]*refMutex)},
		events: keyedMutex{held: make(map[string]*refMutex)},
	}
}

// Club locks one club and returns its unlock func
func (l *Locks) Club(id string) func() {
	return l.clubs.lock(id)
}

// Event locks one event and returns its unlock func
func (l *Locks) Event(id string) func() {
	return l.events.lock(id)
}

// Events locks several events in id order and returns one unlock func
func (l *Locks) Events(ids []string) func() {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	unlocks := make([]func(), 0, len(sorted))
	prev := ""
	for i, id := range sorted {
		if i > 0 && id == prev {
			continue
		}
		prev = id
		unlocks = append(unlocks, l.events.lock(id))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per key and forgets it when nobody holds or waits on it
type keyedMutex struct {
	mu   sync.Mutex
	held map[string]*refMutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.held[key]
	if !ok {
		m = &refMutex{}
		k.held[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Unlock()
			k.mu.Lock()
			m.refs--
			if m.refs == 0 {
				delete(k.held, key)
			}
			k.mu.Unlock()
		})
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.held)
}
