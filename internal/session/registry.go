package session

import (
	"sync"
	"time"
)

// Registry keeps one value per visitor and drops entries that stay idle
// longer than the configured duration. T is usually a pointer to the
// visitor's page state.
type Registry[T any] struct {
	mu      sync.Mutex
	idle    time.Duration
	now     func() time.Time
	create  func(id string) T
	entries map[string]*entry[T]
}

type entry[T any] struct {
	value    T
	lastSeen time.Time
}

// NewRegistry builds a Registry. create is called for a visitor without a
// live entry.
func NewRegistry[T any](idle time.Duration, create func(id string) T) *Registry[T] {
	if idle <= 0 {
		idle = DefaultTTL
	}
	return &Registry[T]{
		idle:    idle,
		now:     time.Now,
		create:  create,
		entries: make(map[string]*entry[T]),
	}
}

// Get returns the visitor's value, creating it when missing or expired.
func (r *Registry[T]) Get(id string) T {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	e, ok := r.entries[id]
	if !ok || now.Sub(e.lastSeen) > r.idle {
		e = &entry[T]{value: r.create(id)}
		r.entries[id] = e
	}
	e.lastSeen = now
	return e.value
}

// Sweep removes expired entries and returns how many were dropped.
func (r *Registry[T]) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	dropped := 0
	for id, e := range r.entries {
		if now.Sub(e.lastSeen) > r.idle {
			delete(r.entries, id)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of stored entries, expired or not.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
