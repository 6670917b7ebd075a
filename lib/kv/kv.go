// Package kv abstracts the document store the persistence engine writes to:
// an async get/set keyed by string, change notifications per key, and named
// mutual-exclusion sections serializing writers.
package kv

import (
	"context"
	"sync"
)

type Store interface {
	// Get returns the value under key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set writes the value under key and notifies watchers of that key.
	Set(ctx context.Context, key string, value []byte) error
	// Watch returns a channel receiving the new value after every Set of
	// key, and a release function. The channel is closed on release.
	Watch(key string) (<-chan []byte, func())
}

type Locker interface {
	// WithLock runs fn while holding the mutual-exclusion section called
	// name. Two writers using the same name never overlap.
	WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// Backend is what the persistence engine is handed: storage plus locking.
type Backend interface {
	Store
	Locker
}

// NamedLocks implements Locker with in-process mutexes, one per name.
// The zero value is ready to use.
type NamedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *NamedLocks) WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = map[string]*sync.Mutex{}
	}
	m, ok := l.locks[name]
	if !ok {
		m = &sync.Mutex{}
		l.locks[name] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}
