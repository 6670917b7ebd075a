// Package memkv is an in-memory kv.Backend used by tests and as the default
// store of the CLI when no database path is given. An artificial write
// latency can be injected to surface lost-update races in tests.
package memkv

import (
	"context"
	"sync"
	"time"

	"sfextract-backend/lib/kv"
)

type Store struct {
	kv.NamedLocks

	// WriteLatency is applied before every Set takes effect.
	WriteLatency time.Duration

	mu       sync.Mutex
	values   map[string][]byte
	watchers map[string]map[int]chan []byte
	nextId   int
}

func NewStore() *Store {
	return &Store{
		values:   map[string][]byte{},
		watchers: map[string]map[int]chan []byte{},
	}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if s.WriteLatency > 0 {
		select {
		case <-time.After(s.WriteLatency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	s.values[key] = stored
	for _, ch := range s.watchers[key] {
		select {
		case ch <- stored:
		default:
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) Watch(key string) (<-chan []byte, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextId
	s.nextId++
	ch := make(chan []byte, 1)
	if s.watchers[key] == nil {
		s.watchers[key] = map[int]chan []byte{}
	}
	s.watchers[key][id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.watchers[key][id]; ok {
			delete(s.watchers[key], id)
			close(ch)
		}
	}
}
