// Package sqlitekv is a kv.Backend persisted to a single sqlite table, one
// row per key. Locking is in-process: every writer in this process goes
// through the same named sections, matching the single-store concurrency
// model of the engine.
package sqlitekv

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"sfextract-backend/lib/kv"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
`

type Store struct {
	kv.NamedLocks

	db       *sql.DB
	mu       sync.Mutex
	watchers map[string]map[int]chan []byte
	nextId   int
}

// Open opens a file-backed store, ":memory:" included.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return newStore(db)
}

// OpenURL opens a remote libsql store.
func OpenURL(url string) (*Store, error) {
	db, err := sql.Open("libsql", url)
	if err != nil {
		return nil, err
	}
	return newStore(db)
}

func newStore(db *sql.DB) (*Store, error) {
	_, err := db.Exec(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize kv schema: %w", err)
	}
	return &Store{
		db:       db,
		watchers: map[string]map[int]chan []byte{},
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key)

	var value []byte
	err := row.Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return err
	}

	s.mu.Lock()
	for _, ch := range s.watchers[key] {
		select {
		case ch <- value:
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
