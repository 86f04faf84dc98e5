package images

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when no stored image matches the requested id.
var ErrNotFound = errors.New("image not found")

// BlobStore holds raw image bytes keyed by id.
type BlobStore interface {
	Get(ctx context.Context, id string) ([]byte, error)
	Put(ctx context.Context, id string, data []byte) error
}

// PostgresStore implements BlobStore on top of the images table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps the given connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get fetches the raw bytes for id or returns ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, `SELECT data FROM images WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("image %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get image %q: %w", id, err)
	}
	return data, nil
}

// Put stores or replaces the raw bytes for id.
func (s *PostgresStore) Put(ctx context.Context, id string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO images (id, data) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`, id, data)
	if err != nil {
		return fmt.Errorf("put image %q: %w", id, err)
	}
	return nil
}

// MemoryStore is an in-process BlobStore used in tests. Gets counts the
// lookups it serves so tests can assert a sentinel id never reaches it.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	Gets  int
}

// NewMemoryStore returns an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Get fetches the raw bytes for id or returns ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Gets++
	data, ok := s.blobs[id]
	if !ok {
		return nil, fmt.Errorf("image %q: %w", id, ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Put stores or replaces the raw bytes for id.
func (s *MemoryStore) Put(_ context.Context, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[id] = append([]byte(nil), data...)
	return nil
}
