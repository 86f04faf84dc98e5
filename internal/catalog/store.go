package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jmoiron/sqlx"
)

// Store provides read access to the catalog and the seed upsert.
type Store interface {
	GetByName(ctx context.Context, name string) (*Item, error)
	List(ctx context.Context) ([]Item, error)
	Upsert(ctx context.Context, item Item) error
}

// PostgresStore implements Store on top of the catalog_items table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps the given connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectItemColumns = `
	name, stock, info, measurement_type, reserved, tags, currency, price, step`

// GetByName fetches a single item or returns ErrNotFound.
func (s *PostgresStore) GetByName(ctx context.Context, name string) (*Item, error) {
	var item Item
	query := `SELECT ` + selectItemColumns + ` FROM catalog_items WHERE name = $1`
	if err := s.db.GetContext(ctx, &item, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("get item %q: %w", name, err)
	}
	return &item, nil
}

// List returns all items ordered by name.
func (s *PostgresStore) List(ctx context.Context) ([]Item, error) {
	var items []Item
	query := `SELECT ` + selectItemColumns + ` FROM catalog_items ORDER BY name`
	if err := s.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// Upsert inserts or replaces the item keyed by name.
func (s *PostgresStore) Upsert(ctx context.Context, item Item) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO catalog_items (name, stock, info, measurement_type, reserved, tags, currency, price, step)
		VALUES (:name, :stock, :info, :measurement_type, :reserved, :tags, :currency, :price, :step)
		ON CONFLICT (name) DO UPDATE SET
			stock = EXCLUDED.stock,
			info = EXCLUDED.info,
			measurement_type = EXCLUDED.measurement_type,
			reserved = EXCLUDED.reserved,
			tags = EXCLUDED.tags,
			currency = EXCLUDED.currency,
			price = EXCLUDED.price,
			step = EXCLUDED.step`, item)
	if err != nil {
		return fmt.Errorf("upsert item %q: %w", item.Name, err)
	}
	return nil
}

// MemoryStore is an in-process Store used in tests.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]Item
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Item)}
}

// GetByName fetches a single item or returns ErrNotFound.
func (s *MemoryStore) GetByName(_ context.Context, name string) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[name]
	if !ok {
		return nil, fmt.Errorf("item %q: %w", name, ErrNotFound)
	}
	return &item, nil
}

// List returns all items ordered by name.
func (s *MemoryStore) List(_ context.Context) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// Upsert inserts or replaces the item keyed by name.
func (s *MemoryStore) Upsert(_ context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.Name] = item
	return nil
}
