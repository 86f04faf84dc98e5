package users

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store used in tests and local development.
// A single mutex serializes check-then-insert, giving the same atomicity
// guarantee the Postgres unique constraint provides.
type MemoryStore struct {
	mu    sync.Mutex
	users map[int64]*User
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[int64]*User)}
}

// EnsureUser creates a default document for tgID unless one exists.
func (s *MemoryStore) EnsureUser(_ context.Context, tgID int64) (*User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[tgID]; ok {
		return cloneUser(u), false, nil
	}
	u := &User{
		TelegramID: tgID,
		Markers:    MarkerList{},
		Cart:       CartLines{},
	}
	s.users[tgID] = u
	return cloneUser(u), true, nil
}

// GetByTelegramID fetches the document for tgID or returns ErrNotFound.
func (s *MemoryStore) GetByTelegramID(_ context.Context, tgID int64) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[tgID]
	if !ok {
		return nil, fmt.Errorf("tg_id %d: %w", tgID, ErrNotFound)
	}
	return cloneUser(u), nil
}

// AppendCartLine appends line to the user's cart.
func (s *MemoryStore) AppendCartLine(_ context.Context, tgID int64, line CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[tgID]
	if !ok {
		return fmt.Errorf("tg_id %d: %w", tgID, ErrNotFound)
	}
	u.Cart = append(u.Cart, line)
	return nil
}

// AppendMarker appends marker to the user's marker sequence.
func (s *MemoryStore) AppendMarker(_ context.Context, tgID int64, marker Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[tgID]
	if !ok {
		return fmt.Errorf("tg_id %d: %w", tgID, ErrNotFound)
	}
	u.Markers = append(u.Markers, marker)
	return nil
}

// SetAlerts toggles the alert preference.
func (s *MemoryStore) SetAlerts(_ context.Context, tgID int64, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[tgID]
	if !ok {
		return fmt.Errorf("tg_id %d: %w", tgID, ErrNotFound)
	}
	u.AlertsOn = on
	return nil
}

// SetLang stores the configured language.
func (s *MemoryStore) SetLang(_ context.Context, tgID int64, lang string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[tgID]
	if !ok {
		return fmt.Errorf("tg_id %d: %w", tgID, ErrNotFound)
	}
	u.Lang = lang
	return nil
}

// Len reports the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func cloneUser(u *User) *User {
	clone := *u
	clone.Markers = append(MarkerList{}, u.Markers...)
	clone.Cart = append(CartLines{}, u.Cart...)
	return &clone
}
