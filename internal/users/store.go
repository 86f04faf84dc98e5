package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Store owns the user documents. EnsureUser must be atomic: two racing calls
// for the same identity may not both insert.
type Store interface {
	EnsureUser(ctx context.Context, tgID int64) (*User, bool, error)
	GetByTelegramID(ctx context.Context, tgID int64) (*User, error)
	AppendCartLine(ctx context.Context, tgID int64, line CartLine) error
	AppendMarker(ctx context.Context, tgID int64, marker Marker) error
	SetAlerts(ctx context.Context, tgID int64, on bool) error
	SetLang(ctx context.Context, tgID int64, lang string) error
}

// PostgresStore implements Store on top of the users table.
// The unique constraint on tg_id carries the at-most-one-document invariant.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps the given connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectUserQuery = `
	SELECT id, tg_id, alerts_on, lang, markers, cart, created_at, updated_at
	FROM users
	WHERE tg_id = $1`

// EnsureUser inserts a default document for tgID unless one exists, then
// returns the current document. The insert relies on ON CONFLICT DO NOTHING,
// so concurrent first contacts cannot produce duplicates.
func (s *PostgresStore) EnsureUser(ctx context.Context, tgID int64) (*User, bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (tg_id) VALUES ($1) ON CONFLICT (tg_id) DO NOTHING`, tgID)
	if err != nil {
		return nil, false, fmt.Errorf("ensure user %d: %w", tgID, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("ensure user %d: %w", tgID, err)
	}

	user, err := s.GetByTelegramID(ctx, tgID)
	if err != nil {
		return nil, false, err
	}
	return user, inserted > 0, nil
}

// GetByTelegramID fetches the document for tgID or returns ErrNotFound.
func (s *PostgresStore) GetByTelegramID(ctx context.Context, tgID int64) (*User, error) {
	var user User
	if err := s.db.GetContext(ctx, &user, selectUserQuery, tgID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tg_id %d: %w", tgID, ErrNotFound)
		}
		return nil, fmt.Errorf("get user %d: %w", tgID, err)
	}
	return &user, nil
}

// AppendCartLine appends line to the user's cart; no dedup is performed.
func (s *PostgresStore) AppendCartLine(ctx context.Context, tgID int64, line CartLine) error {
	return s.appendJSON(ctx, tgID, "cart", []CartLine{line})
}

// AppendMarker appends marker to the user's marker sequence.
func (s *PostgresStore) AppendMarker(ctx context.Context, tgID int64, marker Marker) error {
	return s.appendJSON(ctx, tgID, "markers", []Marker{marker})
}

// appendJSON concatenates a single-element JSONB array onto the given column.
func (s *PostgresStore) appendJSON(ctx context.Context, tgID int64, column string, elem any) error {
	data, err := json.Marshal(elem)
	if err != nil {
		return fmt.Errorf("append %s for %d: %w", column, tgID, err)
	}
	query := fmt.Sprintf(
		`UPDATE users SET %s = %s || $2::jsonb, updated_at = now() WHERE tg_id = $1`,
		column, column)
	res, err := s.db.ExecContext(ctx, query, tgID, data)
	if err != nil {
		return fmt.Errorf("append %s for %d: %w", column, tgID, err)
	}
	return s.checkAffected(res, tgID)
}

// SetAlerts toggles the alert preference.
func (s *PostgresStore) SetAlerts(ctx context.Context, tgID int64, on bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET alerts_on = $2, updated_at = now() WHERE tg_id = $1`, tgID, on)
	if err != nil {
		return fmt.Errorf("set alerts for %d: %w", tgID, err)
	}
	return s.checkAffected(res, tgID)
}

// SetLang stores the configured language.
func (s *PostgresStore) SetLang(ctx context.Context, tgID int64, lang string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET lang = $2, updated_at = now() WHERE tg_id = $1`, tgID, lang)
	if err != nil {
		return fmt.Errorf("set lang for %d: %w", tgID, err)
	}
	return s.checkAffected(res, tgID)
}

func (s *PostgresStore) checkAffected(res sql.Result, tgID int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("tg_id %d: %w", tgID, ErrNotFound)
	}
	return nil
}
