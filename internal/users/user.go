package users

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dnlkv/fmapbot/internal/catalog"
)

// ErrNotFound is returned when no user document exists for the identity.
var ErrNotFound = errors.New("user not found")

// Marker is a geotagged point shown on the mini-app map.
// Position is [latitude, longitude], matching the payload the front end reads.
type Marker struct {
	ID       string     `json:"id,omitempty"`
	Position [2]float64 `json:"position"`
	Popup    string     `json:"popup"`
}

// CartLine references a catalog item by name plus a quantity amount.
// Item stays nil until a later resolution step fills it in.
type CartLine struct {
	Name   string        `json:"name"`
	Amount int           `json:"amount"`
	Item   *catalog.Item `json:"item,omitempty"`
}

// User is the per-identity document. TelegramID is the canonical identity:
// always an int64, normalized at every boundary.
type User struct {
	ID         int64      `db:"id" json:"-"`
	TelegramID int64      `db:"tg_id" json:"tg_id"`
	AlertsOn   bool       `db:"alerts_on" json:"alerts_on"`
	Lang       string     `db:"lang" json:"lang,omitempty"`
	Markers    MarkerList `db:"markers" json:"markers"`
	Cart       CartLines  `db:"cart" json:"cart"`
	CreatedAt  time.Time  `db:"created_at" json:"-"`
	UpdatedAt  time.Time  `db:"updated_at" json:"-"`
}

// MarkerList stores markers as a JSONB document column.
type MarkerList []Marker

// Value implements driver.Valuer.
func (m MarkerList) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *MarkerList) Scan(src any) error {
	return scanJSON(src, m, "markers")
}

// CartLines stores cart lines as a JSONB document column.
type CartLines []CartLine

// Value implements driver.Valuer.
func (c CartLines) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *CartLines) Scan(src any) error {
	return scanJSON(src, c, "cart")
}

func scanJSON(src, dst any, column string) error {
	if src == nil {
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("%s: unsupported scan type %T", column, src)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
