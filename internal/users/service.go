package users

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dnlkv/fmapbot/core/logger"
)

// Service is the single source of truth for the user bootstrap protocol.
// Both the chat /start flow and the HTTP user-lookup flow go through it;
// neither entry point performs its own check-then-insert.
type Service struct {
	store Store
}

// NewService builds a Service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// EnsureUser returns the user document for tgID, creating a default one on
// first contact. Repeat calls return the existing document unchanged.
func (s *Service) EnsureUser(ctx context.Context, tgID int64) (*User, error) {
	if tgID == 0 {
		return nil, fmt.Errorf("ensure user: empty identity")
	}
	user, created, err := s.store.EnsureUser(ctx, tgID)
	if err != nil {
		logger.LogEvent(ctx, logger.SVCUsers, slog.LevelError, "ensure",
			slog.String("status", "fail"),
			slog.Int64("tg_id", tgID),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	if created {
		logger.LogEvent(ctx, logger.SVCUsers, slog.LevelInfo, "ensure",
			slog.String("status", "ok"),
			slog.Int64("tg_id", tgID),
			slog.Bool("created", true),
		)
	}
	return user, nil
}

// Get fetches the user document without creating it.
func (s *Service) Get(ctx context.Context, tgID int64) (*User, error) {
	return s.store.GetByTelegramID(ctx, tgID)
}

// AddToCart appends a cart-line stub {name, amount: 0} to the user's cart.
// The append is unconditional: no dedup and no catalog existence check;
// quantity resolution happens in a later step.
func (s *Service) AddToCart(ctx context.Context, tgID int64, itemName string) error {
	if itemName == "" {
		return fmt.Errorf("add to cart: empty item name")
	}
	if err := s.store.AppendCartLine(ctx, tgID, CartLine{Name: itemName, Amount: 0}); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.SVCUsers, slog.LevelInfo, "cart.add",
		slog.String("status", "ok"),
		slog.Int64("tg_id", tgID),
		slog.String("item", logger.SanitizeLimit(itemName, 64)),
	)
	return nil
}

// AddMarker stores a geotagged point for the user and returns its id.
func (s *Service) AddMarker(ctx context.Context, tgID int64, lat, lng float64, popup string) (string, error) {
	marker := Marker{
		ID:       uuid.NewString(),
		Position: [2]float64{lat, lng},
		Popup:    popup,
	}
	if err := s.store.AppendMarker(ctx, tgID, marker); err != nil {
		return "", err
	}
	logger.LogEvent(ctx, logger.SVCUsers, slog.LevelInfo, "marker.add",
		slog.String("status", "ok"),
		slog.Int64("tg_id", tgID),
		slog.String("marker_id", marker.ID),
		slog.Float64("lat", lat),
		slog.Float64("lng", lng),
	)
	return marker.ID, nil
}

// SetAlerts toggles the alert preference for the user.
func (s *Service) SetAlerts(ctx context.Context, tgID int64, on bool) error {
	return s.store.SetAlerts(ctx, tgID, on)
}

// SetLang stores the configured language for the user.
func (s *Service) SetLang(ctx context.Context, tgID int64, lang string) error {
	return s.store.SetLang(ctx, tgID, lang)
}

// AlertsEnabled reports whether the user exists and has alerts switched on.
// Missing users read as opted out, so alert sends stay best-effort.
func (s *Service) AlertsEnabled(ctx context.Context, tgID int64) bool {
	user, err := s.store.GetByTelegramID(ctx, tgID)
	if err != nil {
		return false
	}
	return user.AlertsOn
}
