package notify

import (
	"context"
	"log/slog"

	"github.com/dnlkv/fmapbot/core/logger"
)

// Sender delivers a message to a chat. *Notifier satisfies it.
type Sender interface {
	Notify(chatID int64, text string)
}

// AlertGate reports whether a recipient opted into alerts.
// *users.Service satisfies it via AlertsEnabled.
type AlertGate interface {
	AlertsEnabled(ctx context.Context, tgID int64) bool
}

// UserAlerts sends best-effort user alerts honoring the per-user opt-in.
// Recipients with alerts switched off are skipped silently.
type UserAlerts struct {
	sender Sender
	gate   AlertGate
}

// NewUserAlerts composes the notifier with the opt-in gate.
func NewUserAlerts(sender Sender, gate AlertGate) *UserAlerts {
	return &UserAlerts{sender: sender, gate: gate}
}

// Alert queues text for tgID if the recipient opted in.
func (a *UserAlerts) Alert(ctx context.Context, tgID int64, text string) {
	if a == nil || a.sender == nil {
		return
	}
	if a.gate != nil && !a.gate.AlertsEnabled(ctx, tgID) {
		logger.LogEvent(ctx, logger.SVCNotify, slog.LevelDebug, "alert.skipped",
			slog.Int64("chat_id", tgID),
		)
		return
	}
	a.sender.Notify(tgID, text)
}
