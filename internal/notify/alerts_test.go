package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSender struct {
	sent []int64
}

func (r *recordingSender) Notify(chatID int64, _ string) {
	r.sent = append(r.sent, chatID)
}

type staticGate bool

func (g staticGate) AlertsEnabled(context.Context, int64) bool { return bool(g) }

func TestUserAlertsHonorsOptIn(t *testing.T) {
	sender := &recordingSender{}
	alerts := NewUserAlerts(sender, staticGate(true))

	alerts.Alert(context.Background(), 42, "marker saved")
	assert.Equal(t, []int64{42}, sender.sent)
}

func TestUserAlertsSkipsOptedOut(t *testing.T) {
	sender := &recordingSender{}
	alerts := NewUserAlerts(sender, staticGate(false))

	alerts.Alert(context.Background(), 42, "marker saved")
	assert.Empty(t, sender.sent)
}

func TestUserAlertsNilSafe(t *testing.T) {
	var alerts *UserAlerts
	alerts.Alert(context.Background(), 42, "ignored")
}
