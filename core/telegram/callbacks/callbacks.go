package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Data returns the raw callback data with Telebot's \f framing removed.
// Buttons built by the web mini-app carry plain callback_data (for example
// "q_1_widget"), while buttons built through markup.Data arrive as
// "\f<unique>|<payload>"; both forms normalize to the same flat string.
func Data(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	raw = strings.TrimPrefix(raw, "\\f")
	if unique, payload, ok := strings.Cut(raw, "|"); ok {
		unique = strings.TrimSpace(unique)
		if payload == "" {
			return unique
		}
		return unique + "_" + payload
	}
	return strings.TrimSpace(raw)
}

// Split parses the flat form "<key>|<payload>" used by markup.Data buttons.
func Split(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	raw = strings.TrimPrefix(raw, "\\f")
	key, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(key), payload
}
