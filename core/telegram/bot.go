package telegram

import (
	"fmt"
	"time"

	"github.com/dnlkv/fmapbot/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// BuildOptions controls BuildBot.
type BuildOptions struct {
	Token string
	// Offline skips the initial getMe verification; used in tests.
	Offline bool

	Middlewares []Middleware
	Routes      []Route
	Registry    *Registry
}

// BuildBot constructs a webhook-fed bot: no poller is attached, updates are
// delivered by the HTTP boundary through tele.Bot.ProcessUpdate.
func BuildBot(opts BuildOptions) (*tele.Bot, error) {
	settings := tele.Settings{
		Token:   opts.Token,
		Client:  BuildHTTPClient(),
		Offline: opts.Offline,
	}

	buildStart := time.Now()
	bot, err := tele.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	for _, mw := range opts.Middlewares {
		if mw.Use == nil {
			continue
		}
		bot.Use(mw.Use)
	}

	for _, route := range opts.Routes {
		if route.Endpoint == nil || route.Handler == nil {
			continue
		}
		bot.Handle(route.Endpoint, route.Handler)
	}

	if opts.Registry != nil && !opts.Offline {
		InitBotCommands(bot, opts.Registry)
	}

	logger.TWire.Info("bot built",
		slog.String("event", "mode"),
		slog.String("mode", "webhook"),
		slog.Duration("duration", logger.RoundMS(time.Since(buildStart))),
	)

	return bot, nil
}
