package router

import (
	"time"

	"github.com/dnlkv/fmapbot/core/logger"
	tg "github.com/dnlkv/fmapbot/core/telegram"
	"github.com/dnlkv/fmapbot/core/telegram/callbacks"
	"github.com/dnlkv/fmapbot/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes prepares command handlers wrapped with shared middleware.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		h := def.Handler
		h = middleware.RecoverMiddleware(h)
		h = middleware.LoggerMiddleware(h)
		routes = append(routes, tg.Route{
			Endpoint: cmd,
			Handler:  h,
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)

	return routes
}

// CallbackRoute returns a handler that routes callbacks through the registry
// by data-prefix matching.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		data := callbacks.Data(c)
		name := "callback." + normalizeHandlerName(data)
		extras := []slog.Attr{slog.String("cb_key", logger.SanitizeLimit(data, 128))}

		_ = c.Respond()

		cbHandler, _, ok := reg.ResolveCallback(data)
		if !ok {
			fallback := reg.CallbackNotFound()
			extras = append(extras, slog.String("cause", "not_found"))
			return handleWithSummary(c, name, start, func() error {
				if fallback != nil {
					return fallback(c)
				}
				return nil
			}, extras...)
		}

		return handleWithSummary(c, name, start, func() error {
			return cbHandler(c)
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}

// MessageRoute wraps a content-type handler (location, text fallback) with
// shared middleware and summary logging.
func MessageRoute(endpoint any, name string, h tele.HandlerFunc) tg.Route {
	wrapped := func(c tele.Context) error {
		start := time.Now()
		return handleWithSummary(c, name, start, func() error {
			return h(c)
		})
	}
	return tg.Route{
		Endpoint: endpoint,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(wrapped)),
	}
}
