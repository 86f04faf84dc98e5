package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dnlkv/fmapbot/core/logger"
)

// requestLogger attaches a request id to the context and emits one summary
// line per request, matching the bot side's handler summaries.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rid := logger.BuildRID(0, 0, start.UnixNano()%100000)
		ctx := logger.WithRID(r.Context(), rid)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.LogEvent(ctx, logger.HTTP, slog.LevelInfo, "request.handled",
			slog.String("method", r.Method),
			slog.String("path", redactPath(r.URL.Path)),
			slog.Int("http_code", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", logger.Took(start)),
		)
	})
}

// redactPath keeps the bot token out of access logs.
func redactPath(path string) string {
	if strings.HasPrefix(path, "/bot/") {
		return "/bot/<redacted>"
	}
	return logger.SanitizeLimit(path, 200)
}
