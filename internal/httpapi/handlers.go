package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	tele "gopkg.in/telebot.v4"

	"github.com/dnlkv/fmapbot/core/logger"
	"github.com/dnlkv/fmapbot/internal/catalog"
	"github.com/dnlkv/fmapbot/internal/images"
	"github.com/dnlkv/fmapbot/internal/users"
)

// telegramID accepts both JSON number and JSON string forms of a Telegram
// identity. The mini-app reads the id off the query string and posts it back
// as a string; chat-originated callers send a number.
type telegramID int64

func (t *telegramID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	raw = strings.Trim(raw, `"`)
	if raw == "" || raw == "null" {
		return errors.New("tg_id is empty")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("tg_id %q is not numeric", raw)
	}
	*t = telegramID(id)
	return nil
}

type userObjRequest struct {
	TelegramID telegramID `json:"tg_id"`
}

type userObjResponse struct {
	Message string      `json:"message"`
	UserObj *users.User `json:"userObj"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, errorBody{Detail: detail})
}

// handleUserObj bootstraps the user for the posted identity and returns the
// full document. First contact and repeat calls are indistinguishable to the
// caller.
func (s *Server) handleUserObj(w http.ResponseWriter, r *http.Request) {
	var req userObjRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if req.TelegramID == 0 {
		writeError(w, http.StatusUnprocessableEntity, "tg_id is required")
		return
	}

	user, err := s.users.EnsureUser(r.Context(), int64(req.TelegramID))
	if err != nil {
		logger.LogEvent(r.Context(), logger.HTTP, slog.LevelError, "userObj",
			slog.String("status", "fail"),
			slog.Int64("tg_id", int64(req.TelegramID)),
			slog.String("err", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "user lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, userObjResponse{Message: "Hello World", UserObj: user})
}

// handleItems returns the catalog the mini-app renders its shop page from.
func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalog.List(r.Context())
	if err != nil {
		logger.LogEvent(r.Context(), logger.HTTP, slog.LevelError, "items",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}
	if items == nil {
		items = []catalog.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

// handleThumbnail streams the square JPEG for the requested image id.
func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	imageID := chi.URLParam(r, "imageID")

	data, contentType, err := s.thumbs.Thumbnail(r.Context(), imageID)
	if err != nil {
		// The error text goes into the body: not-found carries the
		// identifier, processing failures carry the underlying cause.
		if errors.Is(err, images.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		logger.LogEvent(r.Context(), logger.HTTP, slog.LevelError, "thumbnail",
			slog.String("status", "fail"),
			slog.String("image_id", logger.SanitizeLimit(imageID, 64)),
			slog.String("err", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// handleWebhook feeds a Telegram update envelope into the bot. The path
// token doubles as authentication: only Telegram knows the full URL.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "token") != s.cfg.Telegram.Token {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var update tele.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "malformed update")
		return
	}

	s.bot.ProcessUpdate(update)
	w.WriteHeader(http.StatusOK)
}
