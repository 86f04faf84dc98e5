package httpapi

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/dnlkv/fmapbot/core/config"
	"github.com/dnlkv/fmapbot/internal/catalog"
	"github.com/dnlkv/fmapbot/internal/images"
	"github.com/dnlkv/fmapbot/internal/users"
)

// UpdateSink receives decoded Telegram updates from the webhook endpoint.
// *tele.Bot satisfies it via ProcessUpdate.
type UpdateSink interface {
	ProcessUpdate(u tele.Update)
}

// Server is the HTTP boundary: the mini-app API, the thumbnail endpoint and
// the Telegram webhook receiver all hang off one chi router.
type Server struct {
	cfg     *coreconfig.Config
	users   *users.Service
	thumbs  *images.Service
	catalog catalog.Store
	bot     UpdateSink

	http *http.Server
}

// New assembles the server; Start must be called to begin serving.
func New(cfg *coreconfig.Config, usersSvc *users.Service, thumbs *images.Service, cat catalog.Store, bot UpdateSink) *Server {
	s := &Server{
		cfg:     cfg,
		users:   usersSvc,
		thumbs:  thumbs,
		catalog: cat,
		bot:     bot,
	}
	s.http = &http.Server{
		Addr:              cfg.HTTP.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the route table; exposed separately for tests.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.HTTP.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/favicon.ico", s.staticFile("favicon.ico"))
	r.Get("/robots.txt", s.staticFile("robots.txt"))
	r.Post("/api/userObj", s.handleUserObj)
	r.Get("/api/items", s.handleItems)
	r.Get("/thumbnail/{imageID}", s.handleThumbnail)
	r.Post("/bot/{token}", s.handleWebhook)

	return r
}

func (s *Server) staticFile(name string) http.HandlerFunc {
	path := filepath.Join(s.cfg.HTTP.StaticDir, name)
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, path)
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
