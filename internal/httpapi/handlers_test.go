package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/dnlkv/fmapbot/core/config"
	"github.com/dnlkv/fmapbot/internal/catalog"
	"github.com/dnlkv/fmapbot/internal/images"
	"github.com/dnlkv/fmapbot/internal/users"
)

type recordingSink struct {
	mu      sync.Mutex
	updates []tele.Update
}

func (r *recordingSink) ProcessUpdate(u tele.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recordingSink) all() []tele.Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tele.Update(nil), r.updates...)
}

type fixture struct {
	server  *Server
	users   *users.MemoryStore
	blobs   *images.MemoryStore
	catalog *catalog.MemoryStore
	sink    *recordingSink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "robots.txt"), []byte("User-agent: *\nDisallow: /\n"), 0o644))

	cfg := &coreconfig.Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.HTTP.Listen = "127.0.0.1:0"
	cfg.HTTP.StaticDir = staticDir
	cfg.HTTP.CORSOrigins = []string{"https://map.example.com"}

	userStore := users.NewMemoryStore()
	blobStore := images.NewMemoryStore()
	catalogStore := catalog.NewMemoryStore()
	sink := &recordingSink{}

	return &fixture{
		server:  New(cfg, users.NewService(userStore), images.NewService(blobStore), catalogStore, sink),
		users:   userStore,
		blobs:   blobStore,
		catalog: catalogStore,
		sink:    sink,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func TestUserObjBootstrapsNewUser(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/userObj", `{"tg_id": 42}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message string      `json:"message"`
		UserObj *users.User `json:"userObj"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Hello World", resp.Message)
	require.NotNil(t, resp.UserObj)
	assert.Equal(t, int64(42), resp.UserObj.TelegramID)
	assert.Empty(t, resp.UserObj.Cart)
	assert.Equal(t, 1, f.users.Len())
}

func TestUserObjAcceptsStringIdentity(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/userObj", `{"tg_id": "42"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.users.Len())
}

func TestUserObjRepeatCallReturnsSameDocument(t *testing.T) {
	f := newFixture(t)

	first := f.do(t, http.MethodPost, "/api/userObj", `{"tg_id": 42}`)
	second := f.do(t, http.MethodPost, "/api/userObj", `{"tg_id": 42}`)

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, f.users.Len())
}

func TestUserObjRejectsBadIdentity(t *testing.T) {
	f := newFixture(t)

	for _, body := range []string{`{}`, `{"tg_id": "abc"}`, `not json`} {
		rec := f.do(t, http.MethodPost, "/api/userObj", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "body: %s", body)

		var errResp struct {
			Detail string `json:"detail"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
		assert.NotEmpty(t, errResp.Detail)
	}
}

func TestItemsEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	require.NoError(t, f.catalog.Upsert(context.Background(), catalog.Item{
		Name: "honey", Stock: 15, Currency: "RUB", Price: 450, MeasurementType: "jar",
	}))

	rec = f.do(t, http.MethodGet, "/api/items", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []catalog.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "honey", items[0].Name)
	assert.InDelta(t, 450, items[0].Price, 1e-9)
}

func TestThumbnailEndpoint(t *testing.T) {
	f := newFixture(t)

	img := image.NewRGBA(image.Rect(0, 0, 100, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, f.blobs.Put(context.Background(), "img-1", buf.Bytes()))

	rec := f.do(t, http.MethodGet, "/thumbnail/img-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))

	cfg, format, err := image.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, images.ThumbnailSize, cfg.Width)
	assert.Equal(t, images.ThumbnailSize, cfg.Height)
}

func TestThumbnailNotFound(t *testing.T) {
	f := newFixture(t)

	for _, id := range []string{"absent", "None"} {
		rec := f.do(t, http.MethodGet, "/thumbnail/"+id, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, "id: %s", id)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var errResp struct {
			Detail string `json:"detail"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
		assert.Contains(t, errResp.Detail, id, "detail must name the identifier")
	}
}

func TestThumbnailCorruptImageIs500(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.blobs.Put(context.Background(), "bad", []byte("junk")))

	rec := f.do(t, http.MethodGet, "/thumbnail/bad", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var errResp struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Contains(t, errResp.Detail, "decode image", "detail must carry the processing error")
}

func TestWebhookFeedsBot(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/bot/123:abc", `{"update_id": 7, "message": {"message_id": 1, "text": "/start"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got := f.sink.all()
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].ID)
}

func TestWebhookRejectsWrongToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/bot/999:wrong", `{"update_id": 7}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, f.sink.all())
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/bot/123:abc", `{{{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.sink.all())
}

func TestRobotsTxt(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/robots.txt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User-agent")
}

func TestRedactPath(t *testing.T) {
	assert.Equal(t, "/bot/<redacted>", redactPath("/bot/123:abc"))
	assert.Equal(t, "/api/userObj", redactPath("/api/userObj"))
}
