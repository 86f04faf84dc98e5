package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/dnlkv/fmapbot/internal/catalog"
	"github.com/dnlkv/fmapbot/internal/users"
)

// fakeContext records replies instead of calling the Telegram API. Only the
// methods the handlers touch are implemented; the rest panic via the
// embedded nil interface, which keeps accidental API usage visible.
type fakeContext struct {
	tele.Context

	sender   *tele.User
	chat     *tele.Chat
	message  *tele.Message
	callback *tele.Callback
	update   tele.Update

	store   map[string]any
	sent    []any
	markups []*tele.ReplyMarkup
}

func newFakeContext(tgID int64) *fakeContext {
	user := &tele.User{ID: tgID}
	return &fakeContext{
		sender: user,
		chat:   &tele.Chat{ID: tgID},
		store:  map[string]any{},
	}
}

func (f *fakeContext) Sender() *tele.User       { return f.sender }
func (f *fakeContext) Chat() *tele.Chat         { return f.chat }
func (f *fakeContext) Message() *tele.Message   { return f.message }
func (f *fakeContext) Callback() *tele.Callback { return f.callback }
func (f *fakeContext) Update() tele.Update      { return f.update }
func (f *fakeContext) Get(key string) any       { return f.store[key] }
func (f *fakeContext) Set(key string, v any)    { f.store[key] = v }

func (f *fakeContext) Send(what any, opts ...any) error {
	f.sent = append(f.sent, what)
	for _, opt := range opts {
		if m, ok := opt.(*tele.ReplyMarkup); ok {
			f.markups = append(f.markups, m)
		}
	}
	return nil
}

func newHandlers(t *testing.T) (*Handlers, *users.MemoryStore) {
	t.Helper()
	store := users.NewMemoryStore()
	return NewHandlers(users.NewService(store), nil, nil, "https://map.example.com/"), store
}

type recordingAlerter struct {
	alerts []int64
}

func (r *recordingAlerter) Alert(_ context.Context, tgID int64, _ string) {
	r.alerts = append(r.alerts, tgID)
}

func TestStartBootstrapsAndSendsWebAppButton(t *testing.T) {
	h, store := newHandlers(t)
	c := newFakeContext(42)

	require.NoError(t, h.Start(c))

	assert.Equal(t, 1, store.Len())
	require.Len(t, c.sent, 1)
	assert.Equal(t, "open map", c.sent[0])

	require.Len(t, c.markups, 1)
	rows := c.markups[0].InlineKeyboard
	require.Len(t, rows, 1)
	require.Len(t, rows[0], 1)
	btn := rows[0][0]
	assert.Equal(t, "Welcome to friendly map bot", btn.Text)
	require.NotNil(t, btn.WebApp)
	assert.Equal(t, "https://map.example.com?=42", btn.WebApp.URL)
}

func TestStartIsIdempotent(t *testing.T) {
	h, store := newHandlers(t)

	require.NoError(t, h.Start(newFakeContext(42)))
	require.NoError(t, h.Start(newFakeContext(42)))

	assert.Equal(t, 1, store.Len())
}

func TestAddToCartCallback(t *testing.T) {
	h, _ := newHandlers(t)
	c := newFakeContext(42)
	c.callback = &tele.Callback{Data: "q_1_widget"}

	require.NoError(t, h.AddToCart(c))

	u, err := h.users.Get(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, u.Cart, 1)
	assert.Equal(t, "widget", u.Cart[0].Name)
	assert.Equal(t, 0, u.Cart[0].Amount)

	require.Len(t, c.sent, 1)
	assert.Equal(t, "widget added to cart", c.sent[0])
}

func TestAddToCartKeepsDuplicates(t *testing.T) {
	h, _ := newHandlers(t)
	for i := 0; i < 2; i++ {
		c := newFakeContext(42)
		c.callback = &tele.Callback{Data: "q_1_widget"}
		require.NoError(t, h.AddToCart(c))
	}

	u, err := h.users.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, u.Cart, 2)
}

func TestAddToCartFramedCallbackData(t *testing.T) {
	h, _ := newHandlers(t)
	c := newFakeContext(42)
	c.callback = &tele.Callback{Data: "\fq_1_widget"}

	require.NoError(t, h.AddToCart(c))

	u, err := h.users.Get(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, u.Cart, 1)
	assert.Equal(t, "widget", u.Cart[0].Name)
}

func TestAddToCartConfirmationUsesCatalog(t *testing.T) {
	store := users.NewMemoryStore()
	cat := catalog.NewMemoryStore()
	require.NoError(t, cat.Upsert(context.Background(), catalog.Item{
		Name: "honey", Price: 450, Currency: "RUB", MeasurementType: "jar",
	}))
	h := NewHandlers(users.NewService(store), cat, nil, "https://map.example.com")

	c := newFakeContext(42)
	c.callback = &tele.Callback{Data: "q_1_honey"}
	require.NoError(t, h.AddToCart(c))

	require.Len(t, c.sent, 1)
	assert.Equal(t, "honey added to cart (450 RUB per jar)", c.sent[0])

	// Unknown items still append; only the confirmation stays plain.
	c2 := newFakeContext(42)
	c2.callback = &tele.Callback{Data: "q_1_mystery"}
	require.NoError(t, h.AddToCart(c2))
	assert.Equal(t, "mystery added to cart", c2.sent[0])

	u, err := h.users.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, u.Cart, 2)
}

func TestLocationEchoesAndStoresMarker(t *testing.T) {
	h, _ := newHandlers(t)
	c := newFakeContext(42)
	c.message = &tele.Message{Location: &tele.Location{Lat: 55.75, Lng: 37.61}}

	require.NoError(t, h.Location(c))

	u, err := h.users.Get(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, u.Markers, 1)
	assert.InDelta(t, 55.75, u.Markers[0].Position[0], 1e-4)
	assert.InDelta(t, 37.61, u.Markers[0].Position[1], 1e-4)
	assert.Empty(t, u.Markers[0].Popup)

	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "latitude: 55.75")
	assert.Contains(t, c.sent[0], "longitude: 37.61")
}

func TestLocationSendsOptInAlert(t *testing.T) {
	store := users.NewMemoryStore()
	alerter := &recordingAlerter{}
	h := NewHandlers(users.NewService(store), nil, alerter, "https://map.example.com")

	c := newFakeContext(42)
	c.message = &tele.Message{Location: &tele.Location{Lat: 1, Lng: 2}}
	require.NoError(t, h.Location(c))

	assert.Equal(t, []int64{42}, alerter.alerts)
}

func TestLocationWithoutPayloadIsIgnored(t *testing.T) {
	h, store := newHandlers(t)
	c := newFakeContext(42)
	c.message = &tele.Message{}

	require.NoError(t, h.Location(c))

	assert.Zero(t, store.Len())
	assert.Empty(t, c.sent)
}

func TestRegistryRoutesCartPrefix(t *testing.T) {
	h, _ := newHandlers(t)
	reg := NewRegistry(h)

	handler, payload, ok := reg.ResolveCallback("q_1_widget")
	require.True(t, ok)
	require.NotNil(t, handler)
	assert.Equal(t, "widget", payload)

	_, _, ok = reg.ResolveCallback("unknown_action")
	assert.False(t, ok)
}
