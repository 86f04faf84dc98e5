package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/dnlkv/fmapbot/core/telegram/callbacks"
	"github.com/dnlkv/fmapbot/core/telegram/helpers"
	"github.com/dnlkv/fmapbot/core/telegram/keyboard"
	"github.com/dnlkv/fmapbot/internal/catalog"
	"github.com/dnlkv/fmapbot/internal/users"
)

// cartCallbackPrefix is the raw callback data prefix the mini-app and inline
// keyboards use for "add one of <item>" actions.
const cartCallbackPrefix = "q_1_"

const webAppButtonText = "Welcome to friendly map bot"

// Alerter delivers opt-in, best-effort user alerts outside the reply flow.
type Alerter interface {
	Alert(ctx context.Context, tgID int64, text string)
}

// Handlers owns the chat-facing flows. Everything stateful goes through the
// users service; handlers only shape replies.
type Handlers struct {
	users    *users.Service
	catalog  catalog.Store
	alerts   Alerter
	frontURL string
}

// NewHandlers wires the chat handlers. catalog and alerts may be nil; the
// cart confirmation stays plain and no alerts go out.
func NewHandlers(usersSvc *users.Service, cat catalog.Store, alerts Alerter, frontURL string) *Handlers {
	return &Handlers{users: usersSvc, catalog: cat, alerts: alerts, frontURL: frontURL}
}

// mapURL builds the mini-app link for the given identity. The original
// front-end reads the id from the bare query string, hence `?=` with no key.
func (h *Handlers) mapURL(tgID int64) string {
	return strings.TrimRight(h.frontURL, "/") + "?=" + strconv.FormatInt(tgID, 10)
}

// Start bootstraps the user and replies with the WebApp button.
func (h *Handlers) Start(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := helpers.BuildContext(c)
	if _, err := h.users.EnsureUser(ctx, sender.ID); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	return c.Send("open map", keyboard.WebAppMarkup(webAppButtonText, h.mapURL(sender.ID)))
}

// AddToCart handles `q_1_<item_name>` callbacks: the item name is everything
// after the prefix, appended to the cart as-is. The append never checks the
// catalog; a known item only enriches the confirmation text.
func (h *Handlers) AddToCart(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	itemName := strings.TrimPrefix(callbacks.Data(c), cartCallbackPrefix)
	if itemName == "" {
		return c.Send("Unknown item")
	}
	ctx := helpers.BuildContext(c)
	if _, err := h.users.EnsureUser(ctx, sender.ID); err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	if err := h.users.AddToCart(ctx, sender.ID, itemName); err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	return c.Send(h.cartConfirmation(ctx, itemName))
}

func (h *Handlers) cartConfirmation(ctx context.Context, itemName string) string {
	if h.catalog != nil {
		if item, err := h.catalog.GetByName(ctx, itemName); err == nil {
			return fmt.Sprintf("%s added to cart (%g %s per %s)",
				item.Name, item.Price, item.Currency, item.MeasurementType)
		}
	}
	return fmt.Sprintf("%s added to cart", itemName)
}

// Location echoes the shared point back and stores it as a map marker.
// Users who opted into alerts also get a save confirmation notice.
func (h *Handlers) Location(c tele.Context) error {
	sender := c.Sender()
	msg := c.Message()
	if sender == nil || msg == nil || msg.Location == nil {
		return nil
	}
	lat := float64(msg.Location.Lat)
	lng := float64(msg.Location.Lng)

	ctx := helpers.BuildContext(c)
	if _, err := h.users.EnsureUser(ctx, sender.ID); err != nil {
		return fmt.Errorf("location: %w", err)
	}
	if _, err := h.users.AddMarker(ctx, sender.ID, lat, lng, ""); err != nil {
		return fmt.Errorf("location: %w", err)
	}
	if h.alerts != nil {
		h.alerts.Alert(ctx, sender.ID, "Marker saved to your map")
	}
	return c.Send(fmt.Sprintf("latitude: %f\nlongitude: %f", lat, lng))
}
