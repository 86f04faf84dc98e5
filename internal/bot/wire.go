package bot

import (
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/dnlkv/fmapbot/core/config"
	tg "github.com/dnlkv/fmapbot/core/telegram"
	"github.com/dnlkv/fmapbot/core/telegram/commands"
	"github.com/dnlkv/fmapbot/core/telegram/router"
)

// NewRegistry binds the chat flows to their commands and callback prefixes.
func NewRegistry(h *Handlers) *tg.Registry {
	reg := tg.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Open the map",
	})
	_ = reg.RegisterCallback(cartCallbackPrefix, h.AddToCart)
	return reg
}

// Build assembles the webhook-fed bot with the default middleware chain.
func Build(cfg *coreconfig.Config, h *Handlers, offline bool) (*tele.Bot, *tg.Registry, error) {
	reg := NewRegistry(h)

	routes := router.CommandRoutes(reg)
	routes = append(routes, router.CallbackRoute(reg))
	routes = append(routes, router.MessageRoute(tele.OnLocation, "location", h.Location))

	b, err := tg.BuildBot(tg.BuildOptions{
		Token:       cfg.Telegram.Token,
		Offline:     offline,
		Middlewares: tg.DefaultMiddlewares(cfg, nil),
		Routes:      routes,
		Registry:    reg,
	})
	if err != nil {
		return nil, nil, err
	}
	return b, reg, nil
}
