package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/dnlkv/fmapbot/core/bootstrap"
	"github.com/dnlkv/fmapbot/core/buildinfo"
	coreconfig "github.com/dnlkv/fmapbot/core/config"
	coredatabase "github.com/dnlkv/fmapbot/core/database"
	"github.com/dnlkv/fmapbot/core/logger"
	coretelegram "github.com/dnlkv/fmapbot/core/telegram"
	"github.com/dnlkv/fmapbot/internal/bot"
	"github.com/dnlkv/fmapbot/internal/catalog"
	"github.com/dnlkv/fmapbot/internal/httpapi"
	"github.com/dnlkv/fmapbot/internal/images"
	"github.com/dnlkv/fmapbot/internal/notify"
	"github.com/dnlkv/fmapbot/internal/users"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatalf("fmapbot: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}
	cfg, err := coreconfig.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var dbCfg coredatabase.Config
	if err := envconfig.Process("", &dbCfg); err != nil {
		return fmt.Errorf("load database config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startedAt := time.Now()
	boot, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   cfg,
		Database: dbCfg,
		Seeders: []bootstrap.Seeder{
			bootstrap.SeederFunc(catalog.Seeder(cfg.Seed.CatalogPath)),
		},
	})
	if err != nil {
		return err
	}
	defer boot.DB.Close()
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	app := logger.Component("app")
	app.Info("starting",
		slog.String("event", "start"),
		slog.String("version", buildinfo.Version),
		slog.String("commit", buildinfo.Commit),
	)

	userSvc := users.NewService(users.NewPostgresStore(boot.DB))
	thumbSvc := images.NewService(images.NewPostgresStore(boot.DB))
	catalogStore := catalog.NewPostgresStore(boot.DB)

	notifier := notify.New(cfg.Telegram.Token, cfg.Telegram.AdminID, notify.Options{
		QueueSize: cfg.Notify.QueueSize,
		Workers:   cfg.Notify.Workers,
	})
	defer notifier.Close()
	alerts := notify.NewUserAlerts(notifier, userSvc)

	handlers := bot.NewHandlers(userSvc, catalogStore, alerts, cfg.HTTP.FrontURL)
	b, _, err := bot.Build(cfg, handlers, false)
	if err != nil {
		return err
	}

	webhooks := coretelegram.NewWebhookAdmin(cfg.Telegram.Token)
	if err := webhooks.Ensure(ctx, cfg.WebhookURL()); err != nil {
		return fmt.Errorf("webhook register: %w", err)
	}

	server := httpapi.New(cfg, userSvc, thumbSvc, catalogStore, b)

	errCh := make(chan error, 1)
	go func() {
		app.Info("http listening",
			slog.String("event", "listen"),
			slog.String("listen", cfg.HTTP.Listen),
			slog.String("public_url", cfg.Webhook.PublicURL),
		)
		errCh <- server.Start()
	}()

	app.Info("app ready",
		slog.String("event", "ready"),
		slog.Duration("duration", logger.RoundMS(time.Since(startedAt))),
	)
	notifier.NotifyAdmin("fmapbot started")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	app.Info("shutting down...", slog.String("event", "shutdown"))
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.Error("http shutdown", slog.String("event", "shutdown"), slog.String("err", err.Error()))
	}
	return nil
}
