package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"TELEGRAM_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
}

// WebhookConfig specifies how the bot webhook is published.
// PublicURL is the externally reachable base URL of this service;
// the webhook is registered at PublicURL + "/bot/<token>".
type WebhookConfig struct {
	PublicURL string `yaml:"public_url" envconfig:"BACK_URL"`
}

// HTTPConfig configures the HTTP API surface consumed by the web mini-app.
type HTTPConfig struct {
	Listen      string   `yaml:"listen" envconfig:"HTTP_LISTEN"`
	Port        int      `yaml:"port" envconfig:"HTTP_PORT"`
	FrontURL    string   `yaml:"front_url" envconfig:"FRONT_URL"`
	StaticDir   string   `yaml:"static_dir" envconfig:"HTTP_STATIC_DIR"`
	CORSOrigins []string `yaml:"cors_origins" envconfig:"HTTP_CORS_ORIGINS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	File        string `yaml:"file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig holds settings for per-user update rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// NotifyConfig tunes the best-effort outbound notification queue.
type NotifyConfig struct {
	QueueSize int `yaml:"queue_size" envconfig:"NOTIFY_QUEUE_SIZE"`
	Workers   int `yaml:"workers" envconfig:"NOTIFY_WORKERS"`
}

// SeedConfig points at reference data loaded on startup.
type SeedConfig struct {
	CatalogPath string `yaml:"catalog_path" envconfig:"SEED_CATALOG_PATH"`
}

// Config aggregates the service configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Notify    NotifyConfig    `yaml:"notify"`
	Seed      SeedConfig      `yaml:"seed"`
}

// WebhookPath returns the local HTTP path the Telegram webhook is served on.
func (c *Config) WebhookPath() string {
	return "/bot/" + c.Telegram.Token
}

// WebhookURL returns the full externally visible webhook URL.
func (c *Config) WebhookURL() string {
	return strings.TrimRight(c.Webhook.PublicURL, "/") + c.WebhookPath()
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	if strings.TrimSpace(cfg.Webhook.PublicURL) == "" {
		return fmt.Errorf("webhook.public_url is required")
	}
	if _, err := url.Parse(cfg.Webhook.PublicURL); err != nil {
		return fmt.Errorf("invalid webhook.public_url: %w", err)
	}
	cfg.Webhook.PublicURL = strings.TrimRight(strings.TrimSpace(cfg.Webhook.PublicURL), "/")

	if strings.TrimSpace(cfg.HTTP.Listen) == "" {
		cfg.HTTP.Listen = "0.0.0.0"
	}
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	// Listen may arrive as a bare host; the port field fills in the rest.
	if _, _, err := net.SplitHostPort(cfg.HTTP.Listen); err != nil {
		cfg.HTTP.Listen = net.JoinHostPort(cfg.HTTP.Listen, strconv.Itoa(cfg.HTTP.Port))
	}
	if strings.TrimSpace(cfg.HTTP.FrontURL) == "" {
		return fmt.Errorf("http.front_url is required")
	}
	if strings.TrimSpace(cfg.HTTP.StaticDir) == "" {
		cfg.HTTP.StaticDir = "static"
	}
	if len(cfg.HTTP.CORSOrigins) == 0 {
		cfg.HTTP.CORSOrigins = []string{cfg.Webhook.PublicURL, cfg.HTTP.FrontURL}
	}

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if cfg.Notify.QueueSize <= 0 {
		cfg.Notify.QueueSize = 256
	}
	if cfg.Notify.Workers <= 0 {
		cfg.Notify.Workers = 2
	}
	return nil
}
