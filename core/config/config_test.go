package config

import (
	"net"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
		Webhook:  WebhookConfig{PublicURL: "https://fmap.example.com/"},
		HTTP:     HTTPConfig{FrontURL: "https://front.example.com"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Webhook.PublicURL != "https://fmap.example.com" {
		t.Fatalf("public url not trimmed: %q", cfg.Webhook.PublicURL)
	}
	if cfg.HTTP.Port != 8080 || cfg.HTTP.Listen != "0.0.0.0:8080" {
		t.Fatalf("http defaults not applied: %s (port %d)", cfg.HTTP.Listen, cfg.HTTP.Port)
	}
	if cfg.Notify.QueueSize != 256 || cfg.Notify.Workers != 2 {
		t.Fatalf("notify defaults not applied: %+v", cfg.Notify)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 {
		t.Fatalf("expected derived cors origins, got %v", cfg.HTTP.CORSOrigins)
	}
}

func TestNormalizeListenAddress(t *testing.T) {
	tests := []struct {
		listen string
		port   int
		want   string
	}{
		{"", 0, "0.0.0.0:8080"},
		{"127.0.0.1", 9090, "127.0.0.1:9090"},
		{"127.0.0.1:3000", 9090, "127.0.0.1:3000"},
		{"::1", 8081, "[::1]:8081"},
	}
	for _, tc := range tests {
		cfg := validConfig()
		cfg.HTTP.Listen = tc.listen
		cfg.HTTP.Port = tc.port
		if err := Normalize(cfg); err != nil {
			t.Fatalf("normalize %q: %v", tc.listen, err)
		}
		if cfg.HTTP.Listen != tc.want {
			t.Fatalf("listen %q port %d = %q, want %q", tc.listen, tc.port, cfg.HTTP.Listen, tc.want)
		}
		if _, _, err := net.SplitHostPort(cfg.HTTP.Listen); err != nil {
			t.Fatalf("listen %q is not dialable: %v", cfg.HTTP.Listen, err)
		}
	}
}

func TestNormalizeRequiresToken(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = ""
	if err := Normalize(cfg); err == nil || !strings.Contains(err.Error(), "token") {
		t.Fatalf("expected token error, got %v", err)
	}
}

func TestNormalizeRequiresFrontURL(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.FrontURL = ""
	if err := Normalize(cfg); err == nil || !strings.Contains(err.Error(), "front_url") {
		t.Fatalf("expected front_url error, got %v", err)
	}
}

func TestNormalizeRateLimitExclusions(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{" Callback ", "message"}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != "callback" {
		t.Fatalf("exclusion not normalized: %v", cfg.RateLimit.ExcludeUpdates)
	}

	cfg = validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{"inline_query"}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for unsupported exclusion")
	}
}

func TestWebhookURL(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := "https://fmap.example.com/bot/123:abc"
	if got := cfg.WebhookURL(); got != want {
		t.Fatalf("webhook url = %q, want %q", got, want)
	}
}
