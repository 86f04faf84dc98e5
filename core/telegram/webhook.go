package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/dnlkv/fmapbot/core/logger"
	"log/slog"
)

const defaultAPIBase = "https://api.telegram.org"

// WebhookAdmin manages the webhook registration held by the Telegram API.
// Registration goes through the raw HTTP API because the bot itself is
// webhook-fed and never owns a poller.
type WebhookAdmin struct {
	client *resty.Client
	token  string
}

// NewWebhookAdmin builds an admin client for the given bot token.
func NewWebhookAdmin(token string) *WebhookAdmin {
	client := resty.NewWithClient(BuildHTTPClient()).
		SetBaseURL(defaultAPIBase)
	return &WebhookAdmin{client: client, token: token}
}

// SetBaseURL overrides the Telegram API base URL; used in tests.
func (a *WebhookAdmin) SetBaseURL(base string) {
	a.client.SetBaseURL(strings.TrimRight(base, "/"))
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

type webhookInfo struct {
	URL string `json:"url"`
}

// Info returns the webhook URL currently registered with Telegram.
func (a *WebhookAdmin) Info(ctx context.Context) (string, error) {
	var envelope apiResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetResult(&envelope).
		Get(fmt.Sprintf("/bot%s/getWebhookInfo", a.token))
	if err != nil {
		return "", fmt.Errorf("getWebhookInfo: %w", err)
	}
	if !resp.IsSuccess() || !envelope.OK {
		return "", fmt.Errorf("getWebhookInfo status: %s", resp.Status())
	}
	var info webhookInfo
	if err := json.Unmarshal(envelope.Result, &info); err != nil {
		return "", fmt.Errorf("getWebhookInfo decode: %w", err)
	}
	return info.URL, nil
}

// Ensure registers url as the webhook unless Telegram already points at it.
func (a *WebhookAdmin) Ensure(ctx context.Context, url string) error {
	current, err := a.Info(ctx)
	if err != nil {
		return err
	}
	if current == url {
		logger.TG.Debug("webhook already registered",
			slog.String("event", "set_webhook"),
			slog.String("status", "skip"),
			slog.String("public_url", url),
		)
		return nil
	}

	var envelope apiResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetResult(&envelope).
		SetFormData(map[string]string{"url": url}).
		Post(fmt.Sprintf("/bot%s/setWebhook", a.token))
	if err != nil {
		return fmt.Errorf("setWebhook: %w", err)
	}
	if !resp.IsSuccess() || !envelope.OK {
		return fmt.Errorf("setWebhook status: %s (%s)", resp.Status(), envelope.Description)
	}

	logger.TG.Info("webhook registered",
		slog.String("event", "set_webhook"),
		slog.String("public_url", url),
	)
	return nil
}

// Delete removes the webhook registration.
func (a *WebhookAdmin) Delete(ctx context.Context, dropPending bool) error {
	var envelope apiResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetResult(&envelope).
		SetFormData(map[string]string{"drop_pending_updates": fmt.Sprintf("%t", dropPending)}).
		Post(fmt.Sprintf("/bot%s/deleteWebhook", a.token))
	if err != nil {
		return fmt.Errorf("deleteWebhook: %w", err)
	}
	if !resp.IsSuccess() || !envelope.OK {
		return fmt.Errorf("deleteWebhook status: %s", resp.Status())
	}
	return nil
}
