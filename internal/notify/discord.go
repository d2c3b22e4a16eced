package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

const (
	colorGreen = 0x2ECC71 // size became available
	colorRed   = 0xE74C3C // size sold out
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithDiscordHTTPClient sets a custom HTTP client.
func WithDiscordHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements Notifier.
func (d *DiscordNotifier) Name() string {
	return "discord"
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title  string              `json:"title"`
	Color  int                 `json:"color"`
	Fields []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// SendStockAlert sends the alert as a Discord embed.
func (d *DiscordNotifier) SendStockAlert(ctx context.Context, alert StockAlert) error {
	payload := discordWebhookPayload{
		Embeds: []discordEmbed{buildEmbed(alert)},
	}
	return d.post(ctx, payload)
}

func buildEmbed(alert StockAlert) discordEmbed {
	return discordEmbed{
		Title: fmt.Sprintf("%s: %s", alert.Title(), alert.ItemName),
		Color: kindColor(alert.Kind),
		Fields: []discordEmbedField{
			{Name: "Size", Value: alert.TargetSize, Inline: true},
			{Name: "Price", Value: alert.Price, Inline: true},
		},
	}
}

func kindColor(kind domain.TransitionKind) int {
	if kind == domain.TransitionWentOutOfStock {
		return colorRed
	}
	return colorGreen
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
