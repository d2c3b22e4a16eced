package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"

	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

const defaultTelegramAPIBase = "https://api.telegram.org"

// TelegramNotifier implements Notifier via the Telegram bot API.
type TelegramNotifier struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
}

// TelegramOption configures a TelegramNotifier.
type TelegramOption func(*TelegramNotifier)

// WithTelegramHTTPClient sets a custom HTTP client.
func WithTelegramHTTPClient(c *http.Client) TelegramOption {
	return func(t *TelegramNotifier) {
		t.client = c
	}
}

// WithTelegramAPIBase overrides the bot API base URL, used by tests.
func WithTelegramAPIBase(base string) TelegramOption {
	return func(t *TelegramNotifier) {
		t.apiBase = base
	}
}

// NewTelegramNotifier creates a notifier that messages one chat.
func NewTelegramNotifier(token, chatID string, opts ...TelegramOption) *TelegramNotifier {
	t := &TelegramNotifier{
		token:   token,
		chatID:  chatID,
		apiBase: defaultTelegramAPIBase,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name implements Notifier.
func (t *TelegramNotifier) Name() string {
	return "telegram"
}

// telegramSendMessage is the bot API sendMessage request body.
type telegramSendMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// SendStockAlert sends the alert as an HTML-formatted bot message.
func (t *TelegramNotifier) SendStockAlert(ctx context.Context, alert StockAlert) error {
	payload := telegramSendMessage{
		ChatID:                t.chatID,
		Text:                  telegramText(alert),
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling telegram payload: %w", err)
	}

	u := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("telegram rate limited (429)")
	}

	if resp.StatusCode != http.StatusOK {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("telegram returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}

func telegramText(alert StockAlert) string {
	emoji := "🎉"
	if alert.Kind == domain.TransitionWentOutOfStock {
		emoji = "😞"
	}

	return fmt.Sprintf("%s <b>%s</b>\n\n<b>%s</b>\nSize: %s\nPrice: %s",
		emoji,
		alert.Title(),
		html.EscapeString(alert.ItemName),
		html.EscapeString(alert.TargetSize),
		alert.Price,
	)
}
