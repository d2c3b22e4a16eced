package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

func TestDiscordNotifier_SendStockAlert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		alert      StockAlert
		statusCode int
		wantErr    bool
		errMsg     string
		wantColor  int
	}{
		{
			name:       "became available uses green",
			alert:      testStockAlert(domain.TransitionBecameAvailable),
			statusCode: http.StatusNoContent,
			wantColor:  colorGreen,
		},
		{
			name:       "went out of stock uses red",
			alert:      testStockAlert(domain.TransitionWentOutOfStock),
			statusCode: http.StatusNoContent,
			wantColor:  colorRed,
		},
		{
			name:       "discord returns 429 rate limited",
			alert:      testStockAlert(domain.TransitionBecameAvailable),
			statusCode: http.StatusTooManyRequests,
			wantErr:    true,
			errMsg:     "rate limited",
		},
		{
			name:       "discord returns 400 error",
			alert:      testStockAlert(domain.TransitionBecameAvailable),
			statusCode: http.StatusBadRequest,
			wantErr:    true,
			errMsg:     "discord returned 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var received discordWebhookPayload

			srv := httptest.NewServer(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
					assert.Equal(t, http.MethodPost, r.Method)

					err := json.NewDecoder(r.Body).Decode(&received)
					assert.NoError(t, err)

					w.WriteHeader(tt.statusCode)
				}),
			)
			defer srv.Close()

			d := NewDiscordNotifier(srv.URL)
			err := d.SendStockAlert(context.Background(), tt.alert)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			require.Len(t, received.Embeds, 1)

			embed := received.Embeds[0]
			assert.Equal(t, tt.wantColor, embed.Color)
			assert.Contains(t, embed.Title, tt.alert.ItemName)

			fieldMap := make(map[string]string)
			for _, f := range embed.Fields {
				fieldMap[f.Name] = f.Value
			}
			assert.Equal(t, "M", fieldMap["Size"])
			assert.Equal(t, "1499.00 TRY", fieldMap["Price"])
		})
	}
}

func TestDiscordNotifier_NetworkError(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("http://127.0.0.1:1") // nothing listening
	err := d.SendStockAlert(context.Background(), testStockAlert(domain.TransitionBecameAvailable))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending discord webhook")
}

func TestDiscordNotifier_InvalidWebhookURL(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("://not-a-valid-url")
	err := d.SendStockAlert(context.Background(), testStockAlert(domain.TransitionBecameAvailable))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating discord request")
}

// compile-time interface check.
var _ Notifier = (*DiscordNotifier)(nil)
