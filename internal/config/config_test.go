package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "empty file gets full defaults",
			yaml: "",
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout())
				assert.Equal(t, "zara_stock.db", cfg.Database.Path)
				assert.Equal(t, "https://www.zara.com", cfg.Zara.BaseURL)
				assert.Equal(t, "tr", cfg.Zara.Country)
				assert.Equal(t, "en", cfg.Zara.Lang)
				assert.Equal(t, 15*time.Second, cfg.Zara.Timeout())
				assert.Equal(t, 30, cfg.Zara.RequestsPerMinute)
				assert.Equal(t, int64(2000), cfg.Zara.DailyLimit)
				assert.Equal(t, 60*time.Second, cfg.Cache.TTL())
				assert.Equal(t, 5*time.Minute, cfg.Cache.CleanupInterval())
				assert.Equal(t, 5*time.Minute, cfg.Poll.Interval())
				assert.Equal(t, 4, cfg.Poll.Concurrency)
				assert.Equal(t, 2, cfg.Poll.Retries)
				assert.Equal(t, time.Second, cfg.Poll.BackoffBase())
				assert.Equal(t, 2*time.Minute, cfg.Poll.CycleTimeout())
				assert.False(t, cfg.Poll.RunOnStart)
				assert.False(t, cfg.Backup.Disabled)
				assert.Equal(t, "backups", cfg.Backup.Dir)
				assert.Equal(t, 5, cfg.Backup.Retention)
				assert.Equal(t, 24*time.Hour, cfg.Backup.Interval())
				assert.Equal(t, 16, cfg.Notify.QueueSize)
				assert.Equal(t, 10*time.Second, cfg.Notify.Timeout())
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
			},
		},
		{
			name: "env var substitution",
			yaml: `
notify:
  telegram:
    enabled: true
    token: "${TEST_TG_TOKEN}"
    chat_id: "12345"
`,
			envVars: map[string]string{
				"TEST_TG_TOKEN": "123:abc",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "123:abc", cfg.Notify.Telegram.Token)
			},
		},
		{
			name: "unsupported region rejected",
			yaml: `
zara:
  country: jp
  lang: ja
`,
			wantErr: "not a supported storefront",
		},
		{
			name: "unsupported language for region rejected",
			yaml: `
zara:
  country: us
  lang: fr
`,
			wantErr: "not a supported storefront",
		},
		{
			name: "interval below floor rejected",
			yaml: `
poll:
  interval_seconds: 5
`,
			wantErr: "poll.interval_seconds must be at least 10",
		},
		{
			name: "negative retries rejected",
			yaml: `
poll:
  retries: -1
`,
			wantErr: "poll.retries must not be negative",
		},
		{
			name: "telegram enabled without credentials rejected",
			yaml: `
notify:
  telegram:
    enabled: true
`,
			wantErr: "notify.telegram.token is required",
		},
		{
			name: "discord enabled without webhook rejected",
			yaml: `
notify:
  discord:
    enabled: true
`,
			wantErr: "notify.discord.webhook_url is required",
		},
		{
			name: "port out of range rejected",
			yaml: `
server:
  port: 70000
`,
			wantErr: "server.port must be 1-65535",
		},
		{
			name:    "invalid YAML",
			yaml:    `{{{not valid yaml`,
			wantErr: "parsing config YAML",
		},
		{
			name: "full config with overrides",
			yaml: `
server:
  host: "127.0.0.1"
  port: 9090
database:
  path: /var/lib/zst/stock.db
zara:
  country: de
  lang: de
  timeout_seconds: 20
  requests_per_minute: 10
  daily_limit: 500
cache:
  ttl_seconds: 30
poll:
  interval_seconds: 60
  concurrency: 8
  retries: 3
  backoff_base_ms: 250
  cycle_timeout_seconds: 45
  run_on_start: true
backup:
  disabled: true
  dir: /var/backups/zst
  retention: 3
  interval_hours: 6
notify:
  on_out_of_stock: true
  discord:
    enabled: true
    webhook_url: https://discord.com/api/webhooks/123
logging:
  level: debug
  format: json
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "/var/lib/zst/stock.db", cfg.Database.Path)
				assert.Equal(t, "de", cfg.Zara.Country)
				assert.Equal(t, 20*time.Second, cfg.Zara.Timeout())
				assert.Equal(t, 10, cfg.Zara.RequestsPerMinute)
				assert.Equal(t, int64(500), cfg.Zara.DailyLimit)
				assert.Equal(t, 30*time.Second, cfg.Cache.TTL())
				assert.Equal(t, time.Minute, cfg.Poll.Interval())
				assert.Equal(t, 8, cfg.Poll.Concurrency)
				assert.Equal(t, 3, cfg.Poll.Retries)
				assert.Equal(t, 250*time.Millisecond, cfg.Poll.BackoffBase())
				assert.Equal(t, 45*time.Second, cfg.Poll.CycleTimeout())
				assert.True(t, cfg.Poll.RunOnStart)
				assert.True(t, cfg.Backup.Disabled)
				assert.Equal(t, 3, cfg.Backup.Retention)
				assert.Equal(t, 6*time.Hour, cfg.Backup.Interval())
				assert.True(t, cfg.Notify.OnOutOfStock)
				assert.True(t, cfg.Notify.Discord.Enabled)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Only parallelize tests that don't modify env vars.
			if len(tt.envVars) == 0 {
				t.Parallel()
			}

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := Load(path)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)
	assert.Equal(t, "zara_stock.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Minute, cfg.Poll.Interval())
	assert.NoError(t, validate(cfg))
}
