// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Zara     ZaraConfig     `yaml:"zara"`
	Cache    CacheConfig    `yaml:"cache"`
	Poll     PollConfig     `yaml:"poll"`
	Backup   BackupConfig   `yaml:"backup"`
	Notify   NotifyConfig   `yaml:"notify"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

// ReadTimeout returns the server read timeout as a duration.
func (s *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the server write timeout as a duration.
func (s *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// DatabaseConfig defines the SQLite store settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ZaraConfig defines the upstream product API settings.
type ZaraConfig struct {
	BaseURL           string `yaml:"base_url"`
	Country           string `yaml:"country"`
	Lang              string `yaml:"lang"`
	UserAgent         string `yaml:"user_agent"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	DailyLimit        int64  `yaml:"daily_limit"`
}

// Timeout returns the per-request HTTP timeout as a duration.
func (z *ZaraConfig) Timeout() time.Duration {
	return time.Duration(z.TimeoutSeconds) * time.Second
}

// CacheConfig defines the response-cache settings.
type CacheConfig struct {
	TTLSeconds             int `yaml:"ttl_seconds"`
	CleanupIntervalSeconds int `yaml:"cleanup_interval_seconds"`
}

// TTL returns the default cache entry lifetime.
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// CleanupInterval returns the janitor sweep interval.
func (c *CacheConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}

// PollConfig defines scheduler and per-cycle behavior.
type PollConfig struct {
	IntervalSeconds     int  `yaml:"interval_seconds"`
	Concurrency         int  `yaml:"concurrency"`
	Retries             int  `yaml:"retries"`
	BackoffBaseMS       int  `yaml:"backoff_base_ms"`
	CycleTimeoutSeconds int  `yaml:"cycle_timeout_seconds"`
	RunOnStart          bool `yaml:"run_on_start"`
}

// Interval returns the poll interval as a duration.
func (p *PollConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}

// BackoffBase returns the first retry delay; subsequent retries double it.
func (p *PollConfig) BackoffBase() time.Duration {
	return time.Duration(p.BackoffBaseMS) * time.Millisecond
}

// CycleTimeout returns the overall deadline for one poll cycle.
func (p *PollConfig) CycleTimeout() time.Duration {
	return time.Duration(p.CycleTimeoutSeconds) * time.Second
}

// BackupConfig defines backup timing and retention.
type BackupConfig struct {
	Disabled      bool   `yaml:"disabled"`
	Dir           string `yaml:"dir"`
	Retention     int    `yaml:"retention"`
	IntervalHours int    `yaml:"interval_hours"`
}

// Interval returns the backup cadence as a duration.
func (b *BackupConfig) Interval() time.Duration {
	return time.Duration(b.IntervalHours) * time.Hour
}

// NotifyConfig defines notification dispatch behavior and targets.
type NotifyConfig struct {
	OnOutOfStock   bool           `yaml:"on_out_of_stock"`
	QueueSize      int            `yaml:"queue_size"`
	TimeoutSeconds int            `yaml:"timeout_seconds"`
	Telegram       TelegramConfig `yaml:"telegram"`
	Discord        DiscordConfig  `yaml:"discord"`
}

// Timeout returns the per-send notification timeout.
func (n *NotifyConfig) Timeout() time.Duration {
	return time.Duration(n.TimeoutSeconds) * time.Second
}

// TelegramConfig defines Telegram bot settings.
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation. An invalid config refuses to load; the caller
// is expected to fail fast.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyZaraDefaults(&cfg.Zara)
	applyCacheDefaults(&cfg.Cache)
	applyPollDefaults(&cfg.Poll)
	applyBackupDefaults(&cfg.Backup)
	applyNotifyDefaults(&cfg.Notify)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeoutSeconds == 0 {
		s.ReadTimeoutSeconds = 30
	}
	if s.WriteTimeoutSeconds == 0 {
		s.WriteTimeoutSeconds = 30
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Path == "" {
		d.Path = "zara_stock.db"
	}
}

func applyZaraDefaults(z *ZaraConfig) {
	if z.BaseURL == "" {
		z.BaseURL = "https://www.zara.com"
	}
	if z.Country == "" {
		z.Country = "tr"
	}
	if z.Lang == "" {
		z.Lang = "en"
	}
	if z.UserAgent == "" {
		z.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	}
	if z.TimeoutSeconds == 0 {
		z.TimeoutSeconds = 15
	}
	if z.RequestsPerMinute == 0 {
		z.RequestsPerMinute = 30
	}
	if z.DailyLimit == 0 {
		z.DailyLimit = 2000
	}
}

func applyCacheDefaults(c *CacheConfig) {
	if c.TTLSeconds == 0 {
		c.TTLSeconds = 60
	}
	if c.CleanupIntervalSeconds == 0 {
		c.CleanupIntervalSeconds = 300
	}
}

func applyPollDefaults(p *PollConfig) {
	if p.IntervalSeconds == 0 {
		p.IntervalSeconds = 300
	}
	if p.Concurrency == 0 {
		p.Concurrency = 4
	}
	if p.Retries == 0 {
		p.Retries = 2
	}
	if p.BackoffBaseMS == 0 {
		p.BackoffBaseMS = 1000
	}
	if p.CycleTimeoutSeconds == 0 {
		p.CycleTimeoutSeconds = 120
	}
}

func applyBackupDefaults(b *BackupConfig) {
	if b.Dir == "" {
		b.Dir = "backups"
	}
	if b.Retention == 0 {
		b.Retention = 5
	}
	if b.IntervalHours == 0 {
		b.IntervalHours = 24
	}
}

func applyNotifyDefaults(n *NotifyConfig) {
	if n.QueueSize == 0 {
		n.QueueSize = 16
	}
	if n.TimeoutSeconds == 0 {
		n.TimeoutSeconds = 10
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be 1-65535 (got %d)", cfg.Server.Port))
	}
	if strings.TrimSpace(cfg.Database.Path) == "" {
		errs = append(errs, fmt.Errorf("database.path is required"))
	}
	if !domain.SupportedRegion(cfg.Zara.Country, cfg.Zara.Lang) {
		errs = append(errs, fmt.Errorf(
			"zara.country/zara.lang %q/%q is not a supported storefront",
			cfg.Zara.Country, cfg.Zara.Lang,
		))
	}
	if cfg.Zara.TimeoutSeconds < 1 {
		errs = append(errs, fmt.Errorf("zara.timeout_seconds must be positive (got %d)", cfg.Zara.TimeoutSeconds))
	}
	if cfg.Cache.TTLSeconds < 1 {
		errs = append(errs, fmt.Errorf("cache.ttl_seconds must be positive (got %d)", cfg.Cache.TTLSeconds))
	}
	if cfg.Poll.IntervalSeconds < 10 {
		errs = append(errs, fmt.Errorf(
			"poll.interval_seconds must be at least 10 (got %d)", cfg.Poll.IntervalSeconds,
		))
	}
	if cfg.Poll.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("poll.concurrency must be at least 1 (got %d)", cfg.Poll.Concurrency))
	}
	if cfg.Poll.Retries < 0 {
		errs = append(errs, fmt.Errorf("poll.retries must not be negative (got %d)", cfg.Poll.Retries))
	}
	if cfg.Backup.Retention < 1 {
		errs = append(errs, fmt.Errorf("backup.retention must be at least 1 (got %d)", cfg.Backup.Retention))
	}
	if cfg.Backup.IntervalHours < 1 {
		errs = append(errs, fmt.Errorf("backup.interval_hours must be at least 1 (got %d)", cfg.Backup.IntervalHours))
	}
	if cfg.Notify.Telegram.Enabled {
		if cfg.Notify.Telegram.Token == "" {
			errs = append(errs, fmt.Errorf("notify.telegram.token is required when telegram is enabled"))
		}
		if cfg.Notify.Telegram.ChatID == "" {
			errs = append(errs, fmt.Errorf("notify.telegram.chat_id is required when telegram is enabled"))
		}
	}
	if cfg.Notify.Discord.Enabled && cfg.Notify.Discord.WebhookURL == "" {
		errs = append(errs, fmt.Errorf("notify.discord.webhook_url is required when discord is enabled"))
	}

	return errors.Join(errs...)
}
