package main

import "errors"

// KnownMetrics is the set of metric names exported by zara-stock-tracker
// plus recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"zst_http_request_duration_seconds": true,
	"zst_http_requests_total":           true,

	// Health metrics.
	"zst_healthz_up": true,
	"zst_readyz_up":  true,

	// Poll cycle metrics.
	"zst_poll_cycles_total":           true,
	"zst_poll_cycle_duration_seconds": true,
	"zst_poll_cycle_in_flight":        true,
	"zst_check_now_coalesced_total":   true,
	"zst_item_checks_total":           true,
	"zst_items_tracked":               true,
	"zst_transitions_total":           true,

	// Provider metrics.
	"zst_provider_requests_total":           true,
	"zst_provider_request_duration_seconds": true,
	"zst_provider_daily_usage":              true,
	"zst_provider_daily_limit_hits_total":   true,
	"zst_cache_hits_total":                  true,
	"zst_cache_misses_total":                true,

	// Notification metrics.
	"zst_notifications_total":           true,
	"zst_notification_duration_seconds": true,
	"zst_notifications_dropped_total":   true,

	// Backup metrics.
	"zst_backups_total":                         true,
	"zst_backup_last_success_timestamp_seconds": true,
	"zst_backup_files_kept":                     true,

	// Recording rules.
	"zst:http_requests:rate5m":     true,
	"zst:http_errors:rate5m":       true,
	"zst:item_checks:rate5m":       true,
	"zst:provider_requests:rate5m": true,
	"zst:transitions:rate5m":       true,
	"zst:cache_hit_ratio:ratio5m":  true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
