package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// NotificationsRate returns a timeseries panel showing notification
// dispatches by notifier and status.
func NotificationsRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Notifications").
		Description("Notification dispatch attempts per second by notifier and status").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum(rate(zst_notifications_total{job="zara-stock-tracker"}[5m])) by (notifier, status)`,
			"{{notifier}} {{status}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// NotificationFailures returns a stat panel showing failed notification
// sends in the past 24 hours.
func NotificationFailures() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Notification Failures (24h)").
		Description("Failed alert notification deliveries in the last 24 hours").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(6).
		WithTarget(PromQuery(
			`sum(increase(zst_notifications_total{job="zara-stock-tracker",status="error"}[24h]))`,
			"", "A",
		)).
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}

// NotificationsDropped returns a stat panel showing alerts shed by the
// dispatch queue in the past 24 hours.
func NotificationsDropped() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Dropped Alerts (24h)").
		Description("Alerts dropped because the dispatch queue was full").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(6).
		WithTarget(PromQuery(
			`increase(zst_notifications_dropped_total{job="zara-stock-tracker"}[24h])`,
			"", "A",
		)).
		Thresholds(ThresholdsGreenYellowRed(1, 10)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}
