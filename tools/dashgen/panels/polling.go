package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// ItemsTracked returns a stat panel showing how many enabled items the
// last cycle polled.
func ItemsTracked() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Items Tracked").
		Description("Enabled tracked items seen by the last poll cycle").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`zst_items_tracked{job="zara-stock-tracker"}`, "", "A")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone)
}

// ItemOutcomes returns a timeseries panel breaking down per-item poll
// outcomes.
func ItemOutcomes() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Item Outcomes").
		Description("Per-item poll outcomes per second by classification").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`zst:item_checks:rate5m`, "{{outcome}}", "A")).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// CycleDuration returns a timeseries panel showing the p95 poll cycle
// duration.
func CycleDuration() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Cycle Duration (p95)").
		Description("95th percentile poll cycle duration").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(zst_poll_cycle_duration_seconds_bucket{job="zara-stock-tracker"}[5m])) by (le))`,
			"p95",
			"A",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// CoalescedChecks returns a timeseries panel showing manual checks that
// attached to a cycle already in flight.
func CoalescedChecks() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Coalesced Checks").
		Description("Manual check-now requests absorbed by a running cycle, per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`rate(zst_check_now_coalesced_total{job="zara-stock-tracker"}[5m]) * 60`,
			"coalesced/min", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// TransitionsRate returns a timeseries panel showing classified stock
// transitions by kind.
func TransitionsRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Stock Transitions").
		Description("Classified stock transitions per second by kind").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`zst:transitions:rate5m`, "{{kind}}", "A")).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
