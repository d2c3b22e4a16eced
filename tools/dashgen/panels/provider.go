package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// ProviderRequestRate returns a timeseries panel showing storefront API
// fetches by result.
func ProviderRequestRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Provider Requests").
		Description("Storefront API fetches per second by result").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`zst:provider_requests:rate5m`, "{{result}}", "A")).
		Unit("reqps").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// DailyUsage returns a timeseries panel showing the rolling 24h storefront
// call count with a threshold line at the daily budget.
func DailyUsage() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Daily Usage vs Budget").
		Description(fmt.Sprintf("Rolling 24h storefront call count (budget: %d)", ProviderDailyBudget)).
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`zst_provider_daily_usage{job="zara-stock-tracker"}`, "usage", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(float64(ProviderDailyBudget)*0.8, float64(ProviderDailyBudget))).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// CacheHitRatio returns a timeseries panel showing the response cache hit
// ratio.
func CacheHitRatio() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Cache Hit Ratio").
		Description("Share of provider fetches served from the response cache").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`zst:cache_hit_ratio:ratio5m * 100`, "hit %", "A")).
		Unit("percent").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// LimitHits returns a stat panel showing the number of daily budget hits
// in the past 24 hours.
func LimitHits() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Budget Hits (24h)").
		Description("Times the daily provider budget was exhausted in the last 24 hours").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`increase(zst_provider_daily_limit_hits_total{job="zara-stock-tracker"}[24h])`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 3)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}
