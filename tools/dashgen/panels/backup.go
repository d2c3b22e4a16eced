package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// LastBackupAge returns a stat panel showing time since the last
// successful backup.
func LastBackupAge() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Last Backup").
		Description("Time since the last successful database backup").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(
			`time() - zst_backup_last_success_timestamp_seconds{job="zara-stock-tracker"}`,
			"", "A",
		)).
		Unit("s").
		Thresholds(ThresholdsGreenYellowRed(90000, 180000)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone)
}

// BackupFilesKept returns a stat panel showing retained backup files.
func BackupFilesKept() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Backups Kept").
		Description("Backup files currently retained on disk").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`zst_backup_files_kept{job="zara-stock-tracker"}`, "", "A")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone)
}

// BackupRuns returns a timeseries panel showing backup runs by status.
func BackupRuns() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Backup Runs").
		Description("Backup runs per hour by status").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum(increase(zst_backups_total{job="zara-stock-tracker"}[1h])) by (status)`,
			"{{status}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
