// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/zara-stock-tracker/tools/dashgen/panels"
)

// BuildOverview constructs the ZST Overview dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("ZST Overview").
		Uid("zst-overview").
		Tags([]string{"zst", "zara-stock-tracker"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.BudgetGauge()).
		WithPanel(panels.UptimeStat()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	// Row 3: Polling.
	b.WithRow(dashboard.NewRowBuilder("Polling").
		WithPanel(panels.ItemsTracked()).
		WithPanel(panels.ItemOutcomes()).
		WithPanel(panels.CycleDuration()).
		WithPanel(panels.CoalescedChecks()))

	// Row 4: Provider.
	b.WithRow(dashboard.NewRowBuilder("Provider").
		WithPanel(panels.ProviderRequestRate()).
		WithPanel(panels.DailyUsage()).
		WithPanel(panels.CacheHitRatio()).
		WithPanel(panels.LimitHits()))

	// Row 5: Transitions & Notifications.
	b.WithRow(dashboard.NewRowBuilder("Transitions & Notifications").
		WithPanel(panels.TransitionsRate()).
		WithPanel(panels.NotificationsRate()).
		WithPanel(panels.NotificationFailures()).
		WithPanel(panels.NotificationsDropped()))

	// Row 6: Backups.
	b.WithRow(dashboard.NewRowBuilder("Backups").
		WithPanel(panels.LastBackupAge()).
		WithPanel(panels.BackupFilesKept()).
		WithPanel(panels.BackupRuns()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
