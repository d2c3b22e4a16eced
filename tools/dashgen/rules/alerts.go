package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// zara-stock-tracker operational monitoring.
func AlertRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "zst-alerts",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "zst-alerts",
					Rules: []Rule{
						{
							Alert: "ZstDown",
							Expr:  `absent(up{job="zara-stock-tracker"})`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Zara stock tracker is down",
								"description": "The zara-stock-tracker job has been absent for more than 2 minutes.",
							},
						},
						{
							Alert: "ZstReadinessDown",
							Expr:  `zst_readyz_up == 0`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Zara stock tracker readiness check is failing",
								"description": "The readiness probe has been reporting not-ready for more than 2 minutes.",
							},
						},
						{
							Alert: "ZstHighErrorRate",
							Expr:  `zst:http_errors:rate5m / zst:http_requests:rate5m > 0.05`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "High HTTP error rate on the stock tracker API",
								"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
							},
						},
						{
							Alert: "ZstPollFailures",
							Expr:  `sum(zst:item_checks:rate5m{outcome=~"failed|retried_then_failed"}) > 0`,
							For:   "15m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Poll cycles are failing for some items",
								"description": "Item polls have been failing continuously for 15 minutes. Check provider reachability and rate limits.",
							},
						},
						{
							Alert: "ZstProviderBudgetHigh",
							Expr:  `zst_provider_daily_usage > 1600`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Storefront API daily usage is above 80% of the budget",
								"description": "Daily storefront API usage has exceeded 1600 calls (budget is 2000).",
							},
						},
						{
							Alert: "ZstProviderBudgetExhausted",
							Expr:  `increase(zst_provider_daily_limit_hits_total[5m]) > 0`,
							For:   "0m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Storefront API daily budget has been exhausted",
								"description": "The self-imposed daily call budget is spent. Polling is throttled until the window resets.",
							},
						},
						{
							Alert: "ZstNotificationFailures",
							Expr:  `sum(increase(zst_notifications_total{status="error"}[5m])) > 0`,
							For:   "1m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Notification delivery failures detected",
								"description": "One or more stock alerts have failed to send. Users may miss restock windows.",
							},
						},
						{
							Alert: "ZstBackupStale",
							Expr:  `time() - zst_backup_last_success_timestamp_seconds > 172800`,
							For:   "30m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Database backups are stale",
								"description": "No successful backup has completed in the last 48 hours.",
							},
						},
					},
				},
			},
		},
	}
}
