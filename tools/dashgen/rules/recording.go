package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "zst-recording-rules",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "zst-recording",
					Rules: []Rule{
						{
							Record: "zst:http_requests:rate5m",
							Expr:   `sum(rate(zst_http_requests_total[5m]))`,
						},
						{
							Record: "zst:http_errors:rate5m",
							Expr:   `sum(rate(zst_http_requests_total{status=~"5.."}[5m]))`,
						},
						{
							Record: "zst:item_checks:rate5m",
							Expr:   `sum(rate(zst_item_checks_total[5m])) by (outcome)`,
						},
						{
							Record: "zst:provider_requests:rate5m",
							Expr:   `sum(rate(zst_provider_requests_total[5m])) by (result)`,
						},
						{
							Record: "zst:transitions:rate5m",
							Expr:   `sum(rate(zst_transitions_total[5m])) by (kind)`,
						},
						{
							Record: "zst:cache_hit_ratio:ratio5m",
							Expr:   `rate(zst_cache_hits_total[5m]) / (rate(zst_cache_hits_total[5m]) + rate(zst_cache_misses_total[5m]))`,
						},
					},
				},
			},
		},
	}
}
