// Package main generates the Grafana dashboard and Prometheus rule files
// for zara-stock-tracker monitoring.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/zara-stock-tracker/tools/dashgen/dashboards"
	"github.com/donaldgifford/zara-stock-tracker/tools/dashgen/rules"
	"github.com/donaldgifford/zara-stock-tracker/tools/dashgen/validate"
)

const generatedHeader = "# Code generated by dashgen. DO NOT EDIT.\n"

func main() {
	validateOnly := flag.Bool("validate", false, "validate generated artifacts without writing files")
	outputDir := flag.String("output", "", "override output directory")
	flag.Parse()

	cfg := DefaultConfig()
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, *validateOnly); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg Config, validateOnly bool) error {
	dash, err := dashboards.BuildOverview().Build()
	if err != nil {
		return fmt.Errorf("building overview dashboard: %w", err)
	}

	result := validate.Dashboard(dash, KnownMetrics)
	validate.Exprs(ruleExprs(rules.RecordingRules(), rules.AlertRules()), KnownMetrics, &result)
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if !result.Ok() {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "error: %s\n", e)
		}
		return fmt.Errorf("validation failed with %d errors", len(result.Errors))
	}

	if validateOnly {
		fmt.Println("validation passed")
		return nil
	}

	if cfg.DashboardEnabled {
		data, err := json.MarshalIndent(dash, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling dashboard: %w", err)
		}
		data = append(data, '\n')
		if err := writeArtifact(filepath.Join(cfg.OutputDir, "grafana", "data", "zst-overview.json"), data); err != nil {
			return err
		}
	}

	if cfg.RulesEnabled {
		for name, cr := range map[string]rules.PrometheusRule{
			"zst-recording-rules.yaml": rules.RecordingRules(),
			"zst-alerts.yaml":          rules.AlertRules(),
		} {
			data, err := yaml.Marshal(cr)
			if err != nil {
				return fmt.Errorf("marshaling %s: %w", name, err)
			}
			data = append([]byte(generatedHeader), data...)
			if err := writeArtifact(filepath.Join(cfg.OutputDir, "prometheus", name), data); err != nil {
				return err
			}
		}
	}

	return nil
}

func ruleExprs(crs ...rules.PrometheusRule) []string {
	var exprs []string
	for _, cr := range crs {
		for _, group := range cr.Spec.Groups {
			for _, rule := range group.Rules {
				exprs = append(exprs, rule.Expr)
			}
		}
	}
	return exprs
}

func writeArtifact(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // generated artifacts are world-readable
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
