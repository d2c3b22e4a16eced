// Package validate checks generated dashboards and rules for PromQL
// errors and references to metrics the tracker does not export.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/prometheus/prometheus/promql/parser"
)

// Result collects the findings of one validation pass.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether validation found no errors. Warnings do not fail
// validation.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Dashboard validates every PromQL expression in a built dashboard
// against the set of known metric names.
func Dashboard(dash dashboard.Dashboard, known map[string]bool) Result {
	var result Result

	data, err := json.Marshal(dash)
	if err != nil {
		result.errorf("marshaling dashboard: %v", err)
		return result
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		result.errorf("re-parsing dashboard JSON: %v", err)
		return result
	}

	exprs := collectExprs(doc)
	if len(exprs) == 0 {
		result.warnf("dashboard contains no PromQL expressions")
	}
	Exprs(exprs, known, &result)
	return result
}

// Exprs parses each expression and records unknown metric references
// into result.
func Exprs(exprs []string, known map[string]bool, result *Result) {
	for _, expr := range exprs {
		ast, err := parser.ParseExpr(expr)
		if err != nil {
			result.errorf("invalid PromQL %q: %v", expr, err)
			continue
		}
		for _, name := range metricNames(ast) {
			if !known[name] {
				result.errorf("expression %q references unknown metric %q", expr, name)
			}
		}
	}
}

// collectExprs walks arbitrary JSON and gathers every "expr" string.
// Dashboard targets nest at varying depths, so a generic walk is simpler
// than mirroring the panel type hierarchy.
func collectExprs(doc any) []string {
	var exprs []string
	switch v := doc.(type) {
	case map[string]any:
		for key, val := range v {
			if key == "expr" {
				if s, ok := val.(string); ok && s != "" {
					exprs = append(exprs, s)
				}
				continue
			}
			exprs = append(exprs, collectExprs(val)...)
		}
	case []any:
		for _, item := range v {
			exprs = append(exprs, collectExprs(item)...)
		}
	}
	return exprs
}

// metricNames extracts the metric names referenced by a parsed expression.
// Histogram _bucket/_sum/_count series are reported under their base name
// since that is what the instrumented code registers.
func metricNames(ast parser.Expr) []string {
	var names []string
	parser.Inspect(ast, func(node parser.Node, _ []parser.Node) error {
		vs, ok := node.(*parser.VectorSelector)
		if !ok {
			return nil
		}
		name := vs.Name
		if name == "" {
			for _, m := range vs.LabelMatchers {
				if m.Name == "__name__" {
					name = m.Value
				}
			}
		}
		if name != "" {
			names = append(names, baseName(name))
		}
		return nil
	})
	return names
}

func baseName(name string) string {
	for _, suffix := range []string{"_bucket", "_sum", "_count"} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}
