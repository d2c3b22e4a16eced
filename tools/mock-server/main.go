// Package main implements a mock Zara storefront server for local development.
// It serves canned product-details responses from a JSON fixture so the
// tracker can be exercised without hitting the real storefront.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// productDetails is the subset of the storefront payload the mock serves.
// The real endpoint returns a top-level array with one element per
// requested product id.
type productDetails struct {
	ID     json.Number     `json:"id"`
	Name   string          `json:"name"`
	Detail json.RawMessage `json:"detail"`
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "tools/mock-server/testdata/products_details.json", "path to product details fixture")
	flipEvery := flag.Int("flip-every", 0, "toggle size availability every N requests (0 disables)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fixture, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "products", len(fixture))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{country}/{lang}/products-details", detailsHandler(logger, fixture, *flipEvery))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock Zara server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadFixture(path string) ([]productDetails, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var products []productDetails
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return products, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func detailsHandler(logger *slog.Logger, fixture []productDetails, flipEvery int) http.HandlerFunc {
	// Index by product id for lookup.
	byID := make(map[string]productDetails, len(fixture))
	for _, p := range fixture {
		byID[p.ID.String()] = p
	}

	var requests atomic.Int64

	return func(w http.ResponseWriter, r *http.Request) {
		ids := strings.Split(r.URL.Query().Get("productIds"), ",")

		var matched []productDetails
		for _, id := range ids {
			if p, ok := byID[strings.TrimSpace(id)]; ok {
				matched = append(matched, p)
			}
		}

		// The real storefront 404s when none of the requested ids resolve.
		if len(matched) == 0 {
			w.WriteHeader(http.StatusNotFound)
			logger.Info("details", "ids", ids, "matched", 0)
			return
		}

		flipped := false
		if flipEvery > 0 {
			n := requests.Add(1) - 1
			if (n/int64(flipEvery))%2 == 1 {
				matched = flipAvailability(matched)
				flipped = true
			}
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(matched)
		logger.Info("details",
			"country", r.PathValue("country"),
			"lang", r.PathValue("lang"),
			"ids", ids,
			"matched", len(matched),
			"flipped", flipped,
		)
	}
}

// flipAvailability returns copies of the products with every size's
// availability toggled between in_stock and out_of_stock, so restock
// transitions can be exercised end to end without editing the fixture.
func flipAvailability(products []productDetails) []productDetails {
	out := make([]productDetails, 0, len(products))
	for _, p := range products {
		var detail map[string]any
		if err := json.Unmarshal(p.Detail, &detail); err != nil {
			out = append(out, p)
			continue
		}
		colors, _ := detail["colors"].([]any)
		for _, c := range colors {
			color, _ := c.(map[string]any)
			sizes, _ := color["sizes"].([]any)
			for _, s := range sizes {
				size, _ := s.(map[string]any)
				switch size["availability"] {
				case "in_stock", "low_on_stock":
					size["availability"] = "out_of_stock"
				case "out_of_stock", "back_soon":
					size["availability"] = "in_stock"
				}
			}
		}
		raw, err := json.Marshal(detail)
		if err != nil {
			out = append(out, p)
			continue
		}
		out = append(out, productDetails{ID: p.ID, Name: p.Name, Detail: raw})
	}
	return out
}
