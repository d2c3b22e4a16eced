package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func loadTestFixture(t *testing.T) []productDetails {
	t.Helper()
	path := filepath.Join("testdata", "products_details.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	var products []productDetails
	if err := json.Unmarshal(data, &products); err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return products
}

func TestLoadFixture(t *testing.T) {
	fixture := loadTestFixture(t)
	if len(fixture) == 0 {
		t.Fatal("expected products in fixture")
	}
	for _, p := range fixture {
		if p.ID.String() == "" {
			t.Error("expected non-empty product id")
		}
		if len(p.Detail) == 0 {
			t.Errorf("product %s: expected detail payload", p.ID)
		}
	}
}

func TestDetailsHandler_KnownProduct(t *testing.T) {
	fixture := loadTestFixture(t)
	handler := detailsHandler(testLogger(), fixture, 0)
	req := httptest.NewRequest(http.MethodGet, "/tr/en/products-details?productIds=442792327", http.NoBody)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusOK)
	}

	var resp []productDetails
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("products=%d, want 1", len(resp))
	}
	if resp[0].ID.String() != "442792327" {
		t.Errorf("id=%s, want 442792327", resp[0].ID)
	}
}

func TestDetailsHandler_MultipleIDs(t *testing.T) {
	fixture := loadTestFixture(t)
	handler := detailsHandler(testLogger(), fixture, 0)
	req := httptest.NewRequest(http.MethodGet,
		"/tr/en/products-details?productIds=442792327,358902145", http.NoBody)
	w := httptest.NewRecorder()

	handler(w, req)

	var resp []productDetails
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp) != 2 {
		t.Errorf("products=%d, want 2", len(resp))
	}
}

func TestDetailsHandler_UnknownProduct(t *testing.T) {
	fixture := loadTestFixture(t)
	handler := detailsHandler(testLogger(), fixture, 0)
	req := httptest.NewRequest(http.MethodGet, "/tr/en/products-details?productIds=999999999", http.NoBody)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDetailsHandler_PartialMatch(t *testing.T) {
	fixture := loadTestFixture(t)
	handler := detailsHandler(testLogger(), fixture, 0)
	// One known id and one unknown: only the known one comes back.
	req := httptest.NewRequest(http.MethodGet,
		"/tr/en/products-details?productIds=999999999,501337160", http.NoBody)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusOK)
	}

	var resp []productDetails
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("products=%d, want 1", len(resp))
	}
	if resp[0].ID.String() != "501337160" {
		t.Errorf("id=%s, want 501337160", resp[0].ID)
	}
}

func TestDetailsHandler_FlipEvery(t *testing.T) {
	fixture := loadTestFixture(t)
	handler := detailsHandler(testLogger(), fixture, 2)

	availability := func(t *testing.T) string {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/tr/en/products-details?productIds=442792327", http.NoBody)
		w := httptest.NewRecorder()
		handler(w, req)

		var resp []productDetails
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		var detail struct {
			Colors []struct {
				Sizes []struct {
					Name         string `json:"name"`
					Availability string `json:"availability"`
				} `json:"sizes"`
			} `json:"colors"`
		}
		if err := json.Unmarshal(resp[0].Detail, &detail); err != nil {
			t.Fatalf("decoding detail: %v", err)
		}
		for _, s := range detail.Colors[0].Sizes {
			if s.Name == "XS" {
				return s.Availability
			}
		}
		t.Fatal("size XS not in response")
		return ""
	}

	// Requests 1-2 serve the fixture as-is, requests 3-4 flipped.
	for i, want := range []string{"out_of_stock", "out_of_stock", "in_stock", "in_stock"} {
		if got := availability(t); got != want {
			t.Errorf("request %d: availability=%s, want %s", i+1, got, want)
		}
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
