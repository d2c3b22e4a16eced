// Package provider defines the upstream stock source abstraction and the
// error taxonomy every implementation must classify its failures into.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

// Sentinel errors for upstream failures. Implementations wrap these with
// detail (fmt.Errorf("%w: ...")); callers match with errors.Is to pick a
// retry or surfacing policy.
var (
	// ErrNotFound means the product does not exist upstream (or was
	// removed). Never retried.
	ErrNotFound = errors.New("product not found upstream")

	// ErrRateLimited means the upstream or our own budget refused the
	// request. Retryable with backoff.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransientNetwork covers timeouts, connection failures and 5xx
	// responses. Retryable with backoff.
	ErrTransientNetwork = errors.New("transient network error")

	// ErrMalformedResponse means the upstream answered but the payload
	// could not be decoded into stock data. Never retried, and never
	// treated as evidence of stock.
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// Query identifies one product on one storefront.
type Query struct {
	ProductKey string
	Country    string
	Lang       string
}

// CacheKey returns the response-cache key for this query, namespaced by
// provider so two sources can never collide.
func (q Query) CacheKey(providerName string) string {
	return fmt.Sprintf("%s:%s:%s:%s",
		providerName,
		strings.ToLower(q.Country),
		strings.ToLower(q.Lang),
		q.ProductKey,
	)
}

// Provider fetches the current stock state of a product.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, q Query) (*domain.StockSnapshot, error)
}

// Detail carries the upstream product identity alongside its stock,
// used when a new item is registered and we want its display name.
type Detail struct {
	Name     string
	Color    string
	Snapshot *domain.StockSnapshot
}

// DisplayName joins the product and color names the way item names are
// stored.
func (d *Detail) DisplayName() string {
	if d.Color == "" {
		return d.Name
	}
	return d.Name + " - " + d.Color
}

// DetailFetcher is implemented by providers that can also report product
// identity, not just stock.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, q Query) (*Detail, error)
}

// Label maps a classified fetch error to a low-cardinality metrics label.
func Label(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrTransientNetwork):
		return "transient"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "error"
	}
}
