// Package zara implements the stock provider against Zara's storefront
// product-details endpoint.
package zara

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/donaldgifford/zara-stock-tracker/internal/metrics"
	"github.com/donaldgifford/zara-stock-tracker/internal/provider"
	"github.com/donaldgifford/zara-stock-tracker/pkg/logger"
	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

const (
	defaultBaseURL = "https://www.zara.com"

	// The storefront endpoint rejects non-browser clients, so requests
	// carry a desktop browser profile.
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

	providerName = "zara"
)

// Client fetches product stock from the Zara storefront API.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *RateLimiter
	logger    *slog.Logger
	nowFunc   func() time.Time
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the storefront base URL, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithUserAgent overrides the browser profile sent upstream.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithRateLimiter injects an outbound rate limiter. When set, every
// fetch goes through Wait() first and budget exhaustion is surfaced as
// ErrRateLimited.
func WithRateLimiter(r *RateLimiter) Option {
	return func(c *Client) {
		c.limiter = r
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithNowFunc overrides the clock used for snapshot timestamps.
func WithNowFunc(f func() time.Time) Option {
	return func(c *Client) {
		c.nowFunc = f
	}
}

// New creates a Zara storefront client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    logger.Discard(),
		nowFunc:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements provider.Provider.
func (c *Client) Name() string {
	return providerName
}

// Fetch implements provider.Provider.
func (c *Client) Fetch(ctx context.Context, q provider.Query) (*domain.StockSnapshot, error) {
	detail, err := c.FetchDetail(ctx, q)
	if err != nil {
		return nil, err
	}
	return detail.Snapshot, nil
}

// productDetails mirrors the storefront response. The endpoint returns a
// top-level array with one element per requested product id.
type productDetails struct {
	ID     json.Number `json:"id"`
	Name   string      `json:"name"`
	Detail struct {
		Colors []productColor `json:"colors"`
	} `json:"detail"`
}

type productColor struct {
	Name      string        `json:"name"`
	ProductID json.Number   `json:"productId"`
	Sizes     []productSize `json:"sizes"`
}

type productSize struct {
	Name         string `json:"name"`
	Availability string `json:"availability"`
	Price        int64  `json:"price"`
	OldPrice     int64  `json:"oldPrice"`
	Discount     string `json:"discountLabel"`
}

// FetchDetail retrieves stock plus product identity for one query.
// Failures are classified into the provider sentinel errors; a response
// that decodes but carries no usable stock data is malformed, never a
// default of in-stock.
func (c *Client) FetchDetail(ctx context.Context, q provider.Query) (*provider.Detail, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if errors.Is(err, ErrDailyLimitReached) {
				metrics.ProviderDailyLimitHits.Inc()
			}
			return nil, fmt.Errorf("%w: %v", provider.ErrRateLimited, err)
		}
		metrics.ProviderDailyUsage.Set(float64(c.limiter.DailyCount()))
	}

	start := c.nowFunc()
	detail, err := c.fetchDetail(ctx, q)
	elapsed := c.nowFunc().Sub(start).Seconds()

	metrics.ProviderRequestDuration.WithLabelValues(providerName).Observe(elapsed)
	metrics.ProviderRequestsTotal.WithLabelValues(providerName, provider.Label(err)).Inc()

	if err != nil {
		c.logger.Debug("zara fetch failed",
			"product_key", q.ProductKey,
			"country", q.Country,
			"error", err,
		)
		return nil, err
	}
	return detail, nil
}

func (c *Client) fetchDetail(ctx context.Context, q provider.Query) (*provider.Detail, error) {
	u := fmt.Sprintf("%s/%s/%s/products-details?%s",
		c.baseURL,
		strings.ToLower(q.Country),
		strings.ToLower(q.Lang),
		url.Values{"productIds": {q.ProductKey}}.Encode(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", provider.ErrTransientNetwork, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", fmt.Sprintf("%s/%s/%s/", c.baseURL,
		strings.ToLower(q.Country), strings.ToLower(q.Lang)))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", provider.ErrTransientNetwork, err)
	}

	return c.parse(body, q)
}

// classifyStatus maps an HTTP status to a sentinel error, or nil for 200.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusNotFound || status == http.StatusGone:
		return fmt.Errorf("%w: status %d", provider.ErrNotFound, status)
	case status == http.StatusTooManyRequests || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", provider.ErrRateLimited, status)
	default:
		return fmt.Errorf("%w: unexpected status %d", provider.ErrTransientNetwork, status)
	}
}

// parse decodes the storefront payload. Decoding fails closed: anything
// structurally off becomes ErrMalformedResponse so a broken response can
// never masquerade as a stock change.
func (c *Client) parse(body []byte, q provider.Query) (*provider.Detail, error) {
	var products []productDetails
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("%w: decoding payload: %v", provider.ErrMalformedResponse, err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: empty product list", provider.ErrMalformedResponse)
	}

	product := products[0]
	if len(product.Detail.Colors) == 0 {
		return nil, fmt.Errorf("%w: no colors for product %s", provider.ErrMalformedResponse, q.ProductKey)
	}

	color := product.Detail.Colors[0]
	if len(color.Sizes) == 0 {
		return nil, fmt.Errorf("%w: no sizes for product %s", provider.ErrMalformedResponse, q.ProductKey)
	}

	sizes := make(map[string]domain.SizeStatus, len(color.Sizes))
	var price int64
	for _, s := range color.Sizes {
		if s.Name == "" {
			continue
		}
		sizes[s.Name] = mapAvailability(s.Availability)
		if price == 0 && s.Price > 0 {
			price = s.Price
		}
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("%w: no named sizes for product %s", provider.ErrMalformedResponse, q.ProductKey)
	}

	return &provider.Detail{
		Name:  product.Name,
		Color: color.Name,
		Snapshot: &domain.StockSnapshot{
			ObservedAt: c.nowFunc().UTC(),
			Price:      price,
			Currency:   domain.CurrencyFor(q.Country),
			Sizes:      sizes,
		},
	}, nil
}

// mapAvailability converts a storefront availability string to a size
// status. back_soon is not purchasable right now, so it maps to
// out_of_stock; anything unrecognized is unknown rather than a guess.
func mapAvailability(availability string) domain.SizeStatus {
	switch availability {
	case "in_stock":
		return domain.SizeInStock
	case "low_on_stock":
		return domain.SizeLowStock
	case "out_of_stock", "back_soon":
		return domain.SizeOutOfStock
	default:
		return domain.SizeUnknown
	}
}
