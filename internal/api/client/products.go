package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

// CreateProductRequest contains the fields the API accepts when
// registering a product for tracking.
type CreateProductRequest struct {
	ProductKey string `json:"product_key"`
	TargetSize string `json:"target_size"`
	Name       string `json:"name,omitempty"`
	Country    string `json:"country,omitempty"`
	Lang       string `json:"lang,omitempty"`
}

// CreateProduct registers a product/size pair for tracking.
func (c *Client) CreateProduct(ctx context.Context, req CreateProductRequest) (*domain.TrackedItem, error) {
	var item domain.TrackedItem
	if err := c.post(ctx, "/api/v1/products", req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListProducts returns tracked items, optionally only the enabled ones.
func (c *Client) ListProducts(ctx context.Context, enabledOnly bool) ([]domain.TrackedItem, error) {
	path := "/api/v1/products"
	if enabledOnly {
		q := url.Values{}
		q.Set("enabled", "true")
		path += "?" + q.Encode()
	}

	var items []domain.TrackedItem
	if err := c.get(ctx, path, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetProduct returns a single tracked item by ID.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.TrackedItem, error) {
	var item domain.TrackedItem
	if err := c.get(ctx, "/api/v1/products/"+id, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// SetProductEnabled enables or disables polling for a tracked item.
func (c *Client) SetProductEnabled(ctx context.Context, id string, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	return c.put(ctx, fmt.Sprintf("/api/v1/products/%s/enabled", id), body, nil)
}

// DeleteProduct stops tracking an item and removes its snapshot and
// price history.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/products/"+id, nil)
}

// GetStock returns the item's current stock snapshot.
func (c *Client) GetStock(ctx context.Context, id string) (*domain.StockSnapshot, error) {
	var snap domain.StockSnapshot
	if err := c.get(ctx, fmt.Sprintf("/api/v1/products/%s/stock", id), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetPriceHistory returns the item's recorded price changes, newest
// first. A limit of zero uses the server default.
func (c *Client) GetPriceHistory(ctx context.Context, id string, limit int) ([]domain.PricePoint, error) {
	path := fmt.Sprintf("/api/v1/products/%s/history", id)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var points []domain.PricePoint
	if err := c.get(ctx, path, &points); err != nil {
		return nil, err
	}
	return points, nil
}
