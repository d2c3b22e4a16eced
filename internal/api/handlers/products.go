package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/zara-stock-tracker/internal/provider"
	"github.com/donaldgifford/zara-stock-tracker/internal/store"
	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

// ProductsHandler handles tracked item CRUD, current stock and price
// history requests.
type ProductsHandler struct {
	store   store.Store
	fetcher provider.DetailFetcher

	defaultCountry string
	defaultLang    string
}

// NewProductsHandler creates a new ProductsHandler. The fetcher is used
// at registration time to validate the product upstream and seed its
// display name and baseline snapshot.
func NewProductsHandler(s store.Store, f provider.DetailFetcher, country, lang string) *ProductsHandler {
	return &ProductsHandler{
		store:          s,
		fetcher:        f,
		defaultCountry: country,
		defaultLang:    lang,
	}
}

// CreateProductInput is the request body for registering a tracked item.
type CreateProductInput struct {
	Body struct {
		ProductKey string `json:"product_key" minLength:"1" doc:"Zara product/color variant id"`
		TargetSize string `json:"target_size" minLength:"1" doc:"Size label to watch (case-insensitive)"`
		Name       string `json:"name,omitempty" doc:"Optional label; seeded from the storefront when empty"`
		Country    string `json:"country,omitempty" doc:"Storefront country code (config default when empty)"`
		Lang       string `json:"lang,omitempty" doc:"Storefront language (config default when empty)"`
	}
}

// ProductOutput is the response body carrying one tracked item.
type ProductOutput struct {
	Body domain.TrackedItem
}

// ProductListOutput is the response body carrying tracked items.
type ProductListOutput struct {
	Body []domain.TrackedItem
}

// Create registers a product for tracking. The product is validated
// upstream first: a product that does not exist is rejected, while a
// rate-limited or failing upstream only defers the baseline to the next
// poll cycle.
func (h *ProductsHandler) Create(ctx context.Context, input *CreateProductInput) (*ProductOutput, error) {
	item := &domain.TrackedItem{
		ProductKey: input.Body.ProductKey,
		Name:       input.Body.Name,
		Country:    defaultString(input.Body.Country, h.defaultCountry),
		Lang:       defaultString(input.Body.Lang, h.defaultLang),
		TargetSize: input.Body.TargetSize,
		Enabled:    true,
	}

	if !domain.SupportedRegion(item.Country, item.Lang) {
		return nil, huma.Error422UnprocessableEntity(
			"unsupported region: " + item.Country + "/" + item.Lang)
	}

	detail, err := h.fetcher.FetchDetail(ctx, provider.Query{
		ProductKey: item.ProductKey,
		Country:    item.Country,
		Lang:       item.Lang,
	})
	switch {
	case err == nil:
		if item.Name == "" {
			item.Name = detail.DisplayName()
		}
	case errors.Is(err, provider.ErrNotFound):
		return nil, huma.Error422UnprocessableEntity(
			"product not found upstream: " + item.ProductKey)
	default:
		// Rate limited, transient or malformed: register anyway, the
		// next poll cycle establishes the baseline.
		detail = nil
	}

	if err := h.store.CreateItem(ctx, item); err != nil {
		if errors.Is(err, store.ErrConstraint) {
			return nil, huma.Error409Conflict("already tracked: " + err.Error())
		}
		return nil, huma.Error500InternalServerError("creating item: " + err.Error())
	}

	if detail != nil && detail.Snapshot != nil {
		h.seedBaseline(ctx, item, detail.Snapshot)
	}

	return &ProductOutput{Body: *item}, nil
}

// seedBaseline records the registration-time snapshot and opening price.
// Best effort: the first poll cycle repairs anything missing here.
func (h *ProductsHandler) seedBaseline(ctx context.Context, item *domain.TrackedItem, snap *domain.StockSnapshot) {
	snap.ItemID = item.ID
	if err := h.store.UpsertSnapshot(ctx, snap); err != nil {
		return
	}
	_, _ = h.store.AppendPriceIfChanged(ctx, &domain.PricePoint{
		ItemID:     item.ID,
		ObservedAt: snap.ObservedAt,
		Price:      snap.Price,
		Currency:   snap.Currency,
	})
	_ = h.store.MarkItemChecked(ctx, item.ID, snap.ObservedAt, domain.ItemActive)
}

// ListProductsInput filters the tracked item list.
type ListProductsInput struct {
	Enabled bool `query:"enabled" doc:"Only enabled items when true"`
}

// List returns tracked items in creation order.
func (h *ProductsHandler) List(ctx context.Context, input *ListProductsInput) (*ProductListOutput, error) {
	items, err := h.store.ListItems(ctx, input.Enabled)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing items: " + err.Error())
	}
	if items == nil {
		items = []domain.TrackedItem{}
	}
	return &ProductListOutput{Body: items}, nil
}

// GetProductInput identifies one tracked item.
type GetProductInput struct {
	ID string `path:"id" doc:"Tracked item UUID"`
}

// Get returns a single tracked item.
func (h *ProductsHandler) Get(ctx context.Context, input *GetProductInput) (*ProductOutput, error) {
	item, err := h.store.GetItem(ctx, input.ID)
	if err != nil {
		return nil, storeError("getting item", err)
	}
	return &ProductOutput{Body: *item}, nil
}

// SetEnabledInput toggles polling for one tracked item.
type SetEnabledInput struct {
	ID   string `path:"id" doc:"Tracked item UUID"`
	Body struct {
		Enabled bool `json:"enabled" doc:"Whether the item is polled"`
	}
}

// SetEnabledOutput is the response body for the enable toggle.
type SetEnabledOutput struct {
	Body struct {
		Status string `json:"status" example:"updated"`
	}
}

// SetEnabled enables or disables polling for an item.
func (h *ProductsHandler) SetEnabled(ctx context.Context, input *SetEnabledInput) (*SetEnabledOutput, error) {
	if err := h.store.SetItemEnabled(ctx, input.ID, input.Body.Enabled); err != nil {
		return nil, storeError("updating item", err)
	}

	resp := &SetEnabledOutput{}
	resp.Body.Status = "updated"
	return resp, nil
}

// Delete removes a tracked item with its snapshot and price history.
func (h *ProductsHandler) Delete(ctx context.Context, input *GetProductInput) (*struct{}, error) {
	if err := h.store.DeleteItem(ctx, input.ID); err != nil {
		return nil, storeError("deleting item", err)
	}
	return nil, nil
}

// SnapshotOutput is the response body carrying the current snapshot.
type SnapshotOutput struct {
	Body domain.StockSnapshot
}

// GetStock returns the item's current stock snapshot. 404 until the
// first successful poll.
func (h *ProductsHandler) GetStock(ctx context.Context, input *GetProductInput) (*SnapshotOutput, error) {
	if _, err := h.store.GetItem(ctx, input.ID); err != nil {
		return nil, storeError("getting item", err)
	}

	snap, err := h.store.GetSnapshot(ctx, input.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("no snapshot yet: the item has not been polled")
		}
		return nil, huma.Error500InternalServerError("getting snapshot: " + err.Error())
	}
	return &SnapshotOutput{Body: *snap}, nil
}

// GetHistoryInput identifies one item's price history request.
type GetHistoryInput struct {
	ID    string `path:"id" doc:"Tracked item UUID"`
	Limit int    `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Maximum points returned"`
}

// HistoryOutput is the response body carrying price points, newest first.
type HistoryOutput struct {
	Body []domain.PricePoint
}

// GetHistory returns the item's price history, newest first.
func (h *ProductsHandler) GetHistory(ctx context.Context, input *GetHistoryInput) (*HistoryOutput, error) {
	if _, err := h.store.GetItem(ctx, input.ID); err != nil {
		return nil, storeError("getting item", err)
	}

	points, err := h.store.ListPriceHistory(ctx, input.ID, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing price history: " + err.Error())
	}
	if points == nil {
		points = []domain.PricePoint{}
	}
	return &HistoryOutput{Body: points}, nil
}

// storeError maps store sentinel errors to HTTP errors.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return huma.Error404NotFound(op + ": " + err.Error())
	case errors.Is(err, store.ErrConstraint):
		return huma.Error409Conflict(op + ": " + err.Error())
	default:
		return huma.Error500InternalServerError(op + ": " + err.Error())
	}
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// RegisterProductRoutes registers tracked item endpoints with the Huma API.
func RegisterProductRoutes(api huma.API, h *ProductsHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-product",
		Method:        http.MethodPost,
		Path:          "/api/v1/products",
		Summary:       "Track a product size",
		Description:   "Registers a product/size pair for polling. The product is validated upstream; its name and baseline snapshot are seeded when the storefront answers.",
		Tags:          []string{"products"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusConflict, http.StatusUnprocessableEntity, http.StatusInternalServerError},
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID: "list-products",
		Method:      http.MethodGet,
		Path:        "/api/v1/products",
		Summary:     "List tracked products",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "get-product",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/{id}",
		Summary:     "Get a tracked product",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.Get)

	huma.Register(api, huma.Operation{
		OperationID: "set-product-enabled",
		Method:      http.MethodPut,
		Path:        "/api/v1/products/{id}/enabled",
		Summary:     "Enable or disable polling",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.SetEnabled)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-product",
		Method:        http.MethodDelete,
		Path:          "/api/v1/products/{id}",
		Summary:       "Stop tracking a product",
		Description:   "Deletes the item together with its snapshot and price history.",
		Tags:          []string{"products"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.Delete)

	huma.Register(api, huma.Operation{
		OperationID: "get-product-stock",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/{id}/stock",
		Summary:     "Get current stock snapshot",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.GetStock)

	huma.Register(api, huma.Operation{
		OperationID: "get-product-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/{id}/history",
		Summary:     "Get price history",
		Description: "Returns recorded price changes, newest first.",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.GetHistory)
}
