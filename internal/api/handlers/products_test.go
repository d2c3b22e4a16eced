package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/zara-stock-tracker/internal/api/handlers"
	"github.com/donaldgifford/zara-stock-tracker/internal/provider"
	"github.com/donaldgifford/zara-stock-tracker/internal/store"
	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

// fakeFetcher is a test double for provider.DetailFetcher.
type fakeFetcher struct {
	detail *provider.Detail
	err    error
	calls  int
}

func (f *fakeFetcher) FetchDetail(context.Context, provider.Query) (*provider.Detail, error) {
	f.calls++
	return f.detail, f.err
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newProductsAPI(t *testing.T, st store.Store, f provider.DetailFetcher) humatest.TestAPI {
	t.Helper()

	_, api := humatest.New(t)
	handlers.RegisterProductRoutes(api, handlers.NewProductsHandler(st, f, "tr", "en"))
	return api
}

func sampleDetail(price int64) *provider.Detail {
	return &provider.Detail{
		Name:  "BASIC TEE",
		Color: "ECRU",
		Snapshot: &domain.StockSnapshot{
			ObservedAt: time.Now().UTC(),
			Price:      price,
			Currency:   "TRY",
			Sizes: map[string]domain.SizeStatus{
				"M": domain.SizeInStock,
				"L": domain.SizeOutOfStock,
			},
		},
	}
}

func TestCreateProduct_SeedsNameAndBaseline(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	api := newProductsAPI(t, st, &fakeFetcher{detail: sampleDetail(149950)})

	resp := api.Post("/api/v1/products", map[string]any{
		"product_key": "123456789",
		"target_size": "M",
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, resp.Body.String(), "BASIC TEE - ECRU")

	ctx := context.Background()
	items, err := st.ListItems(ctx, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	item := items[0]
	assert.Equal(t, "BASIC TEE - ECRU", item.Name)
	assert.Equal(t, "tr", item.Country)
	assert.Equal(t, "en", item.Lang)
	assert.True(t, item.Enabled)

	snap, err := st.GetSnapshot(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(149950), snap.Price)

	history, err := st.ListPriceHistory(ctx, item.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1, "registration records the opening price")
}

func TestCreateProduct_KeepsGivenName(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	api := newProductsAPI(t, st, &fakeFetcher{detail: sampleDetail(9900)})

	resp := api.Post("/api/v1/products", map[string]any{
		"product_key": "123456789",
		"target_size": "M",
		"name":        "my tee",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	items, err := st.ListItems(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "my tee", items[0].Name)
}

func TestCreateProduct_NotFoundUpstreamRejected(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	fetcher := &fakeFetcher{err: fmt.Errorf("%w: status 404", provider.ErrNotFound)}
	api := newProductsAPI(t, st, fetcher)

	resp := api.Post("/api/v1/products", map[string]any{
		"product_key": "000000000",
		"target_size": "M",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), "not found upstream")

	total, _, err := st.CountItems(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateProduct_UpstreamDownStillCreates(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	fetcher := &fakeFetcher{err: fmt.Errorf("%w: timeout", provider.ErrTransientNetwork)}
	api := newProductsAPI(t, st, fetcher)

	resp := api.Post("/api/v1/products", map[string]any{
		"product_key": "123456789",
		"target_size": "M",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	ctx := context.Background()
	items, err := st.ListItems(ctx, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].Name, "no name to seed while the storefront is down")

	_, err = st.GetSnapshot(ctx, items[0].ID)
	assert.ErrorIs(t, err, store.ErrNotFound, "the baseline waits for the first cycle")
}

func TestCreateProduct_DuplicateConflict(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	api := newProductsAPI(t, st, &fakeFetcher{detail: sampleDetail(9900)})

	body := map[string]any{"product_key": "123456789", "target_size": "M"}

	resp := api.Post("/api/v1/products", body)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = api.Post("/api/v1/products", body)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestCreateProduct_UnsupportedRegion(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	fetcher := &fakeFetcher{detail: sampleDetail(9900)}
	api := newProductsAPI(t, st, fetcher)

	resp := api.Post("/api/v1/products", map[string]any{
		"product_key": "123456789",
		"target_size": "M",
		"country":     "xx",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), "unsupported region")
	assert.Zero(t, fetcher.calls, "no upstream call for an unsupported region")
}

func TestCreateProduct_MissingFields(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	api := newProductsAPI(t, st, &fakeFetcher{detail: sampleDetail(9900)})

	resp := api.Post("/api/v1/products", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func seedTrackedItem(t *testing.T, st store.Store, key, size string) *domain.TrackedItem {
	t.Helper()

	item := &domain.TrackedItem{
		ProductKey: key,
		Name:       "Item " + key,
		Country:    "tr",
		Lang:       "en",
		TargetSize: size,
		Enabled:    true,
	}
	require.NoError(t, st.CreateItem(context.Background(), item))
	return item
}

func TestListProducts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	seedTrackedItem(t, st, "11111", "M")
	paused := seedTrackedItem(t, st, "22222", "L")
	require.NoError(t, st.SetItemEnabled(ctx, paused.ID, false))

	api := newProductsAPI(t, st, &fakeFetcher{})

	resp := api.Get("/api/v1/products")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "11111")
	assert.Contains(t, resp.Body.String(), "22222")

	resp = api.Get("/api/v1/products?enabled=true")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "11111")
	assert.NotContains(t, resp.Body.String(), "22222")
}

func TestListProducts_Empty(t *testing.T) {
	t.Parallel()

	api := newProductsAPI(t, newTestStore(t), &fakeFetcher{})

	resp := api.Get("/api/v1/products")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "[]")
}

func TestGetProduct(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	item := seedTrackedItem(t, st, "11111", "M")
	api := newProductsAPI(t, st, &fakeFetcher{})

	resp := api.Get("/api/v1/products/" + item.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "11111")

	resp = api.Get("/api/v1/products/no-such-id")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSetProductEnabled(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	item := seedTrackedItem(t, st, "11111", "M")
	api := newProductsAPI(t, st, &fakeFetcher{})

	resp := api.Put("/api/v1/products/"+item.ID+"/enabled", map[string]any{"enabled": false})
	require.Equal(t, http.StatusOK, resp.Code)

	got, err := st.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	resp = api.Put("/api/v1/products/no-such-id/enabled", map[string]any{"enabled": true})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteProduct_Cascades(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	item := seedTrackedItem(t, st, "11111", "M")
	require.NoError(t, st.UpsertSnapshot(ctx, &domain.StockSnapshot{
		ItemID:     item.ID,
		ObservedAt: time.Now().UTC(),
		Price:      9900,
		Currency:   "TRY",
		Sizes:      map[string]domain.SizeStatus{"M": domain.SizeInStock},
	}))

	api := newProductsAPI(t, st, &fakeFetcher{})

	resp := api.Delete("/api/v1/products/" + item.ID)
	require.Equal(t, http.StatusNoContent, resp.Code)

	_, err := st.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.GetSnapshot(ctx, item.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	resp = api.Delete("/api/v1/products/no-such-id")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetStock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	item := seedTrackedItem(t, st, "11111", "M")
	api := newProductsAPI(t, st, &fakeFetcher{})

	resp := api.Get("/api/v1/products/" + item.ID + "/stock")
	require.Equal(t, http.StatusNotFound, resp.Code, "no snapshot before the first poll")

	require.NoError(t, st.UpsertSnapshot(ctx, &domain.StockSnapshot{
		ItemID:     item.ID,
		ObservedAt: time.Now().UTC(),
		Price:      149950,
		Currency:   "TRY",
		Sizes:      map[string]domain.SizeStatus{"M": domain.SizeLowStock},
	}))

	resp = api.Get("/api/v1/products/" + item.ID + "/stock")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "low_stock")

	resp = api.Get("/api/v1/products/no-such-id/stock")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	item := seedTrackedItem(t, st, "11111", "M")

	base := time.Now().UTC()
	for i, price := range []int64{100000, 79900} {
		_, err := st.AppendPriceIfChanged(ctx, &domain.PricePoint{
			ItemID:     item.ID,
			ObservedAt: base.Add(time.Duration(i) * time.Minute),
			Price:      price,
			Currency:   "TRY",
		})
		require.NoError(t, err)
	}

	api := newProductsAPI(t, st, &fakeFetcher{})

	resp := api.Get("/api/v1/products/" + item.ID + "/history")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "79900")
	assert.Contains(t, resp.Body.String(), "100000")

	resp = api.Get("/api/v1/products/" + item.ID + "/history?limit=1")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "79900", "newest point first")
	assert.NotContains(t, resp.Body.String(), "100000")

	resp = api.Get("/api/v1/products/no-such-id/history")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
