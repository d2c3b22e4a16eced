// Package store defines the datastore abstraction for zara-stock-tracker.
// All business logic depends on the Store interface, never on concrete
// implementations. This enables fake-based testing without a database file.
package store

import (
	"context"
	"errors"
	"time"

	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

// Sentinel errors. Implementations wrap these; callers match with
// errors.Is.
var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConstraint is returned when a write violates a uniqueness or
	// integrity constraint, e.g. registering the same product, region
	// and size twice.
	ErrConstraint = errors.New("constraint violation")
)

// Store defines all data access operations for zara-stock-tracker.
type Store interface {
	// Tracked items
	CreateItem(ctx context.Context, item *domain.TrackedItem) error
	GetItem(ctx context.Context, id string) (*domain.TrackedItem, error)
	ListItems(ctx context.Context, enabledOnly bool) ([]domain.TrackedItem, error)
	SetItemEnabled(ctx context.Context, id string, enabled bool) error
	MarkItemChecked(ctx context.Context, id string, at time.Time, status domain.ItemStatus) error
	DeleteItem(ctx context.Context, id string) error
	CountItems(ctx context.Context) (total int, enabled int, err error)

	// Stock snapshots: exactly one current snapshot per item, replaced
	// atomically and only by observations that are not older.
	UpsertSnapshot(ctx context.Context, snap *domain.StockSnapshot) error
	GetSnapshot(ctx context.Context, itemID string) (*domain.StockSnapshot, error)

	// Price history: append-only, one row per price change, strictly
	// increasing observation times per item.
	AppendPriceIfChanged(ctx context.Context, pp *domain.PricePoint) (bool, error)
	ListPriceHistory(ctx context.Context, itemID string, limit int) ([]domain.PricePoint, error)

	// Settings: small key/value pairs that survive restarts, e.g. the
	// poll interval chosen through the API.
	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key string, value string) error

	// Backups
	BackupTo(ctx context.Context, path string) error

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error

	Close() error
}
