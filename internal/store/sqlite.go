package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

// SQLiteStore implements Store on a single SQLite database file.
// Timestamps are stored as integer nanoseconds and returned in UTC.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the database at path.
// Use ":memory:" for an in-memory database in tests. The schema is not
// created here; call Migrate.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// SQLite allows a single writer; one pooled connection avoids
	// SQLITE_BUSY under concurrent use and keeps :memory: databases
	// from silently splitting per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RunMigrations(ctx, s.db)
}

// CreateItem inserts a tracked item, assigning its ID and creation time
// when unset.
func (s *SQLiteStore) CreateItem(ctx context.Context, item *domain.TrackedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	if item.Status == "" {
		item.Status = domain.ItemActive
	}

	_, err := s.db.ExecContext(ctx, queryCreateItem,
		item.ID, item.ProductKey, item.Name, item.Country, item.Lang,
		item.TargetSize, boolToInt(item.Enabled), string(item.Status),
		item.CreatedAt.UnixNano(),
	)
	if err != nil {
		return classifyErr("creating item", err)
	}
	return nil
}

// GetItem retrieves a tracked item by ID.
func (s *SQLiteStore) GetItem(ctx context.Context, id string) (*domain.TrackedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, err := scanItem(s.db.QueryRowContext(ctx, queryGetItem, id))
	if err != nil {
		return nil, classifyErr("getting item", err)
	}
	return item, nil
}

// ListItems returns tracked items in creation order, optionally only the
// enabled ones.
func (s *SQLiteStore) ListItems(ctx context.Context, enabledOnly bool) ([]domain.TrackedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := queryListItems
	if enabledOnly {
		q = queryListEnabledItems
	}

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []domain.TrackedItem
	for rows.Next() {
		item, err := scanItemRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}

	return items, nil
}

// SetItemEnabled flips tracking on or off for one item.
func (s *SQLiteStore) SetItemEnabled(ctx context.Context, id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, querySetItemEnabled, boolToInt(enabled), id)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return requireRow(res, "item", id)
}

// MarkItemChecked records when the item was last polled and its upstream
// status.
func (s *SQLiteStore) MarkItemChecked(ctx context.Context, id string, at time.Time, status domain.ItemStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, queryMarkItemChecked,
		at.UnixNano(), string(status), id,
	)
	if err != nil {
		return fmt.Errorf("marking item checked: %w", err)
	}
	return requireRow(res, "item", id)
}

// DeleteItem removes the item with its snapshot and price history.
func (s *SQLiteStore) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, queryDeletePriceHistory, id); err != nil {
		return fmt.Errorf("deleting price history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, queryDeleteSnapshot, id); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}

	res, err := tx.ExecContext(ctx, queryDeleteItem, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if err := requireRow(res, "item", id); err != nil {
		return err
	}

	return tx.Commit()
}

// CountItems returns total and enabled tracked item counts.
func (s *SQLiteStore) CountItems(ctx context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total, enabled int
	err := s.db.QueryRowContext(ctx, queryCountItems).Scan(&total, &enabled)
	if err != nil {
		return 0, 0, fmt.Errorf("counting items: %w", err)
	}
	return total, enabled, nil
}

// UpsertSnapshot replaces the item's current snapshot unless the stored
// one is newer.
func (s *SQLiteStore) UpsertSnapshot(ctx context.Context, snap *domain.StockSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sizes, err := json.Marshal(snap.Sizes)
	if err != nil {
		return fmt.Errorf("encoding sizes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, queryUpsertSnapshot,
		snap.ItemID, snap.ObservedAt.UnixNano(), snap.Price, snap.Currency,
		string(sizes),
	)
	if err != nil {
		return fmt.Errorf("upserting snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns the item's current snapshot, ErrNotFound before the
// first successful poll.
func (s *SQLiteStore) GetSnapshot(ctx context.Context, itemID string) (*domain.StockSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		snap     domain.StockSnapshot
		observed int64
		sizes    string
	)
	err := s.db.QueryRowContext(ctx, queryGetSnapshot, itemID).Scan(
		&snap.ItemID, &observed, &snap.Price, &snap.Currency, &sizes,
	)
	if err != nil {
		return nil, classifyErr("getting snapshot", err)
	}

	snap.ObservedAt = fromNanos(observed)
	if err := json.Unmarshal([]byte(sizes), &snap.Sizes); err != nil {
		return nil, fmt.Errorf("decoding sizes: %w", err)
	}
	return &snap, nil
}

// AppendPriceIfChanged appends a price point when it differs from the
// last recorded price. The first observation is always recorded.
// Observations that are not newer than the last recorded point are
// ignored, keeping per-item history strictly increasing in time.
func (s *SQLiteStore) AppendPriceIfChanged(ctx context.Context, pp *domain.PricePoint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastNanos, lastPrice int64
	err := s.db.QueryRowContext(ctx, queryLastPricePoint, pp.ItemID).
		Scan(&lastNanos, &lastPrice)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		// First point for this item.
	case err != nil:
		return false, fmt.Errorf("reading last price: %w", err)
	case lastPrice == pp.Price:
		return false, nil
	case pp.ObservedAt.UnixNano() <= lastNanos:
		return false, nil
	}

	_, err = s.db.ExecContext(ctx, queryAppendPricePoint,
		pp.ItemID, pp.ObservedAt.UnixNano(), pp.Price, pp.Currency,
	)
	if err != nil {
		return false, fmt.Errorf("appending price point: %w", err)
	}
	return true, nil
}

// ListPriceHistory returns up to limit price points, newest first.
func (s *SQLiteStore) ListPriceHistory(ctx context.Context, itemID string, limit int) ([]domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, queryListPriceHistory, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying price history: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var (
			pp       domain.PricePoint
			observed int64
		)
		if err := rows.Scan(&pp.ItemID, &observed, &pp.Price, &pp.Currency); err != nil {
			return nil, fmt.Errorf("scanning price point: %w", err)
		}
		pp.ObservedAt = fromNanos(observed)
		points = append(points, pp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating price history: %w", err)
	}

	return points, nil
}

// GetSetting returns the stored value for key, ErrNotFound when unset.
func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, queryGetSetting, key).Scan(&value)
	if err != nil {
		return "", classifyErr("getting setting", err)
	}
	return value, nil
}

// PutSetting stores or replaces a setting.
func (s *SQLiteStore) PutSetting(ctx context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, queryPutSetting, key, value, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("putting setting: %w", err)
	}
	return nil
}

// BackupTo writes a consistent copy of the database to path using
// VACUUM INTO, safe while the store is in use.
func (s *SQLiteStore) BackupTo(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// scanItem scans a single-row query into a TrackedItem.
func scanItem(row *sql.Row) (*domain.TrackedItem, error) {
	var (
		item        domain.TrackedItem
		enabled     int
		status      string
		createdAt   int64
		lastChecked sql.NullInt64
	)
	err := row.Scan(
		&item.ID, &item.ProductKey, &item.Name, &item.Country, &item.Lang,
		&item.TargetSize, &enabled, &status, &createdAt, &lastChecked,
	)
	if err != nil {
		return nil, err
	}
	fillItem(&item, enabled, status, createdAt, lastChecked)
	return &item, nil
}

// scanItemRow scans the current row of a multi-row query.
func scanItemRow(rows *sql.Rows) (*domain.TrackedItem, error) {
	var (
		item        domain.TrackedItem
		enabled     int
		status      string
		createdAt   int64
		lastChecked sql.NullInt64
	)
	err := rows.Scan(
		&item.ID, &item.ProductKey, &item.Name, &item.Country, &item.Lang,
		&item.TargetSize, &enabled, &status, &createdAt, &lastChecked,
	)
	if err != nil {
		return nil, err
	}
	fillItem(&item, enabled, status, createdAt, lastChecked)
	return &item, nil
}

func fillItem(item *domain.TrackedItem, enabled int, status string, createdAt int64, lastChecked sql.NullInt64) {
	item.Enabled = enabled != 0
	item.Status = domain.ItemStatus(status)
	item.CreatedAt = fromNanos(createdAt)
	if lastChecked.Valid {
		t := fromNanos(lastChecked.Int64)
		item.LastCheckedAt = &t
	}
}

// requireRow converts a zero-row update into ErrNotFound.
func requireRow(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
	}
	return nil
}

// classifyErr maps driver errors onto the store sentinels.
func classifyErr(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case strings.Contains(strings.ToLower(err.Error()), "constraint"):
		return fmt.Errorf("%s: %w: %v", op, ErrConstraint, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
