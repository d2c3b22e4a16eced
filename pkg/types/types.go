// Package domain defines the core business types for the Zara stock tracker.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// SizeStatus represents the normalized availability of a single size.
type SizeStatus string

// Size status constants.
const (
	SizeInStock    SizeStatus = "in_stock"
	SizeLowStock   SizeStatus = "low_stock"
	SizeOutOfStock SizeStatus = "out_of_stock"
	SizeUnknown    SizeStatus = "unknown"
)

// Available reports whether the status means the size can be purchased.
func (s SizeStatus) Available() bool {
	return s == SizeInStock || s == SizeLowStock
}

// ItemStatus represents the tracking health of an item as seen by the poller.
type ItemStatus string

// Item status constants.
const (
	// ItemActive means the upstream product resolves and is being polled.
	ItemActive ItemStatus = "active"
	// ItemNotFound means the upstream product no longer exists; the item is
	// kept so the user can see it and remove it.
	ItemNotFound ItemStatus = "not_found"
)

// TrackedItem represents a (product variant, target size, region) tuple the
// user wants monitored.
type TrackedItem struct {
	ID         string `json:"id"             db:"id"`
	ProductKey string `json:"product_key"    db:"product_key"`
	Name       string `json:"name,omitempty" db:"name"`

	// Region
	Country string `json:"country" db:"country"`
	Lang    string `json:"lang"    db:"lang"`

	TargetSize string     `json:"target_size" db:"target_size"`
	Enabled    bool       `json:"enabled"     db:"enabled"`
	Status     ItemStatus `json:"status"      db:"status"`

	CreatedAt     time.Time  `json:"created_at"                db:"created_at"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty" db:"last_checked_at"`
}

// StockSnapshot is a single point-in-time read of price and per-size
// availability for a tracked item. Exactly one current snapshot exists per
// item; it is replaced wholesale on each successful poll.
type StockSnapshot struct {
	ItemID     string                `json:"item_id"     db:"item_id"`
	ObservedAt time.Time             `json:"observed_at" db:"observed_at"`
	Price      int64                 `json:"price"       db:"price"`
	Currency   string                `json:"currency"    db:"currency"`
	Sizes      map[string]SizeStatus `json:"sizes"       db:"sizes"`
}

// StatusFor returns the status recorded for the given size label.
// Matching is case-insensitive; a size absent from the snapshot is unknown.
func (s *StockSnapshot) StatusFor(size string) SizeStatus {
	for label, status := range s.Sizes {
		if strings.EqualFold(label, size) {
			return status
		}
	}
	return SizeUnknown
}

// DisplayPrice renders the minor-unit price as a human-readable amount,
// e.g. 149950 TRY -> "1499.50 TRY".
func (s *StockSnapshot) DisplayPrice() string {
	return FormatPrice(s.Price, s.Currency)
}

// FormatPrice renders a minor-currency-unit amount with its currency code.
func FormatPrice(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	if currency == "" {
		return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, minor/100, minor%100, currency)
}

// PricePoint is one append-only price-history entry for a tracked item.
// A new point is recorded only when the price differs from the previous one.
type PricePoint struct {
	ItemID     string    `json:"item_id"     db:"item_id"`
	ObservedAt time.Time `json:"observed_at" db:"observed_at"`
	Price      int64     `json:"price"       db:"price"`
	Currency   string    `json:"currency"    db:"currency"`
}

// TransitionKind classifies a change between two consecutive snapshots'
// target-size status.
type TransitionKind string

// Transition kind constants.
const (
	// TransitionBecameAvailable fires when the target size moves from
	// out_of_stock or unknown to a purchasable status. This is the only
	// kind that notifies by default.
	TransitionBecameAvailable TransitionKind = "became_available"
	// TransitionWentOutOfStock fires when a purchasable target size sells
	// out. Recorded and counted, not notified unless configured.
	TransitionWentOutOfStock TransitionKind = "went_out_of_stock"
)

// Transition is an ephemeral classification of a target-size status change
// between two chronologically adjacent snapshots of the same item. It is
// produced and consumed within one poll cycle and never persisted.
type Transition struct {
	ItemID     string         `json:"item_id"`
	TargetSize string         `json:"target_size"`
	From       SizeStatus     `json:"from"`
	To         SizeStatus     `json:"to"`
	Kind       TransitionKind `json:"kind"`
	Price      int64          `json:"price"`
	Currency   string         `json:"currency"`
	ObservedAt time.Time      `json:"observed_at"`
}

// BackupRecord describes one on-disk backup of the durable store.
type BackupRecord struct {
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

// CheckOutcome is the per-item result of a poll attempt within one cycle.
type CheckOutcome string

// Check outcome constants.
const (
	OutcomeSuccess          CheckOutcome = "success"
	OutcomeRetriedSucceeded CheckOutcome = "retried_then_succeeded"
	OutcomeRetriedFailed    CheckOutcome = "retried_then_failed"
	OutcomeFailed           CheckOutcome = "failed"
	OutcomeNotFound         CheckOutcome = "not_found"
)

// ItemResult records the outcome of polling a single tracked item.
type ItemResult struct {
	ItemID     string       `json:"item_id"`
	ProductKey string       `json:"product_key"`
	TargetSize string       `json:"target_size"`
	Outcome    CheckOutcome `json:"outcome"`
	Attempts   int          `json:"attempts"`
	Error      string       `json:"error,omitempty"`
	Transition *Transition  `json:"transition,omitempty"`
	Duration   float64      `json:"duration_seconds"`
}

// CycleResult summarizes one full sweep over all enabled tracked items.
type CycleResult struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Manual     bool         `json:"manual"`
	Results    []ItemResult `json:"results"`
}

// Succeeded counts the items that ended the cycle with a usable snapshot.
func (c *CycleResult) Succeeded() int {
	n := 0
	for _, r := range c.Results {
		if r.Outcome == OutcomeSuccess || r.Outcome == OutcomeRetriedSucceeded {
			n++
		}
	}
	return n
}

// Failed counts the items whose update failed for this cycle.
func (c *CycleResult) Failed() int {
	return len(c.Results) - c.Succeeded()
}
