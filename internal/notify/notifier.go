// Package notify defines the notification interface and implementations
// for stock alert delivery.
package notify

import (
	"context"
	"fmt"

	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

// StockAlert contains the data needed to send a stock transition
// notification.
type StockAlert struct {
	ItemName   string
	TargetSize string
	Kind       domain.TransitionKind
	Price      string // formatted, e.g. "1499.00 TRY"
}

// Title returns the human headline for the alert kind.
func (a StockAlert) Title() string {
	if a.Kind == domain.TransitionWentOutOfStock {
		return "Size Sold Out"
	}
	return "Size Available!"
}

// Summary returns a one-line description used in logs.
func (a StockAlert) Summary() string {
	return fmt.Sprintf("%s [%s] %s", a.ItemName, a.TargetSize, a.Title())
}

// Notifier defines the interface for sending stock alert notifications.
type Notifier interface {
	Name() string
	SendStockAlert(ctx context.Context, alert StockAlert) error
}
