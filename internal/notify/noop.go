package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier implements Notifier by logging discarded alerts. It is used
// when no notification backend is configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards alerts with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// Name implements Notifier.
func (n *NoOpNotifier) Name() string {
	return "noop"
}

// SendStockAlert logs and discards the alert.
func (n *NoOpNotifier) SendStockAlert(_ context.Context, alert StockAlert) error {
	n.log.Debug("notification discarded (no backend configured)",
		"item", alert.ItemName,
		"size", alert.TargetSize,
		"kind", string(alert.Kind),
	)
	return nil
}
