package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/donaldgifford/zara-stock-tracker/internal/metrics"
	"github.com/donaldgifford/zara-stock-tracker/pkg/logger"
)

const (
	defaultQueueSize   = 16
	defaultSendTimeout = 10 * time.Second
)

// Dispatcher fans stock alerts out to the configured notifiers without
// blocking the callers. Alerts are queued and delivered by a single
// worker; when the queue is full the alert is dropped and counted, never
// blocking a poll cycle. Failed sends are logged and counted but never
// retried.
type Dispatcher struct {
	notifiers []Notifier
	queue     chan StockAlert
	timeout   time.Duration
	log       *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithQueueSize sets the alert queue capacity.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan StockAlert, n)
		}
	}
}

// WithSendTimeout bounds each notifier send.
func WithSendTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// WithDispatcherLogger sets the dispatcher logger.
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.log = l
	}
}

// NewDispatcher creates a Dispatcher over the given notifiers.
func NewDispatcher(notifiers []Notifier, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		notifiers: notifiers,
		queue:     make(chan StockAlert, defaultQueueSize),
		timeout:   defaultSendTimeout,
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the delivery worker.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for alert := range d.queue {
			d.deliver(alert)
		}
	}()
}

// Stop drains queued alerts and waits for the worker to finish.
// Dispatch calls after Stop report the alert as dropped.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

// Dispatch enqueues an alert for delivery. It never blocks: when the
// queue is full the alert is dropped. Returns false when dropped.
func (d *Dispatcher) Dispatch(alert StockAlert) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		metrics.NotificationsDroppedTotal.Inc()
		d.log.Warn("alert dropped, dispatcher stopped", "alert", alert.Summary())
		return false
	}

	select {
	case d.queue <- alert:
		return true
	default:
		metrics.NotificationsDroppedTotal.Inc()
		d.log.Warn("alert dropped, queue full", "alert", alert.Summary())
		return false
	}
}

func (d *Dispatcher) deliver(alert StockAlert) {
	for _, n := range d.notifiers {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)

		start := time.Now()
		err := n.SendStockAlert(ctx, alert)
		metrics.NotificationDuration.Observe(time.Since(start).Seconds())
		cancel()

		if err != nil {
			metrics.NotificationsTotal.WithLabelValues(n.Name(), "error").Inc()
			d.log.Error("notification failed",
				"notifier", n.Name(),
				"alert", alert.Summary(),
				"error", err,
			)
			continue
		}

		metrics.NotificationsTotal.WithLabelValues(n.Name(), "ok").Inc()
		d.log.Info("notification sent",
			"notifier", n.Name(),
			"alert", alert.Summary(),
		)
	}
}
