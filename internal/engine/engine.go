// Package engine implements the stock-monitoring core: the poll cycle
// that sweeps all enabled tracked items, and the scheduler loop that
// drives it on a timer and on demand.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/donaldgifford/zara-stock-tracker/internal/metrics"
	"github.com/donaldgifford/zara-stock-tracker/internal/notify"
	"github.com/donaldgifford/zara-stock-tracker/internal/provider"
	"github.com/donaldgifford/zara-stock-tracker/internal/store"
	"github.com/donaldgifford/zara-stock-tracker/pkg/stock"
	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

const (
	defaultConcurrency  = 4
	defaultRetries      = 2
	defaultBackoffBase  = time.Second
	defaultCycleTimeout = 2 * time.Minute
)

// AlertDispatcher receives notifiable transitions. *notify.Dispatcher
// implements it; the engine fires and forgets.
type AlertDispatcher interface {
	Dispatch(alert notify.StockAlert) bool
}

// Engine runs poll cycles: it fans enabled tracked items out to the
// provider on a bounded worker pool, evaluates each result against the
// stored snapshot, records snapshot and price history, and hands
// notifiable transitions to the dispatcher. One item's failure never
// aborts the cycle for the others.
type Engine struct {
	store      store.Store
	provider   provider.Provider
	dispatcher AlertDispatcher
	log        *slog.Logger

	concurrency      int
	retries          int
	backoffBase      time.Duration
	cycleTimeout     time.Duration
	notifyOutOfStock bool
}

// New creates an Engine with injected dependencies.
func New(s store.Store, p provider.Provider, d AlertDispatcher, opts ...Option) *Engine {
	eng := &Engine{
		store:        s,
		provider:     p,
		dispatcher:   d,
		log:          slog.Default(),
		concurrency:  defaultConcurrency,
		retries:      defaultRetries,
		backoffBase:  defaultBackoffBase,
		cycleTimeout: defaultCycleTimeout,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithConcurrency bounds how many items are fetched in parallel.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithRetries sets how many times a rate-limited or transient fetch
// failure is retried within one cycle.
func WithRetries(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.retries = n
		}
	}
}

// WithBackoffBase sets the first retry delay; each further retry doubles it.
func WithBackoffBase(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.backoffBase = d
		}
	}
}

// WithCycleTimeout sets the overall deadline for one cycle. Items still
// unfinished when it expires are marked failed and picked up next cycle.
func WithCycleTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.cycleTimeout = d
		}
	}
}

// WithNotifyOnOutOfStock also dispatches went_out_of_stock transitions.
// They are always classified and counted; this only controls delivery.
func WithNotifyOnOutOfStock(enabled bool) Option {
	return func(e *Engine) {
		e.notifyOutOfStock = enabled
	}
}

// RunCycle polls every enabled tracked item once and returns the per-item
// outcomes. It returns an error only when the item list cannot be read;
// per-item failures are contained in the results.
func (eng *Engine) RunCycle(ctx context.Context) (*domain.CycleResult, error) {
	start := time.Now()
	metrics.PollCycleInFlight.Set(1)
	defer metrics.PollCycleInFlight.Set(0)
	defer func() {
		metrics.PollCycleDuration.Observe(time.Since(start).Seconds())
	}()

	items, err := eng.store.ListItems(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listing tracked items: %w", err)
	}
	metrics.ItemsTracked.Set(float64(len(items)))

	cctx, cancel := context.WithTimeout(ctx, eng.cycleTimeout)
	defer cancel()

	results := make([]domain.ItemResult, len(items))
	sem := make(chan struct{}, eng.concurrency)

	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = eng.checkItem(cctx, &items[i], sem)
		}(i)
	}
	wg.Wait()

	cycle := &domain.CycleResult{
		StartedAt:  start.UTC(),
		FinishedAt: time.Now().UTC(),
		Results:    results,
	}

	eng.log.Info("poll cycle complete",
		"items", len(items),
		"succeeded", cycle.Succeeded(),
		"failed", cycle.Failed(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return cycle, nil
}

// checkItem polls one tracked item and records the outcome. Failures are
// captured in the result, never returned: the caller's cycle keeps going.
func (eng *Engine) checkItem(ctx context.Context, item *domain.TrackedItem, sem chan struct{}) domain.ItemResult {
	res := domain.ItemResult{
		ItemID:     item.ID,
		ProductKey: item.ProductKey,
		TargetSize: item.TargetSize,
	}
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start).Seconds()
		metrics.ItemChecksTotal.WithLabelValues(string(res.Outcome)).Inc()
		eng.logOutcome(item, &res)
	}()

	snap, attempts, err := eng.fetchWithRetry(ctx, item, sem)
	res.Attempts = attempts
	if err != nil {
		res.Error = err.Error()
		switch {
		case errors.Is(err, provider.ErrNotFound):
			res.Outcome = domain.OutcomeNotFound
			eng.flagNotFound(ctx, item)
		case attempts > 1:
			res.Outcome = domain.OutcomeRetriedFailed
		default:
			res.Outcome = domain.OutcomeFailed
		}
		return res
	}

	transition, err := eng.recordObservation(ctx, item, snap)
	if err != nil {
		// The prior snapshot stays authoritative; next cycle retries.
		res.Outcome = domain.OutcomeFailed
		res.Error = err.Error()
		return res
	}

	res.Transition = transition
	if attempts > 1 {
		res.Outcome = domain.OutcomeRetriedSucceeded
	} else {
		res.Outcome = domain.OutcomeSuccess
	}
	return res
}

// fetchWithRetry fetches through the bounded worker pool, retrying
// rate-limited and transient failures with exponential backoff. The pool
// slot is held only while a request is in flight, so an item backing off
// never blocks another item's fetch. Returns the attempts made.
func (eng *Engine) fetchWithRetry(ctx context.Context, item *domain.TrackedItem, sem chan struct{}) (*domain.StockSnapshot, int, error) {
	q := provider.Query{
		ProductKey: item.ProductKey,
		Country:    item.Country,
		Lang:       item.Lang,
	}

	var lastErr error
	for attempt := 0; attempt <= eng.retries; attempt++ {
		if attempt > 0 {
			backoff := eng.backoffBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, attempt, fmt.Errorf("cycle deadline during backoff: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return nil, attempt + 1, fmt.Errorf("cycle deadline before fetch: %w", ctx.Err())
		}
		snap, err := eng.provider.Fetch(ctx, q)
		<-sem

		if err == nil {
			return snap, attempt + 1, nil
		}
		lastErr = err

		if !retryable(err) {
			return nil, attempt + 1, err
		}
	}

	return nil, eng.retries + 1, lastErr
}

// retryable reports whether a fetch error is worth retrying within the
// same cycle. NotFound and MalformedResponse are not: the product is gone
// or the payload shape drifted, and neither heals in seconds.
func retryable(err error) bool {
	return errors.Is(err, provider.ErrRateLimited) ||
		errors.Is(err, provider.ErrTransientNetwork)
}

// recordObservation persists a successful fetch and classifies the
// transition against the previous snapshot. The snapshot write is atomic
// per item and ignores observations older than the stored one.
func (eng *Engine) recordObservation(ctx context.Context, item *domain.TrackedItem, snap *domain.StockSnapshot) (*domain.Transition, error) {
	snap.ItemID = item.ID

	prev, err := eng.store.GetSnapshot(ctx, item.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("reading previous snapshot: %w", err)
	}

	// An observation no newer than the stored snapshot (a stale upstream
	// cache, typically) is dropped by the store's newer-wins upsert and
	// must not evidence a transition either.
	stale := prev != nil && !snap.ObservedAt.After(prev.ObservedAt)

	if err := eng.store.UpsertSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("writing snapshot: %w", err)
	}

	appended, err := eng.store.AppendPriceIfChanged(ctx, &domain.PricePoint{
		ItemID:     item.ID,
		ObservedAt: snap.ObservedAt,
		Price:      snap.Price,
		Currency:   snap.Currency,
	})
	if err != nil {
		eng.log.Error("appending price point", "item", item.ID, "error", err)
	} else if appended {
		eng.log.Info("price change recorded",
			"item", item.ID,
			"product_key", item.ProductKey,
			"price", snap.DisplayPrice(),
		)
	}

	if err := eng.store.MarkItemChecked(ctx, item.ID, snap.ObservedAt, domain.ItemActive); err != nil {
		eng.log.Error("marking item checked", "item", item.ID, "error", err)
	}

	if stale {
		return nil, nil
	}

	transition := stock.Evaluate(prev, snap, item.TargetSize)
	if transition == nil {
		return nil, nil
	}

	metrics.TransitionsTotal.WithLabelValues(string(transition.Kind)).Inc()
	eng.log.Info("stock transition",
		"item", item.ID,
		"product_key", item.ProductKey,
		"size", transition.TargetSize,
		"kind", string(transition.Kind),
		"from", string(transition.From),
		"to", string(transition.To),
	)

	if eng.shouldNotify(transition.Kind) {
		eng.dispatcher.Dispatch(notify.StockAlert{
			ItemName:   displayName(item),
			TargetSize: transition.TargetSize,
			Kind:       transition.Kind,
			Price:      domain.FormatPrice(transition.Price, transition.Currency),
		})
	}

	return transition, nil
}

func (eng *Engine) shouldNotify(kind domain.TransitionKind) bool {
	if eng.dispatcher == nil {
		return false
	}
	switch kind {
	case domain.TransitionBecameAvailable:
		return true
	case domain.TransitionWentOutOfStock:
		return eng.notifyOutOfStock
	default:
		return false
	}
}

// flagNotFound marks the item so the UI can show it as gone upstream.
// The item is kept: removal is the user's call, not the poller's.
func (eng *Engine) flagNotFound(ctx context.Context, item *domain.TrackedItem) {
	if err := eng.store.MarkItemChecked(ctx, item.ID, time.Now().UTC(), domain.ItemNotFound); err != nil {
		eng.log.Error("flagging item not found", "item", item.ID, "error", err)
	}
}

func (eng *Engine) logOutcome(item *domain.TrackedItem, res *domain.ItemResult) {
	switch res.Outcome {
	case domain.OutcomeSuccess, domain.OutcomeRetriedSucceeded:
		eng.log.Debug("item checked",
			"item", item.ID,
			"product_key", item.ProductKey,
			"outcome", string(res.Outcome),
			"attempts", res.Attempts,
		)
	default:
		eng.log.Warn("item check failed",
			"item", item.ID,
			"product_key", item.ProductKey,
			"outcome", string(res.Outcome),
			"attempts", res.Attempts,
			"error", res.Error,
		)
	}
}

func displayName(item *domain.TrackedItem) string {
	if item.Name != "" {
		return item.Name
	}
	return item.ProductKey
}
