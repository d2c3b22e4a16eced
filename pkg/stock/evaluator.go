// Package stock classifies stock transitions between consecutive
// observations of a tracked item.
package stock

import (
	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

// Evaluate compares two consecutive snapshots of an item and reports the
// transition of the target size, or nil when nothing alert-worthy
// happened.
//
// The first observation of an item (prev == nil) establishes a baseline
// and never produces a transition, so an item that is already in stock
// when tracking starts does not fire an alert. An unknown current status
// also never produces a transition: a malformed or partial response must
// not look like a restock or a sell-out.
func Evaluate(prev, curr *domain.StockSnapshot, targetSize string) *domain.Transition {
	if prev == nil || curr == nil {
		return nil
	}

	from := prev.StatusFor(targetSize)
	to := curr.StatusFor(targetSize)

	if to == domain.SizeUnknown {
		return nil
	}

	var kind domain.TransitionKind
	switch {
	case !from.Available() && to.Available():
		kind = domain.TransitionBecameAvailable
	case from.Available() && to == domain.SizeOutOfStock:
		kind = domain.TransitionWentOutOfStock
	default:
		// Lateral moves (in_stock <-> low_stock, out_of_stock <->
		// unknown) and no-change observations.
		return nil
	}

	return &domain.Transition{
		ItemID:     curr.ItemID,
		TargetSize: targetSize,
		From:       from,
		To:         to,
		Kind:       kind,
		Price:      curr.Price,
		Currency:   curr.Currency,
		ObservedAt: curr.ObservedAt,
	}
}
