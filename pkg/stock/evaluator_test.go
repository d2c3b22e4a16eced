package stock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

func snap(statuses map[string]domain.SizeStatus) *domain.StockSnapshot {
	return &domain.StockSnapshot{
		ItemID:     "item-1",
		ObservedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Price:      149950,
		Currency:   "TRY",
		Sizes:      statuses,
	}
}

func TestEvaluate_BaselineObservation(t *testing.T) {
	t.Parallel()

	curr := snap(map[string]domain.SizeStatus{"M": domain.SizeInStock})

	got := Evaluate(nil, curr, "M")
	assert.Nil(t, got, "first observation must not alert even when in stock")
}

func TestEvaluate_Transitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		from     domain.SizeStatus
		to       domain.SizeStatus
		wantKind domain.TransitionKind
		wantNil  bool
	}{
		{
			name:     "out of stock to in stock",
			from:     domain.SizeOutOfStock,
			to:       domain.SizeInStock,
			wantKind: domain.TransitionBecameAvailable,
		},
		{
			name:     "out of stock to low stock",
			from:     domain.SizeOutOfStock,
			to:       domain.SizeLowStock,
			wantKind: domain.TransitionBecameAvailable,
		},
		{
			name:     "unknown to in stock",
			from:     domain.SizeUnknown,
			to:       domain.SizeInStock,
			wantKind: domain.TransitionBecameAvailable,
		},
		{
			name:     "in stock to out of stock",
			from:     domain.SizeInStock,
			to:       domain.SizeOutOfStock,
			wantKind: domain.TransitionWentOutOfStock,
		},
		{
			name:     "low stock to out of stock",
			from:     domain.SizeLowStock,
			to:       domain.SizeOutOfStock,
			wantKind: domain.TransitionWentOutOfStock,
		},
		{
			name:    "no change stays quiet",
			from:    domain.SizeInStock,
			to:      domain.SizeInStock,
			wantNil: true,
		},
		{
			name:    "lateral in stock to low stock",
			from:    domain.SizeInStock,
			to:      domain.SizeLowStock,
			wantNil: true,
		},
		{
			name:    "lateral low stock to in stock",
			from:    domain.SizeLowStock,
			to:      domain.SizeInStock,
			wantNil: true,
		},
		{
			name:    "out of stock stays out",
			from:    domain.SizeOutOfStock,
			to:      domain.SizeOutOfStock,
			wantNil: true,
		},
		{
			name:    "in stock to unknown is a no-op",
			from:    domain.SizeInStock,
			to:      domain.SizeUnknown,
			wantNil: true,
		},
		{
			name:    "out of stock to unknown is a no-op",
			from:    domain.SizeOutOfStock,
			to:      domain.SizeUnknown,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prev := snap(map[string]domain.SizeStatus{"M": tt.from})
			curr := snap(map[string]domain.SizeStatus{"M": tt.to})

			got := Evaluate(prev, curr, "M")

			if tt.wantNil {
				assert.Nil(t, got)
				return
			}

			require.NotNil(t, got)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.from, got.From)
			assert.Equal(t, tt.to, got.To)
			assert.Equal(t, "item-1", got.ItemID)
			assert.Equal(t, "M", got.TargetSize)
			assert.Equal(t, int64(149950), got.Price)
			assert.Equal(t, "TRY", got.Currency)
		})
	}
}

func TestEvaluate_SizeMatchingIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	prev := snap(map[string]domain.SizeStatus{"m": domain.SizeOutOfStock})
	curr := snap(map[string]domain.SizeStatus{"m": domain.SizeInStock})

	got := Evaluate(prev, curr, "M")
	require.NotNil(t, got)
	assert.Equal(t, domain.TransitionBecameAvailable, got.Kind)
}

func TestEvaluate_MissingSizeIsUnknown(t *testing.T) {
	t.Parallel()

	prev := snap(map[string]domain.SizeStatus{"M": domain.SizeInStock})
	curr := snap(map[string]domain.SizeStatus{"L": domain.SizeInStock})

	// Target size vanished from the response: current status is unknown,
	// which never produces a transition.
	got := Evaluate(prev, curr, "M")
	assert.Nil(t, got)

	// And a size appearing for the first time alerts only if it is
	// available now and was absent (unknown) before.
	got = Evaluate(curr, snap(map[string]domain.SizeStatus{
		"L": domain.SizeInStock,
		"M": domain.SizeInStock,
	}), "M")
	require.NotNil(t, got)
	assert.Equal(t, domain.TransitionBecameAvailable, got.Kind)
	assert.Equal(t, domain.SizeUnknown, got.From)
}
