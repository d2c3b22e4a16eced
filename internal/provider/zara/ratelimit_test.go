package zara_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/zara-stock-tracker/internal/provider/zara"
)

func TestRateLimiter_Wait(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		perMinute int
		burst     int
		daily     int64
		calls     int
		wantErr   bool
	}{
		{
			name:      "allows calls within rate",
			perMinute: 6000,
			burst:     10,
			daily:     5000,
			calls:     3,
		},
		{
			name:      "allows burst",
			perMinute: 6000,
			burst:     5,
			daily:     5000,
			calls:     5,
		},
		{
			name:      "rejects when daily limit reached",
			perMinute: 6000,
			burst:     10,
			daily:     2,
			calls:     3,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rl := zara.NewRateLimiter(tt.perMinute, tt.burst, tt.daily)

			var lastErr error
			for range tt.calls {
				lastErr = rl.Wait(context.Background())
				if lastErr != nil {
					break
				}
			}

			if tt.wantErr {
				require.ErrorIs(t, lastErr, zara.ErrDailyLimitReached)
			} else {
				require.NoError(t, lastErr)
			}
		})
	}
}

func TestRateLimiter_DailyCount(t *testing.T) {
	t.Parallel()

	rl := zara.NewRateLimiter(6000, 10, 5000)

	assert.Equal(t, int64(0), rl.DailyCount())
	assert.Equal(t, int64(5000), rl.Remaining())

	require.NoError(t, rl.Wait(context.Background()))
	assert.Equal(t, int64(1), rl.DailyCount())
	assert.Equal(t, int64(4999), rl.Remaining())
}

func TestRateLimiter_WindowReset(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	currentTime := start

	rl := zara.NewRateLimiter(
		6000, 10, 5000,
		zara.WithRateLimiterNowFunc(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return currentTime
		}),
	)

	require.NoError(t, rl.Wait(context.Background()))
	require.NoError(t, rl.Wait(context.Background()))
	assert.Equal(t, int64(2), rl.DailyCount())
	assert.Equal(t, start.Add(24*time.Hour), rl.ResetAt())

	// Same window: counter keeps accumulating.
	mu.Lock()
	currentTime = start.Add(12 * time.Hour)
	mu.Unlock()

	require.NoError(t, rl.Wait(context.Background()))
	assert.Equal(t, int64(3), rl.DailyCount())

	// Past the 24-hour window: counter resets on the next call.
	mu.Lock()
	currentTime = start.Add(24*time.Hour + time.Minute)
	mu.Unlock()

	require.NoError(t, rl.Wait(context.Background()))
	assert.Equal(t, int64(1), rl.DailyCount())
}

func TestRateLimiter_ContextCanceled(t *testing.T) {
	t.Parallel()

	// One request per minute, burst 1: the second Wait must block.
	rl := zara.NewRateLimiter(1, 1, 5000)

	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rl.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter wait")
}
