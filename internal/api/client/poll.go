package client

import (
	"context"
	"time"

	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

// CheckResponse wraps the result of a manual check.
type CheckResponse struct {
	Coalesced bool                `json:"coalesced"`
	Cycle     *domain.CycleResult `json:"cycle"`
}

// CheckNow runs a poll cycle immediately, or attaches to the cycle
// already in flight.
func (c *Client) CheckNow(ctx context.Context) (*CheckResponse, error) {
	var resp CheckResponse
	if err := c.post(ctx, "/api/v1/check", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetInterval returns the current poll interval in seconds.
func (c *Client) GetInterval(ctx context.Context) (int, error) {
	var resp struct {
		Seconds int `json:"seconds"`
	}
	if err := c.get(ctx, "/api/v1/poll/interval", &resp); err != nil {
		return 0, err
	}
	return resp.Seconds, nil
}

// SetIntervalRequest selects the new poll interval: a preset number of
// minutes or a raw seconds value, never both.
type SetIntervalRequest struct {
	Minutes int `json:"minutes,omitempty"`
	Seconds int `json:"seconds,omitempty"`
}

// SetInterval applies a new poll interval and returns the value the
// server accepted, in seconds.
func (c *Client) SetInterval(ctx context.Context, req SetIntervalRequest) (int, error) {
	var resp struct {
		Seconds int `json:"seconds"`
	}
	if err := c.put(ctx, "/api/v1/poll/interval", req, &resp); err != nil {
		return 0, err
	}
	return resp.Seconds, nil
}

// CycleSummary condenses the last poll cycle for the status endpoint.
type CycleSummary struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Manual     bool      `json:"manual"`
	Items      int       `json:"items"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
}

// StatusResponse reports the scheduler and tracking state.
type StatusResponse struct {
	Running         bool          `json:"running"`
	InFlight        bool          `json:"in_flight"`
	IntervalSeconds int           `json:"interval_seconds"`
	NextWakeAt      *time.Time    `json:"next_wake_at,omitempty"`
	ItemsTotal      int           `json:"items_total"`
	ItemsEnabled    int           `json:"items_enabled"`
	LastCycle       *CycleSummary `json:"last_cycle,omitempty"`
}

// Status returns the scheduler status and tracked item counts.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get(ctx, "/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
