package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/zara-stock-tracker/internal/engine"
	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

// Scheduler is the subset of the poll scheduler the API needs.
type Scheduler interface {
	CheckNow(ctx context.Context) (*domain.CycleResult, bool, error)
	Interval() time.Duration
	SetInterval(ctx context.Context, d time.Duration) error
	Running() bool
	InFlight() bool
	LastCycle() *domain.CycleResult
	NextWakeAt() time.Time
}

// ItemCounter provides the tracked item counts shown on the status
// endpoint.
type ItemCounter interface {
	CountItems(ctx context.Context) (total int, enabled int, err error)
}

// PollHandler handles manual checks, poll interval and scheduler status
// requests.
type PollHandler struct {
	sched   Scheduler
	counter ItemCounter
}

// NewPollHandler creates a new PollHandler.
func NewPollHandler(s Scheduler, c ItemCounter) *PollHandler {
	return &PollHandler{sched: s, counter: c}
}

// CheckOutput is the response body for a manual check.
type CheckOutput struct {
	Body struct {
		Coalesced bool                `json:"coalesced" doc:"True when the request attached to a cycle already in flight instead of starting one"`
		Cycle     *domain.CycleResult `json:"cycle"`
	}
}

// Check runs a poll cycle now, or attaches to the one in flight.
func (h *PollHandler) Check(ctx context.Context, _ *struct{}) (*CheckOutput, error) {
	cycle, coalesced, err := h.sched.CheckNow(ctx)
	if err != nil {
		if errors.Is(err, engine.ErrNotRunning) {
			return nil, huma.Error503ServiceUnavailable("scheduler is not running")
		}
		return nil, huma.Error500InternalServerError("check failed: " + err.Error())
	}

	resp := &CheckOutput{}
	resp.Body.Coalesced = coalesced
	resp.Body.Cycle = cycle
	return resp, nil
}

// IntervalOutput is the response body for interval reads and writes.
type IntervalOutput struct {
	Body struct {
		Seconds int `json:"seconds" doc:"Poll interval in seconds"`
	}
}

// GetInterval returns the current poll interval.
func (h *PollHandler) GetInterval(_ context.Context, _ *struct{}) (*IntervalOutput, error) {
	resp := &IntervalOutput{}
	resp.Body.Seconds = int(h.sched.Interval() / time.Second)
	return resp, nil
}

// SetIntervalInput carries the new poll interval: either a preset number
// of minutes or a raw seconds value.
type SetIntervalInput struct {
	Body struct {
		Minutes int `json:"minutes,omitempty" enum:"1,5,15,30" doc:"Preset interval in minutes"`
		Seconds int `json:"seconds,omitempty" minimum:"10" doc:"Custom interval in seconds"`
	}
}

// SetInterval validates and applies a new poll interval. The change is
// persisted and takes effect when the timer next re-arms.
func (h *PollHandler) SetInterval(ctx context.Context, input *SetIntervalInput) (*IntervalOutput, error) {
	d, err := engine.IntervalFromOption(input.Body.Minutes, input.Body.Seconds)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	if err := h.sched.SetInterval(ctx, d); err != nil {
		switch {
		case errors.Is(err, engine.ErrInvalidInterval):
			return nil, huma.Error422UnprocessableEntity(err.Error())
		case errors.Is(err, engine.ErrNotRunning):
			return nil, huma.Error503ServiceUnavailable("scheduler is not running")
		default:
			return nil, huma.Error500InternalServerError("setting interval: " + err.Error())
		}
	}

	resp := &IntervalOutput{}
	resp.Body.Seconds = int(d / time.Second)
	return resp, nil
}

// CycleSummary condenses a cycle result for the status endpoint.
type CycleSummary struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Manual     bool      `json:"manual"`
	Items      int       `json:"items"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
}

// StatusOutput is the response body for the scheduler status endpoint.
type StatusOutput struct {
	Body struct {
		Running         bool          `json:"running"`
		InFlight        bool          `json:"in_flight"`
		IntervalSeconds int           `json:"interval_seconds"`
		NextWakeAt      *time.Time    `json:"next_wake_at,omitempty"`
		ItemsTotal      int           `json:"items_total"`
		ItemsEnabled    int           `json:"items_enabled"`
		LastCycle       *CycleSummary `json:"last_cycle,omitempty"`
	}
}

// Status reports the scheduler and tracking state.
func (h *PollHandler) Status(ctx context.Context, _ *struct{}) (*StatusOutput, error) {
	total, enabled, err := h.counter.CountItems(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("counting items: " + err.Error())
	}

	resp := &StatusOutput{}
	resp.Body.Running = h.sched.Running()
	resp.Body.InFlight = h.sched.InFlight()
	resp.Body.IntervalSeconds = int(h.sched.Interval() / time.Second)
	resp.Body.ItemsTotal = total
	resp.Body.ItemsEnabled = enabled

	if wake := h.sched.NextWakeAt(); !wake.IsZero() && resp.Body.Running {
		w := wake.UTC()
		resp.Body.NextWakeAt = &w
	}

	if cycle := h.sched.LastCycle(); cycle != nil {
		resp.Body.LastCycle = &CycleSummary{
			StartedAt:  cycle.StartedAt,
			FinishedAt: cycle.FinishedAt,
			Manual:     cycle.Manual,
			Items:      len(cycle.Results),
			Succeeded:  cycle.Succeeded(),
			Failed:     cycle.Failed(),
		}
	}

	return resp, nil
}

// RegisterPollRoutes registers check, interval and status endpoints with
// the Huma API.
func RegisterPollRoutes(api huma.API, h *PollHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "check-now",
		Method:      http.MethodPost,
		Path:        "/api/v1/check",
		Summary:     "Run a poll cycle now",
		Description: "Sweeps all enabled items immediately. A request arriving while a cycle is in flight waits for that cycle instead of starting another.",
		Tags:        []string{"poll"},
		Errors:      []int{http.StatusServiceUnavailable, http.StatusInternalServerError},
	}, h.Check)

	huma.Register(api, huma.Operation{
		OperationID: "get-poll-interval",
		Method:      http.MethodGet,
		Path:        "/api/v1/poll/interval",
		Summary:     "Get the poll interval",
		Tags:        []string{"poll"},
	}, h.GetInterval)

	huma.Register(api, huma.Operation{
		OperationID: "set-poll-interval",
		Method:      http.MethodPut,
		Path:        "/api/v1/poll/interval",
		Summary:     "Set the poll interval",
		Description: "Accepts a preset ({\"minutes\": 1|5|15|30}) or a custom value ({\"seconds\": n >= 10}). The change survives restarts and applies at the next timer re-arm.",
		Tags:        []string{"poll"},
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusServiceUnavailable, http.StatusInternalServerError},
	}, h.SetInterval)

	huma.Register(api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Get scheduler status",
		Tags:        []string{"poll"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.Status)
}
