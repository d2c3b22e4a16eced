package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/donaldgifford/zara-stock-tracker/internal/metrics"
	"github.com/donaldgifford/zara-stock-tracker/internal/store"
	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

// SettingPollInterval is the settings key under which the chosen poll
// interval survives restarts.
const SettingPollInterval = "poll_interval_seconds"

// MinInterval is the shortest poll interval the scheduler accepts.
const MinInterval = 10 * time.Second

// defaultStartupDelay postpones the run-on-start cycle so the process can
// finish coming up before the first upstream sweep.
const defaultStartupDelay = 10 * time.Second

var (
	// ErrNotRunning is returned by commands sent to a scheduler that has
	// not been started or has already stopped.
	ErrNotRunning = errors.New("scheduler is not running")

	// ErrInvalidInterval is returned for intervals outside the accepted
	// options.
	ErrInvalidInterval = errors.New("invalid poll interval")
)

// intervalMinuteOptions are the preset choices offered by the dashboard.
var intervalMinuteOptions = map[int]bool{1: true, 5: true, 15: true, 30: true}

// IntervalFromOption converts a user-facing interval choice into a
// duration: either one of the preset minute options (1, 5, 15, 30) or a
// raw seconds value of at least MinInterval. Exactly one of the two must
// be given.
func IntervalFromOption(minutes, seconds int) (time.Duration, error) {
	switch {
	case minutes != 0 && seconds != 0:
		return 0, fmt.Errorf("%w: give minutes or seconds, not both", ErrInvalidInterval)
	case minutes != 0:
		if !intervalMinuteOptions[minutes] {
			return 0, fmt.Errorf("%w: minutes must be one of 1, 5, 15, 30 (got %d)", ErrInvalidInterval, minutes)
		}
		return time.Duration(minutes) * time.Minute, nil
	case seconds != 0:
		if seconds < int(MinInterval/time.Second) {
			return 0, fmt.Errorf("%w: seconds must be at least %d (got %d)",
				ErrInvalidInterval, int(MinInterval/time.Second), seconds)
		}
		return time.Duration(seconds) * time.Second, nil
	default:
		return 0, fmt.Errorf("%w: no interval given", ErrInvalidInterval)
	}
}

// CycleRunner runs one full poll sweep. *Engine implements it.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*domain.CycleResult, error)
}

// SettingsStore persists the poll interval across restarts.
// *store.SQLiteStore implements it.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key string, value string) error
}

// checkNowCmd asks the loop to run a cycle immediately.
type checkNowCmd struct {
	reply chan checkNowResult
}

type checkNowResult struct {
	cycle *domain.CycleResult
	err   error
}

// setIntervalCmd changes the interval used at the next re-arm.
type setIntervalCmd struct {
	interval time.Duration
	reply    chan error
}

// Scheduler drives poll cycles from a single goroutine. The timer re-arms
// after each cycle completes, so cycles never overlap, and actions that
// used to poke shared state (check now, set interval) arrive as commands
// on one control channel instead.
//
// Lifecycle is Start once, Stop once; a stopped scheduler stays stopped.
type Scheduler struct {
	runner   CycleRunner
	settings SettingsStore
	log      *slog.Logger

	runOnStart   bool
	startupDelay time.Duration

	commands chan any
	stop     chan struct{}
	done     chan struct{}

	mu        sync.Mutex
	running   bool
	stopping  bool
	interval  time.Duration
	inFlight  bool
	cycleDone chan struct{}
	lastCycle *domain.CycleResult
	nextWake  time.Time
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets the scheduler logger.
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.log = l
	}
}

// WithSettingsStore persists interval changes and lets a stored interval
// override the configured one at startup.
func WithSettingsStore(ss SettingsStore) SchedulerOption {
	return func(s *Scheduler) {
		s.settings = ss
	}
}

// WithRunOnStart schedules the first cycle shortly after Start instead of
// waiting a full interval.
func WithRunOnStart(enabled bool) SchedulerOption {
	return func(s *Scheduler) {
		s.runOnStart = enabled
	}
}

// WithStartupDelay overrides the delay before a run-on-start cycle.
func WithStartupDelay(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.startupDelay = d
		}
	}
}

// NewScheduler creates a scheduler that runs cycles every interval.
func NewScheduler(runner CycleRunner, interval time.Duration, opts ...SchedulerOption) (*Scheduler, error) {
	if interval < MinInterval {
		return nil, fmt.Errorf("%w: %s is below the %s minimum", ErrInvalidInterval, interval, MinInterval)
	}

	s := &Scheduler{
		runner:       runner,
		log:          slog.Default(),
		interval:     interval,
		startupDelay: defaultStartupDelay,
		commands:     make(chan any),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start launches the scheduling loop. A poll interval persisted through
// SetInterval overrides the configured one. ctx cancellation abandons
// in-flight fetches; Stop waits for the loop to exit cleanly.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler already started")
	}
	if s.stopping {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = true
	s.mu.Unlock()

	s.loadPersistedInterval(ctx)

	go s.loop(ctx)
	s.log.Info("scheduler started", "interval", s.Interval().String(), "run_on_start", s.runOnStart)
	return nil
}

// Stop halts the loop and blocks until it exits. A cycle in flight
// finishes (or is abandoned through the Start context) first. The
// scheduler cannot be restarted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running || s.stopping {
		s.mu.Unlock()
		return
	}
	s.stopping = true
	s.mu.Unlock()

	close(s.stop)
	<-s.done

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.log.Info("scheduler stopped")
}

// CheckNow runs a poll cycle immediately. When a cycle is already in
// flight the request coalesces: it waits for that cycle instead of
// starting another. The bool result reports whether it coalesced.
func (s *Scheduler) CheckNow(ctx context.Context) (*domain.CycleResult, bool, error) {
	s.mu.Lock()
	if !s.running || s.stopping {
		s.mu.Unlock()
		return nil, false, ErrNotRunning
	}
	if s.inFlight {
		done := s.cycleDone
		s.mu.Unlock()

		metrics.CheckNowCoalescedTotal.Inc()
		s.log.Info("check now coalesced with in-flight cycle")

		select {
		case <-done:
			return s.LastCycle(), true, nil
		case <-ctx.Done():
			return nil, true, ctx.Err()
		}
	}
	s.mu.Unlock()

	cmd := checkNowCmd{reply: make(chan checkNowResult, 1)}
	select {
	case s.commands <- cmd:
	case <-s.done:
		return nil, false, ErrNotRunning
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}

	select {
	case res := <-cmd.reply:
		return res.cycle, false, res.err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// SetInterval validates, persists, and applies a new poll interval. The
// currently armed wake keeps its schedule; the new interval takes effect
// when the timer next re-arms.
func (s *Scheduler) SetInterval(ctx context.Context, d time.Duration) error {
	if d < MinInterval {
		return fmt.Errorf("%w: %s is below the %s minimum", ErrInvalidInterval, d, MinInterval)
	}

	s.mu.Lock()
	if !s.running || s.stopping {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.mu.Unlock()

	cmd := setIntervalCmd{interval: d, reply: make(chan error, 1)}
	select {
	case s.commands <- cmd:
	case <-s.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Interval returns the current poll interval.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && !s.stopping
}

// InFlight reports whether a cycle is currently running.
func (s *Scheduler) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// LastCycle returns the most recently completed cycle, nil before the
// first one.
func (s *Scheduler) LastCycle() *domain.CycleResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCycle
}

// NextWakeAt returns when the timer will next fire. While a cycle is in
// flight it reports the wake that started it.
func (s *Scheduler) NextWakeAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextWake
}

// loop owns the timer and is the only goroutine that runs cycles.
func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	first := s.Interval()
	if s.runOnStart {
		first = s.startupDelay
	}
	timer := time.NewTimer(first)
	defer timer.Stop()
	s.setNextWake(time.Now().Add(first))

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-timer.C:
			s.runCycle(ctx, false)
			s.rearm(timer)
		case cmd := <-s.commands:
			switch c := cmd.(type) {
			case checkNowCmd:
				cycle, err := s.runCycle(ctx, true)
				// Re-arming also absorbs a timer wake that landed
				// while the manual cycle ran.
				s.rearm(timer)
				c.reply <- checkNowResult{cycle: cycle, err: err}
			case setIntervalCmd:
				c.reply <- s.applyInterval(ctx, c.interval)
			}
		}
	}
}

// runCycle wraps the runner with in-flight bookkeeping so CheckNow can
// coalesce against it.
func (s *Scheduler) runCycle(ctx context.Context, manual bool) (*domain.CycleResult, error) {
	s.mu.Lock()
	s.inFlight = true
	s.cycleDone = make(chan struct{})
	done := s.cycleDone
	s.mu.Unlock()

	trigger := "timer"
	if manual {
		trigger = "manual"
	}
	s.log.Info("poll cycle starting", "trigger", trigger)

	cycle, err := s.runner.RunCycle(ctx)
	if cycle != nil {
		cycle.Manual = manual
	}

	s.mu.Lock()
	s.inFlight = false
	if cycle != nil {
		s.lastCycle = cycle
	}
	s.mu.Unlock()
	close(done)

	if err != nil {
		s.log.Error("poll cycle failed", "trigger", trigger, "error", err)
		return cycle, err
	}

	metrics.PollCyclesTotal.WithLabelValues(trigger).Inc()
	return cycle, nil
}

// rearm schedules the next wake, measured from cycle completion. A fire
// already pending in the timer channel is drained so it cannot start a
// back-to-back cycle.
func (s *Scheduler) rearm(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	d := s.Interval()
	timer.Reset(d)
	s.setNextWake(time.Now().Add(d))
}

// applyInterval persists the new interval first, then applies it, so a
// storage failure never leaves memory and disk disagreeing.
func (s *Scheduler) applyInterval(ctx context.Context, d time.Duration) error {
	if s.settings != nil {
		secs := strconv.Itoa(int(d / time.Second))
		if err := s.settings.PutSetting(ctx, SettingPollInterval, secs); err != nil {
			return fmt.Errorf("persisting poll interval: %w", err)
		}
	}

	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()

	s.log.Info("poll interval updated", "interval", d.String())
	return nil
}

// loadPersistedInterval lets an interval chosen through the API survive a
// restart, overriding the configured default.
func (s *Scheduler) loadPersistedInterval(ctx context.Context) {
	if s.settings == nil {
		return
	}

	v, err := s.settings.GetSetting(ctx, SettingPollInterval)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("reading persisted poll interval", "error", err)
		}
		return
	}

	secs, err := strconv.Atoi(v)
	if err != nil || time.Duration(secs)*time.Second < MinInterval {
		s.log.Warn("ignoring persisted poll interval", "value", v)
		return
	}

	s.mu.Lock()
	s.interval = time.Duration(secs) * time.Second
	s.mu.Unlock()
}

func (s *Scheduler) setNextWake(t time.Time) {
	s.mu.Lock()
	s.nextWake = t
	s.mu.Unlock()
}
