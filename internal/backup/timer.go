package backup

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Timer runs backups on a fixed schedule, independent of the poll
// scheduler. A failed run is logged and does not move the next attempt.
type Timer struct {
	cron    *cron.Cron
	manager *Manager
	log     *slog.Logger
}

// NewTimer creates a Timer that runs the manager every interval.
func NewTimer(m *Manager, interval time.Duration, log *slog.Logger) (*Timer, error) {
	c := cron.New()

	t := &Timer{
		cron:    c,
		manager: m,
		log:     log,
	}

	if _, err := c.AddFunc("@every "+interval.String(), t.run); err != nil {
		return nil, err
	}
	return t, nil
}

// Start begins running scheduled backups.
func (t *Timer) Start() {
	t.log.Info("backup timer started")
	t.cron.Start()
}

// Stop stops scheduling and returns a context that closes when a running
// backup, if any, finishes.
func (t *Timer) Stop() context.Context {
	t.log.Info("backup timer stopping")
	return t.cron.Stop()
}

func (t *Timer) run() {
	if _, err := t.manager.Run(context.Background()); err != nil {
		t.log.Error("scheduled backup failed", "error", err)
	}
}
