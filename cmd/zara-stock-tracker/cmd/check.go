package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/zara-stock-tracker/internal/config"
	"github.com/donaldgifford/zara-stock-tracker/internal/engine"
	"github.com/donaldgifford/zara-stock-tracker/internal/notify"
	"github.com/donaldgifford/zara-stock-tracker/internal/provider/zara"
	"github.com/donaldgifford/zara-stock-tracker/internal/store"
	"github.com/donaldgifford/zara-stock-tracker/pkg/logger"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one poll cycle and exit",
	Long: "Sweeps all enabled items once, records stock and price changes, sends " +
		"any alerts, and exits. Intended for cron-style use without the server.",
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	limiter := zara.NewRateLimiter(
		cfg.Zara.RequestsPerMinute,
		cfg.Poll.Concurrency,
		cfg.Zara.DailyLimit,
	)
	zaraClient := zara.New(
		zara.WithBaseURL(cfg.Zara.BaseURL),
		zara.WithUserAgent(cfg.Zara.UserAgent),
		zara.WithHTTPClient(&http.Client{Timeout: cfg.Zara.Timeout()}),
		zara.WithRateLimiter(limiter),
		zara.WithLogger(log.With("component", "zara")),
	)

	disp := notify.NewDispatcher(buildNotifiers(cfg, log),
		notify.WithQueueSize(cfg.Notify.QueueSize),
		notify.WithSendTimeout(cfg.Notify.Timeout()),
		notify.WithDispatcherLogger(log.With("component", "notify")),
	)
	disp.Start()

	eng := engine.New(st, zaraClient, disp,
		engine.WithLogger(log.With("component", "engine")),
		engine.WithConcurrency(cfg.Poll.Concurrency),
		engine.WithRetries(cfg.Poll.Retries),
		engine.WithBackoffBase(cfg.Poll.BackoffBase()),
		engine.WithCycleTimeout(cfg.Poll.CycleTimeout()),
		engine.WithNotifyOnOutOfStock(cfg.Notify.OnOutOfStock),
	)

	cycle, err := eng.RunCycle(ctx)

	// Queued alerts go out before the process exits.
	disp.Stop()

	if err != nil {
		return fmt.Errorf("running cycle: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tSIZE\tOUTCOME\tATTEMPTS\tCHANGE")
	for i := range cycle.Results {
		r := &cycle.Results[i]
		change := "-"
		if r.Transition != nil {
			change = string(r.Transition.Kind)
		}
		if r.Error != "" {
			change = r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			r.ProductKey, r.TargetSize, r.Outcome, r.Attempts, change)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d checked, %d succeeded, %d failed in %s\n",
		len(cycle.Results),
		cycle.Succeeded(),
		cycle.Failed(),
		cycle.FinishedAt.Sub(cycle.StartedAt).Round(time.Millisecond),
	)
	return nil
}
