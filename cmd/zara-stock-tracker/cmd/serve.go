package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/zara-stock-tracker/internal/api/handlers"
	"github.com/donaldgifford/zara-stock-tracker/internal/api/middleware"
	"github.com/donaldgifford/zara-stock-tracker/internal/backup"
	"github.com/donaldgifford/zara-stock-tracker/internal/config"
	"github.com/donaldgifford/zara-stock-tracker/internal/engine"
	"github.com/donaldgifford/zara-stock-tracker/internal/notify"
	"github.com/donaldgifford/zara-stock-tracker/internal/provider"
	"github.com/donaldgifford/zara-stock-tracker/internal/provider/zara"
	"github.com/donaldgifford/zara-stock-tracker/internal/store"
	"github.com/donaldgifford/zara-stock-tracker/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and poll scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Upstream storefront client. All fetches go through the outbound
	// rate limiter; poll cycles share cached responses within the TTL.
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
	cached := provider.NewCached(zaraClient, cfg.Cache.TTL())
	cached.StartJanitor(ctx, cfg.Cache.CleanupInterval())

	disp := notify.NewDispatcher(buildNotifiers(cfg, log),
		notify.WithQueueSize(cfg.Notify.QueueSize),
		notify.WithSendTimeout(cfg.Notify.Timeout()),
		notify.WithDispatcherLogger(log.With("component", "notify")),
	)
	disp.Start()

	eng := engine.New(st, cached, disp,
		engine.WithLogger(log.With("component", "engine")),
		engine.WithConcurrency(cfg.Poll.Concurrency),
		engine.WithRetries(cfg.Poll.Retries),
		engine.WithBackoffBase(cfg.Poll.BackoffBase()),
		engine.WithCycleTimeout(cfg.Poll.CycleTimeout()),
		engine.WithNotifyOnOutOfStock(cfg.Notify.OnOutOfStock),
	)

	sched, err := engine.NewScheduler(eng, cfg.Poll.Interval(),
		engine.WithSchedulerLogger(log.With("component", "scheduler")),
		engine.WithSettingsStore(st),
		engine.WithRunOnStart(cfg.Poll.RunOnStart),
	)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	mgr := backup.NewManager(st, cfg.Backup.Dir, cfg.Backup.Retention,
		backup.WithLogger(log.With("component", "backup")))

	var timer *backup.Timer
	if !cfg.Backup.Disabled {
		timer, err = backup.NewTimer(mgr, cfg.Backup.Interval(), log.With("component", "backup"))
		if err != nil {
			return fmt.Errorf("creating backup timer: %w", err)
		}
		timer.Start()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout()
	e.Server.WriteTimeout = cfg.Server.WriteTimeout()

	e.Use(middleware.RequestLog(log.With("component", "http")))
	e.Use(middleware.Recovery(log.With("component", "http")))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(st)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// The product create flow fetches upstream directly so a cached
	// response can never mask a product that has disappeared.
	api := humaecho.New(e, huma.DefaultConfig("Zara Stock Tracker API", Version))
	handlers.RegisterProductRoutes(api,
		handlers.NewProductsHandler(st, zaraClient, cfg.Zara.Country, cfg.Zara.Lang))
	handlers.RegisterPollRoutes(api, handlers.NewPollHandler(sched, st))
	handlers.RegisterBackupRoutes(api, handlers.NewBackupsHandler(mgr))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr, "db", cfg.Database.Path)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	// Stop producers before consumers: the scheduler finishes any cycle
	// in flight, then queued alerts drain before the dispatcher exits.
	sched.Stop()
	if timer != nil {
		<-timer.Stop().Done()
	}
	disp.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// buildNotifiers assembles the configured alert channels, falling back
// to the log-only notifier when none is enabled.
func buildNotifiers(cfg *config.Config, log *slog.Logger) []notify.Notifier {
	var notifiers []notify.Notifier
	if cfg.Notify.Telegram.Enabled {
		notifiers = append(notifiers, notify.NewTelegramNotifier(
			cfg.Notify.Telegram.Token,
			cfg.Notify.Telegram.ChatID,
		))
	}
	if cfg.Notify.Discord.Enabled {
		notifiers = append(notifiers, notify.NewDiscordNotifier(cfg.Notify.Discord.WebhookURL))
	}
	if len(notifiers) == 0 {
		notifiers = append(notifiers, notify.NewNoOpNotifier(log.With("component", "notify")))
	}
	return notifiers
}
