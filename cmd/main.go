package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	app "github.com/okian/beatclash/internal/app"
	"github.com/okian/beatclash/internal/config"
	"github.com/okian/beatclash/pkg/logger"
	"github.com/okian/beatclash/pkg/metrics"
)

// Background updater and shutdown constants.
const (
	shutdownTimeout        = 10 * time.Second
	systemMetricsInterval  = 10 * time.Second
	sessionMetricsInterval = 5 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		stop()
		os.Exit(1) //nolint:gocritic // exitAfterDefer: stop is called above
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "session failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

// run plays one session until it finishes or ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	session, err := app.New(ctx, cfg, app.WithLogger(log.Named("session")))
	if err != nil {
		return err
	}
	if err := session.Start(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := session.Stop(shutdownCtx); err != nil {
			log.Error(ctx, "session shutdown failed", logger.Error(err))
		}
		logSessionStats(ctx, session)
	}()

	bgCtx, cancelBg := context.WithCancel(ctx)
	defer cancelBg()

	if cfg.MetricsAddr != "" {
		go func() {
			log.Info(ctx, "serving metrics", logger.String("addr", cfg.MetricsAddr))
			if err := metrics.Serve(bgCtx, cfg.MetricsAddr); err != nil {
				log.Error(ctx, "metrics server failed", logger.Error(err))
			}
		}()
		go startSystemMetricsUpdater(bgCtx)
	}
	go startSessionMetricsUpdater(bgCtx, session)

	err = session.Run(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		log.Info(ctx, "shutting down session...")
		return nil
	}
	return err
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startSessionMetricsUpdater periodically logs session progress.
func startSessionMetricsUpdater(ctx context.Context, session *app.Session) {
	ticker := time.NewTicker(sessionMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logSessionStats(ctx, session)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}

func logSessionStats(ctx context.Context, session *app.Session) {
	st := session.Stats()
	metrics.UpdateFireQueueSize(st.QueueLen)
	logger.Get().Info(ctx, "session progress",
		logger.String("session", st.SessionID),
		logger.String("clock", st.Clock),
		logger.Float64("elapsed", st.Elapsed),
		logger.String("position", st.Position.String()),
		logger.Int("fired", st.Dispatch.Fired),
		logger.Int64("processed", st.Processed),
		logger.Int64("dropped", st.Dropped),
		logger.Any("scores", st.Totals))
}
