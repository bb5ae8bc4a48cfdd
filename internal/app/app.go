// Package app wires the collaborators for one signals run and executes the
// configured mode: build the slate, replay a stored slate into signals, do
// both, or compute the rest table alone.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dawg2324/moneypuck-mirror/internal/config"
	"github.com/dawg2324/moneypuck-mirror/internal/domain"
	"github.com/dawg2324/moneypuck-mirror/internal/metrics"
	"github.com/dawg2324/moneypuck-mirror/internal/teams"
)

// App owns the configuration, the logger and the cleanup functions that run
// in reverse order on Close.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
	metrics *metrics.Recorder
	now     func() time.Time
}

// New creates an App from cfg.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "app")),
		metrics: metrics.NewRecorder(),
		now:     time.Now,
	}
}

// Run wires dependencies, takes the per-date run lock when redis is enabled,
// and executes the configured mode once.
func (a *App) Run(ctx context.Context) error {
	runID := uuid.NewString()
	dateET := a.cfg.DateET
	if dateET == "" {
		dateET = teams.DateET(a.now())
	}
	mode := strings.ToLower(a.cfg.Mode)

	a.logger = a.logger.With(slog.String("run_id", runID), slog.String("date_et", dateET))
	a.logger.InfoContext(ctx, "app: run starting",
		slog.String("mode", mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, dateET, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	if deps.RunLock != nil {
		release, err := deps.RunLock.Acquire(ctx, dateET, runID, a.cfg.Redis.LockTTL.Duration)
		if errors.Is(err, domain.ErrLockHeld) {
			return fmt.Errorf("app: another run for %s is in progress: %w", dateET, err)
		}
		if err != nil {
			return fmt.Errorf("app: run lock: %w", err)
		}
		a.closers = append(a.closers, release)
	}

	start := a.now()
	switch mode {
	case "build":
		err = a.BuildMode(ctx, deps, runID, dateET)
	case "signals":
		err = a.SignalsMode(ctx, deps, runID, dateET)
	case "full":
		err = a.FullMode(ctx, deps, runID, dateET)
	case "rest":
		err = a.RestMode(ctx, deps, runID, dateET)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}

	finished := a.now()
	a.metrics.ObserveRun(mode, finished.Sub(start), finished, err)
	a.pushMetrics(ctx, dateET)

	if err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "app: run complete", slog.Duration("elapsed", finished.Sub(start)))
	return nil
}

// pushMetrics sends the run gauges to the Pushgateway if one is configured.
// A failed push is logged only.
func (a *App) pushMetrics(ctx context.Context, dateET string) {
	mc := a.cfg.Metrics
	if mc.PushgatewayURL == "" {
		return
	}
	timeout := mc.Timeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := a.metrics.Push(pctx, mc.PushgatewayURL, mc.Job, dateET); err != nil {
		a.logger.WarnContext(ctx, "app: metrics push failed", slog.String("error", err.Error()))
	}
}

// Close tears down resources in reverse registration order. Subsequent calls
// are no-ops.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
