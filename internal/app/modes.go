package app

import (
	"context"
	"log/slog"

	"github.com/dawg2324/moneypuck-mirror/internal/pipeline"
	"github.com/dawg2324/moneypuck-mirror/internal/rest"
	"github.com/dawg2324/moneypuck-mirror/internal/signals"
)

// newOrchestrator assembles the run stages over deps. The rest engine and
// its month cache live for this run only.
func (a *App) newOrchestrator(deps *Dependencies) *pipeline.Orchestrator {
	restEngine := rest.NewEngine(deps.Schedule, rest.Config{
		Lookbacks: a.cfg.Rest.LookbackDays,
		Workers:   a.cfg.Rest.Workers,
	}, a.logger)

	builder := pipeline.NewBuilder(pipeline.Sources{
		Odds:     deps.Odds,
		Rates:    deps.Rates,
		Starters: deps.Starters,
	}, restEngine, a.logger)

	sc := a.cfg.Signals
	engine := signals.NewEngine(signals.Config{
		RestGoalsPerDay: sc.RestGoalsPerDay,
		EdgeMinPP:       sc.EdgeMinPP,
		MLPriceMin:      sc.MLPriceMin,
		MLPriceMax:      sc.MLPriceMax,
		MeanFloor:       sc.MeanFloor,
	}, a.logger)

	out := pipeline.Output{
		Observer:   a.metrics,
		NotifyTopN: a.cfg.Notify.TopN,
		Layout: signals.ReportMeta{
			MinSignals: sc.MinSignals,
			TopN:       sc.TopN,
			MaxSkipped: sc.MaxSkipped,
		},
	}
	if deps.SignalBus != nil {
		out.Bus = deps.SignalBus
		out.Stream = a.cfg.Redis.SignalStream
		out.Channel = a.cfg.Redis.SignalChannel
	}
	if deps.Notifier != nil {
		out.Notifier = deps.Notifier
	}

	store := pipeline.NewArtifactStore(deps.BlobWriter, deps.BlobReader, a.cfg.Output.Prefix)
	return pipeline.NewOrchestrator(builder, engine, store, out, a.logger)
}

// BuildMode assembles and stores the slate without evaluating it.
func (a *App) BuildMode(ctx context.Context, deps *Dependencies, runID, dateET string) error {
	slate, err := a.newOrchestrator(deps).BuildSlate(ctx, runID, dateET)
	if err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "app: slate ready",
		slog.String("run_id", runID),
		slog.Int("games", len(slate.OddsCurrent)),
	)
	return nil
}

// SignalsMode evaluates the slate stored for dateET by an earlier build.
func (a *App) SignalsMode(ctx context.Context, deps *Dependencies, runID, dateET string) error {
	o := a.newOrchestrator(deps)
	slate, err := o.LoadSlate(ctx, dateET)
	if err != nil {
		return err
	}
	_, err = o.Signals(ctx, runID, slate)
	return err
}

// FullMode builds the slate and evaluates it in one pass.
func (a *App) FullMode(ctx context.Context, deps *Dependencies, runID, dateET string) error {
	_, err := a.newOrchestrator(deps).Run(ctx, runID, dateET)
	return err
}

// RestMode computes and stores the rest table for dateET.
func (a *App) RestMode(ctx context.Context, deps *Dependencies, runID, dateET string) error {
	_, err := a.newOrchestrator(deps).RestOnly(ctx, runID, dateET)
	return err
}
