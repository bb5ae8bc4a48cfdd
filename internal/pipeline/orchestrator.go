package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
	"github.com/dawg2324/moneypuck-mirror/internal/notify"
	"github.com/dawg2324/moneypuck-mirror/internal/signals"
)

// Notifier delivers a tagged message to the operator's channels.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Observer records run outcomes, e.g. as metrics.
type Observer interface {
	ObserveSlate(s *domain.Slate)
	ObserveReport(rep domain.SignalReport)
}

// Output configures where a finished report goes besides the artifact store.
type Output struct {
	// Bus is optional. When set the report JSON is appended to Stream and
	// published on Channel.
	Bus     domain.SignalBus
	Stream  string
	Channel string

	// Notifier is optional.
	Notifier   Notifier
	NotifyTopN int

	// Observer is optional.
	Observer Observer

	// Layout holds the report list limits; header fields are filled from the
	// slate.
	Layout signals.ReportMeta
}

// Orchestrator runs the stages of one invocation: build the slate, store
// it, generate signals and hand the report to every output.
type Orchestrator struct {
	builder *Builder
	engine  *signals.Engine
	store   *ArtifactStore
	out     Output
	logger  *slog.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(builder *Builder, engine *signals.Engine, store *ArtifactStore, out Output, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		builder: builder,
		engine:  engine,
		store:   store,
		out:     out,
		logger:  logger.With(slog.String("component", "orchestrator")),
	}
}

// BuildSlate assembles and stores the slate for dateET.
func (o *Orchestrator) BuildSlate(ctx context.Context, runID, dateET string) (*domain.Slate, error) {
	slate, err := o.builder.Build(ctx, runID, dateET)
	if err != nil {
		return nil, err
	}
	if o.out.Observer != nil {
		o.out.Observer.ObserveSlate(slate)
	}
	p, err := o.store.SaveSlate(ctx, slate)
	if err != nil {
		return nil, err
	}
	o.logger.InfoContext(ctx, "orchestrator: slate stored",
		slog.String("run_id", runID),
		slog.String("path", p),
	)
	return slate, nil
}

// LoadSlate reads a previously stored slate for dateET.
func (o *Orchestrator) LoadSlate(ctx context.Context, dateET string) (*domain.Slate, error) {
	slate, err := o.store.LoadSlate(ctx, dateET)
	if err != nil {
		return nil, err
	}
	if o.out.Observer != nil {
		o.out.Observer.ObserveSlate(slate)
	}
	return slate, nil
}

// Signals evaluates slate, stores the report and fans it out. Bus and
// notification failures are logged and do not fail the run.
func (o *Orchestrator) Signals(ctx context.Context, runID string, slate *domain.Slate) (domain.SignalReport, error) {
	rep := o.engine.Generate(slate.OddsCurrent, slate.RateTable(), slate.RestTable())
	rep.RunID = runID
	rep.DateET = slate.DataDateET
	if o.out.Observer != nil {
		o.out.Observer.ObserveReport(rep)
	}

	meta := signals.MetaFromSlate(slate)
	meta.MinSignals = o.out.Layout.MinSignals
	meta.TopN = o.out.Layout.TopN
	meta.MaxSkipped = o.out.Layout.MaxSkipped
	md := signals.RenderMarkdown(rep, meta)

	paths, err := o.store.SaveReport(ctx, slate.DataDateET, rep, md)
	if err != nil {
		return rep, err
	}
	o.logger.InfoContext(ctx, "orchestrator: report stored",
		slog.String("run_id", runID),
		slog.Any("paths", paths),
		slog.Int("moneyline", len(rep.MoneylineSignals)),
		slog.Int("totals", len(rep.TotalsSignals)),
		slog.Int("skipped", len(rep.Skipped)),
	)

	o.publish(ctx, rep)

	if o.out.Notifier != nil {
		title, msg := notify.SignalsSummary(rep, o.out.NotifyTopN)
		if err := o.out.Notifier.Notify(ctx, notify.EventSignalsReady, title, msg); err != nil {
			o.logger.WarnContext(ctx, "orchestrator: notify failed", slog.String("error", err.Error()))
		}
	}
	return rep, nil
}

func (o *Orchestrator) publish(ctx context.Context, rep domain.SignalReport) {
	if o.out.Bus == nil {
		return
	}
	payload, err := json.Marshal(rep)
	if err != nil {
		o.logger.ErrorContext(ctx, "orchestrator: marshal report", slog.String("error", err.Error()))
		return
	}
	if o.out.Stream != "" {
		if err := o.out.Bus.StreamAppend(ctx, o.out.Stream, payload); err != nil {
			o.logger.WarnContext(ctx, "orchestrator: stream append failed", slog.String("error", err.Error()))
		}
	}
	if o.out.Channel != "" {
		if err := o.out.Bus.Publish(ctx, o.out.Channel, payload); err != nil {
			o.logger.WarnContext(ctx, "orchestrator: publish failed", slog.String("error", err.Error()))
		}
	}
}

// Run builds the slate for dateET and evaluates it in one pass.
func (o *Orchestrator) Run(ctx context.Context, runID, dateET string) (domain.SignalReport, error) {
	slate, err := o.BuildSlate(ctx, runID, dateET)
	if err != nil {
		o.failed(ctx, runID, dateET, err)
		return domain.SignalReport{}, err
	}
	rep, err := o.Signals(ctx, runID, slate)
	if err != nil {
		o.failed(ctx, runID, dateET, err)
	}
	return rep, err
}

// RestOnly computes and stores the rest table for the games on dateET.
func (o *Orchestrator) RestOnly(ctx context.Context, runID, dateET string) ([]domain.GameRest, error) {
	rows, err := o.builder.RestTable(ctx, dateET)
	if err != nil {
		return nil, err
	}
	p, err := o.store.SaveRest(ctx, dateET, rows)
	if err != nil {
		return rows, err
	}
	for _, r := range rows {
		o.logger.InfoContext(ctx, "orchestrator: rest",
			slog.String("run_id", runID),
			slog.String("game_key", r.GameKey),
			slog.Int("away_rest_days", r.AwayRestDays),
			slog.Int("home_rest_days", r.HomeRestDays),
			slog.Int("rest_advantage_home", r.RestAdvantageHome),
		)
	}
	o.logger.InfoContext(ctx, "orchestrator: rest stored", slog.String("path", p), slog.Int("games", len(rows)))
	return rows, nil
}

func (o *Orchestrator) failed(ctx context.Context, runID, dateET string, cause error) {
	if o.out.Notifier == nil {
		return
	}
	title := fmt.Sprintf("NHL signals %s failed", dateET)
	msg := fmt.Sprintf("run %s: %v", runID, cause)
	if err := o.out.Notifier.Notify(ctx, notify.EventRunFailed, title, msg); err != nil {
		o.logger.WarnContext(ctx, "orchestrator: notify failed", slog.String("error", err.Error()))
	}
}
