// Package pipeline assembles the daily slate artifact from the odds, team
// rate, starter and schedule sources.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
	"github.com/dawg2324/moneypuck-mirror/internal/rest"
	"github.com/dawg2324/moneypuck-mirror/internal/teams"
)

// Source status keys recorded on the slate.
const (
	StatusOdds     = "odds_api"
	StatusTeams    = "moneypuck_teams"
	StatusStarters = "starters_dailyfaceoff"
	StatusRest     = "rest_nhle"
)

// Sources groups the collaborators a build reads from. Starters may be nil.
type Sources struct {
	Odds     domain.OddsSource
	Rates    domain.TeamRateSource
	Starters domain.StarterFetcher
}

// pageURLer is implemented by starter fetchers that can name the page they
// read, so failures can be reported with it.
type pageURLer interface {
	PageURL(dateET string) string
}

// Builder produces a domain.Slate for one Eastern date.
type Builder struct {
	sources Sources
	rest    *rest.Engine
	now     func() time.Time
	logger  *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(sources Sources, restEngine *rest.Engine, logger *slog.Logger) *Builder {
	return &Builder{
		sources: sources,
		rest:    restEngine,
		now:     time.Now,
		logger:  logger.With(slog.String("component", "pipeline")),
	}
}

// Build fetches every source concurrently, keeps the games played on dateET,
// computes rest for them and records what each source delivered. Only an odds
// failure is fatal; other sources degrade to empty data with ok=false status.
func (b *Builder) Build(ctx context.Context, runID, dateET string) (*domain.Slate, error) {
	slate := &domain.Slate{
		SchemaVersion:  domain.SlateSchemaVersion,
		RunID:          runID,
		DataDateET:     dateET,
		GeneratedAtUTC: b.now().UTC().Truncate(time.Second),
		OddsCurrent:    []domain.MarketGame{},
		Teams:          []domain.TeamRate{},
		GameRest:       []domain.GameRest{},
		Starters:       []domain.Starter{},
		SourceStatus:   make(map[string]domain.SourceStatus),
		Validations:    make(map[string]any),
	}

	var (
		allGames []domain.MarketGame
		dropped  []string
		rates    []domain.TeamRate
		starters []domain.Starter
		ratesErr error
		startErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		allGames, dropped, err = b.sources.Odds.FetchGames(gctx)
		if err != nil {
			return fmt.Errorf("pipeline: fetch odds: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		rates, ratesErr = b.sources.Rates.FetchTeamRates(gctx)
		return nil
	})
	if b.sources.Starters != nil {
		g.Go(func() error {
			starters, startErr = b.sources.Starters.FetchStarters(gctx, dateET)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slate.SetStatus(StatusOdds, false, map[string]any{"error": err.Error()})
		return slate, err
	}

	for _, game := range allGames {
		if teams.DateET(game.CommenceTime) == dateET {
			slate.OddsCurrent = append(slate.OddsCurrent, game)
		}
	}
	oddsMeta := map[string]any{"count": len(slate.OddsCurrent), "total_events": len(allGames)}
	if len(dropped) > 0 {
		oddsMeta["dropped"] = dropped
	}
	slate.SetStatus(StatusOdds, true, oddsMeta)
	if len(slate.OddsCurrent) == 0 {
		b.logger.WarnContext(ctx, "pipeline: no games on slate", slog.String("date_et", dateET))
	}

	if ratesErr != nil {
		b.logger.WarnContext(ctx, "pipeline: team rates unavailable", slog.String("error", ratesErr.Error()))
		slate.SetStatus(StatusTeams, false, map[string]any{"error": ratesErr.Error()})
	} else {
		slate.Teams = rates
		slate.SetStatus(StatusTeams, true, map[string]any{"count": len(rates)})
	}

	if b.sources.Starters != nil {
		meta := map[string]any{}
		if p, ok := b.sources.Starters.(pageURLer); ok {
			meta["url"] = p.PageURL(dateET)
		}
		if startErr != nil {
			b.logger.WarnContext(ctx, "pipeline: starters unavailable", slog.String("error", startErr.Error()))
			meta["error"] = startErr.Error()
			slate.SetStatus(StatusStarters, false, meta)
		} else {
			slate.Starters = append(slate.Starters, starters...)
			meta["count"] = len(starters)
			slate.SetStatus(StatusStarters, true, meta)
		}
	}

	slate.GameRest = b.rest.Slate(ctx, slate.OddsCurrent)
	stats := b.rest.Stats()
	missing := 0
	for _, r := range slate.GameRest {
		if r.AwayRestMissing {
			missing++
		}
		if r.HomeRestMissing {
			missing++
		}
	}
	restMeta := map[string]any{
		"count":         len(slate.GameRest),
		"fetches":       stats.Fetches,
		"cache_hits":    stats.Hits,
		"failures":      stats.Failures,
		"missing_sides": missing,
	}
	if len(stats.Failed) > 0 {
		restMeta["failed_keys"] = stats.Failed
	}
	slate.SetStatus(StatusRest, stats.Failures == 0, restMeta)

	b.validate(slate)

	b.logger.InfoContext(ctx, "pipeline: slate built",
		slog.String("run_id", runID),
		slog.String("date_et", dateET),
		slog.Int("games", len(slate.OddsCurrent)),
		slog.Int("teams", len(slate.Teams)),
		slog.Int("starters", len(slate.Starters)),
		slog.Int("rest_missing_sides", missing),
	)
	return slate, nil
}

func (b *Builder) validate(s *domain.Slate) {
	v := s.Validations
	v["odds_games_count"] = len(s.OddsCurrent)
	v["teams_count"] = len(s.Teams)
	v["game_rest_count"] = len(s.GameRest)
	v["starters_count"] = len(s.Starters)

	if err := ValidateStarters(s.Starters); err != nil {
		v["starters_schema_ok"] = false
		v["starters_schema_error"] = err.Error()
	} else {
		v["starters_schema_ok"] = true
	}

	rates := s.RateTable()
	seen := make(map[string]bool)
	missing := []string{}
	for _, g := range s.OddsCurrent {
		for _, abbr := range []string{g.AwayAbbrev, g.HomeAbbrev} {
			if _, ok := rates[abbr]; !ok && !seen[abbr] {
				seen[abbr] = true
				missing = append(missing, abbr)
			}
		}
	}
	sort.Strings(missing)
	v["teams_missing_rates"] = missing
}

// ValidateStarters checks the fields every starter entry must carry.
func ValidateStarters(starters []domain.Starter) error {
	var errs []error
	for i, s := range starters {
		if s.GameKey == "" || s.DateET == "" {
			errs = append(errs, fmt.Errorf("starters[%d] missing game_key or date_et", i))
		}
		sides := []struct {
			name string
			side domain.StarterSide
		}{{"away", s.Away}, {"home", s.Home}}
		for _, sd := range sides {
			if sd.side.Team == "" || sd.side.Goalie == "" {
				errs = append(errs, fmt.Errorf("starters[%d].%s missing team or goalie", i, sd.name))
			}
			if sd.side.Status != domain.StarterConfirmed && sd.side.Status != domain.StarterProjected {
				errs = append(errs, fmt.Errorf("starters[%d].%s.status must be confirmed|projected", i, sd.name))
			}
		}
		if s.Source.Site != "dailyfaceoff" {
			errs = append(errs, fmt.Errorf("starters[%d].source.site must be dailyfaceoff", i))
		}
		if s.Source.URL == "" {
			errs = append(errs, fmt.Errorf("starters[%d].source missing url", i))
		}
		if len(errs) > 0 {
			break
		}
	}
	return errors.Join(errs...)
}

// RestTable fetches odds only and returns rest rows for the games on dateET.
func (b *Builder) RestTable(ctx context.Context, dateET string) ([]domain.GameRest, error) {
	games, _, err := b.sources.Odds.FetchGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: fetch odds: %w", err)
	}
	var today []domain.MarketGame
	for _, g := range games {
		if teams.DateET(g.CommenceTime) == dateET {
			today = append(today, g)
		}
	}
	if len(today) == 0 {
		return []domain.GameRest{}, nil
	}
	return b.rest.Slate(ctx, today), nil
}
