// Package rest reconstructs each team's previous game from a monthly schedule
// source and derives rest days and back-to-back status entering a game.
package rest

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
	"github.com/dawg2324/moneypuck-mirror/internal/teams"
)

// DefaultLookbacks are the lookback windows tried in order, in days.
var DefaultLookbacks = []int{14, 30}

// Config tunes the engine.
type Config struct {
	// Lookbacks are tried in order until one yields a prior game.
	Lookbacks []int
	// Workers bounds concurrent per-game computations in Slate.
	Workers int
}

// Engine computes TeamRest and GameRest records. It is safe for concurrent
// use; the only shared state is the month cache.
type Engine struct {
	cache     *MonthCache
	lookbacks []int
	workers   int
	loc       *time.Location
	logger    *slog.Logger
}

// NewEngine creates an Engine reading schedules from source through a fresh
// MonthCache.
func NewEngine(source domain.ScheduleSource, cfg Config, logger *slog.Logger) *Engine {
	lookbacks := cfg.Lookbacks
	if len(lookbacks) == 0 {
		lookbacks = DefaultLookbacks
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Engine{
		cache:     NewMonthCache(source),
		lookbacks: lookbacks,
		workers:   workers,
		loc:       teams.Eastern,
		logger:    logger.With(slog.String("component", "rest")),
	}
}

// Stats exposes the cache counters so callers can report degraded lookups.
func (e *Engine) Stats() CacheStats {
	return e.cache.Stats()
}

// TeamRest returns the rest record for team entering a game that starts at
// commence. Schedule failures never surface as errors: if no prior game can be
// found the record is marked missing with zero rest and no back-to-back.
func (e *Engine) TeamRest(ctx context.Context, team string, commence time.Time) domain.TeamRest {
	target := commence.In(e.loc)
	gameDay := civilDay(target)

	for _, lookback := range e.lookbacks {
		prev, ok := e.latestBefore(ctx, team, target, e.candidateMonths(gameDay, lookback))
		if !ok {
			continue
		}
		prevDay := civilDay(prev.In(e.loc))
		restDays := daysBetween(prevDay, gameDay) - 1
		if restDays < 0 {
			restDays = 0
		}
		return domain.TeamRest{
			RestDays:         restDays,
			BackToBack:       restDays == 0,
			PreviousGameDate: prevDay.Format(time.DateOnly),
		}
	}

	return domain.TeamRest{MissingPreviousGame: true}
}

// GameRest computes both teams' rest for one game. The home rest advantage
// is zero when either side is missing.
func (e *Engine) GameRest(ctx context.Context, gameKey, away, home string, commence time.Time) domain.GameRest {
	awayRest := e.TeamRest(ctx, away, commence)
	homeRest := e.TeamRest(ctx, home, commence)

	adv := 0
	if !awayRest.MissingPreviousGame && !homeRest.MissingPreviousGame {
		adv = homeRest.RestDays - awayRest.RestDays
	}

	return domain.GameRest{
		GameKey:           gameKey,
		DateET:            teams.DateET(commence),
		AwayTeam:          away,
		HomeTeam:          home,
		AwayRestDays:      awayRest.RestDays,
		HomeRestDays:      homeRest.RestDays,
		AwayBackToBack:    awayRest.BackToBack,
		HomeBackToBack:    homeRest.BackToBack,
		AwayRestMissing:   awayRest.MissingPreviousGame,
		HomeRestMissing:   homeRest.MissingPreviousGame,
		RestAdvantageHome: adv,
	}
}

// Slate computes GameRest for every game, in input order. Games run
// concurrently up to the configured worker count.
func (e *Engine) Slate(ctx context.Context, games []domain.MarketGame) []domain.GameRest {
	out := make([]domain.GameRest, len(games))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, game := range games {
		g.Go(func() error {
			out[i] = e.GameRest(gctx, game.GameKey, game.AwayAbbrev, game.HomeAbbrev, game.CommenceTime)
			return nil
		})
	}
	_ = g.Wait()

	stats := e.cache.Stats()
	e.logger.InfoContext(ctx, "rest: slate computed",
		slog.Int("games", len(games)),
		slog.Int64("fetches", stats.Fetches),
		slog.Int64("cache_hits", stats.Hits),
		slog.Int64("failures", stats.Failures),
	)
	return out
}

// candidateMonths returns the months covering [gameDay-lookback, gameDay],
// sorted, without the months in between.
func (e *Engine) candidateMonths(gameDay time.Time, lookback int) []string {
	cur := gameDay.Format("2006-01")
	start := gameDay.AddDate(0, 0, -lookback).Format("2006-01")
	if start == cur {
		return []string{cur}
	}
	months := []string{start, cur}
	sort.Strings(months)
	return months
}

// latestBefore returns the start of the team's latest game strictly before
// target across the given months. Fetch failures are logged and skipped.
func (e *Engine) latestBefore(ctx context.Context, team string, target time.Time, months []string) (time.Time, bool) {
	var (
		best  time.Time
		found bool
	)
	for _, ym := range months {
		games, err := e.cache.Get(ctx, MonthKey{Team: team, YearMonth: ym})
		if err != nil {
			e.logger.WarnContext(ctx, "rest: schedule fetch failed",
				slog.String("team", team),
				slog.String("month", ym),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, g := range games {
			if g.StartUTC.IsZero() || !g.Involves(team) {
				continue
			}
			if !g.StartUTC.Before(target) {
				continue
			}
			if !found || g.StartUTC.After(best) {
				best = g.StartUTC
				found = true
			}
		}
	}
	return best, found
}

// civilDay truncates t to midnight of its calendar date, represented in UTC
// so day arithmetic is unaffected by DST transitions.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
