package signals

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
	"github.com/dawg2324/moneypuck-mirror/internal/teams"
)

// Config holds the model constants and reporting gates.
type Config struct {
	RestGoalsPerDay float64
	EdgeMinPP       float64
	MLPriceMin      int
	MLPriceMax      int
	MeanFloor       float64
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		RestGoalsPerDay: 0.08,
		EdgeMinPP:       2.0,
		MLPriceMin:      -250,
		MLPriceMax:      250,
		MeanFloor:       0.1,
	}
}

// Skip reasons. Each distinguishes a different cause.
const (
	skipBadKey        = "cannot parse abbrevs from id"
	skipMissingStats  = "missing team stats for %s or %s"
	skipDegenerateML  = "sd<=0 for ML"
	skipMissingTotals = "missing totals line/best"
)

// Engine evaluates a slate of games. It holds no state between calls.
type Engine struct {
	cfg    Config
	loc    *time.Location
	logger *slog.Logger
}

// NewEngine creates an Engine with the given constants.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		loc:    teams.Eastern,
		logger: logger.With(slog.String("component", "signals")),
	}
}

// Generate evaluates every game against the team rate table and the home rest
// advantage table, keyed by game key. Games absent from rest are treated as
// neutral. Both returned signal lists are sorted by descending edge.
func (e *Engine) Generate(games []domain.MarketGame, rates map[string]domain.TeamRate, rest map[string]int) domain.SignalReport {
	rep := domain.SignalReport{
		MoneylineSignals: []domain.Signal{},
		TotalsSignals:    []domain.Signal{},
		Skipped:          []domain.SkipReason{},
	}
	skip := func(key, reason string) {
		rep.Skipped = append(rep.Skipped, domain.SkipReason{GameKey: key, Reason: reason})
	}

	for _, g := range games {
		away, home, err := teams.ParseGameKey(g.GameKey)
		if err != nil {
			skip(g.GameKey, skipBadKey)
			continue
		}
		awayRate, okAway := rates[away]
		homeRate, okHome := rates[home]
		if !okAway || !okHome {
			skip(g.GameKey, fmt.Sprintf(skipMissingStats, away, home))
			continue
		}

		baseHome, baseAway := Means(homeRate, awayRate)
		pHome, err := MoneylineProb(baseHome, baseAway)
		if err != nil {
			skip(g.GameKey, skipDegenerateML)
			continue
		}

		restAdv, restKnown := rest[g.GameKey]
		ev := gameEval{
			game:       g,
			away:       away,
			home:       home,
			timeET:     g.CommenceTime.In(e.loc).Format("3:04 PM") + " ET",
			restAdv:    restAdv,
			restKnown:  restKnown,
			cfg:        e.cfg,
			moneylines: &rep.MoneylineSignals,
			totals:     &rep.TotalsSignals,
		}

		if ml := g.Moneyline; ml != nil {
			ev.moneyline(home, ml.HomePrice, ml.HomeBook, pHome)
			ev.moneyline(away, ml.AwayPrice, ml.AwayBook, 1-pHome)
		}

		t := g.Totals
		if t == nil {
			skip(g.GameKey, skipMissingTotals)
			continue
		}
		homeMean, awayMean := TotalsMeans(baseHome, baseAway, restAdv, e.cfg.RestGoalsPerDay, e.cfg.MeanFloor)
		mu := homeMean + awayMean
		over, under, lineType := TotalsProb(t.Line, mu)
		ev.total("Over", t.Line, t.OverPrice, t.OverBook, over, mu, lineType)
		ev.total("Under", t.Line, t.UnderPrice, t.UnderBook, under, mu, lineType)
	}

	byEdge := func(a, b domain.Signal) int { return cmp.Compare(b.EdgePP, a.EdgePP) }
	slices.SortStableFunc(rep.MoneylineSignals, byEdge)
	slices.SortStableFunc(rep.TotalsSignals, byEdge)

	e.logger.Info("signals: generated",
		slog.Int("games", len(games)),
		slog.Int("moneyline", len(rep.MoneylineSignals)),
		slog.Int("totals", len(rep.TotalsSignals)),
		slog.Int("skipped", len(rep.Skipped)),
	)
	return rep
}

// gameEval carries one game's shared context while its picks are priced.
type gameEval struct {
	game       domain.MarketGame
	away, home string
	timeET     string
	restAdv    int
	restKnown  bool
	cfg        Config

	moneylines *[]domain.Signal
	totals     *[]domain.Signal
}

func (ev gameEval) moneyline(side string, price int, book string, model float64) {
	if book == "" || price < ev.cfg.MLPriceMin || price > ev.cfg.MLPriceMax {
		return
	}
	implied, ok := ImpliedProbFromAmerican(price)
	if !ok {
		return
	}
	edge := EdgePP(model, implied)
	if edge < ev.cfg.EdgeMinPP {
		return
	}
	fair := fairPtr(model)
	*ev.moneylines = append(*ev.moneylines, domain.Signal{
		Market:            domain.SignalMarketMoneyline,
		GameKey:           ev.game.GameKey,
		Pick:              side,
		Price:             price,
		Book:              book,
		ModelProb:         model,
		ImpliedProb:       implied,
		EdgePP:            edge,
		FairPrice:         fair,
		RestAdvantageHome: ev.restAdv,
		Description: fmt.Sprintf("%s %s @ %s | %s ML %d (%s) | model %.1f%% | implied %.1f%% | edge +%.1fpp | fair %s | rest_adv_home %d (rest not applied to ML)",
			ev.timeET, ev.away, ev.home, side, price, book,
			model*100, implied*100, edge, fairText(fair), ev.restAdv),
	})
}

func (ev gameEval) total(pick string, line float64, price int, book string, model, mu float64, lineType string) {
	if book == "" {
		return
	}
	implied, ok := ImpliedProbFromAmerican(price)
	if !ok {
		return
	}
	edge := EdgePP(model, implied)
	if edge < ev.cfg.EdgeMinPP {
		return
	}
	restNote := "rest applied"
	if !ev.restKnown {
		restNote = "rest missing"
	}
	l := line
	fair := fairPtr(model)
	*ev.totals = append(*ev.totals, domain.Signal{
		Market:            domain.SignalMarketTotals,
		GameKey:           ev.game.GameKey,
		Pick:              pick,
		Price:             price,
		Book:              book,
		Line:              &l,
		ModelProb:         model,
		ImpliedProb:       implied,
		EdgePP:            edge,
		FairPrice:         fair,
		MuTotal:           mu,
		RestAdvantageHome: ev.restAdv,
		RestApplied:       ev.restKnown,
		Description: fmt.Sprintf("%s %s @ %s | %s %s %d (%s) | model %.1f%% | implied %.1f%% | edge +%.1fpp | fair %s | mu_total %.2f | line %s | rest_adv_home %d (%s)",
			ev.timeET, ev.away, ev.home, pick, formatLine(line), price, book,
			model*100, implied*100, edge, fairText(fair), mu, lineType, ev.restAdv, restNote),
	})
}

func fairPtr(p float64) *int {
	fair, ok := FairAmericanFromProb(p)
	if !ok {
		return nil
	}
	return &fair
}

func fairText(fair *int) string {
	if fair == nil {
		return "n/a"
	}
	return strconv.Itoa(*fair)
}
