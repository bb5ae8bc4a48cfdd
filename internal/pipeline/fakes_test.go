package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
	"github.com/dawg2324/moneypuck-mirror/internal/rest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeOdds struct {
	games   []domain.MarketGame
	dropped []string
	err     error
	calls   int
}

func (f *fakeOdds) FetchGames(context.Context) ([]domain.MarketGame, []string, error) {
	f.calls++
	return f.games, f.dropped, f.err
}

type fakeRates struct {
	rates []domain.TeamRate
	err   error
}

func (f *fakeRates) FetchTeamRates(context.Context) ([]domain.TeamRate, error) {
	return f.rates, f.err
}

type fakeStarters struct {
	starters []domain.Starter
	err      error
}

func (f *fakeStarters) FetchStarters(context.Context, string) ([]domain.Starter, error) {
	return f.starters, f.err
}

func (f *fakeStarters) PageURL(dateET string) string {
	return "https://www.dailyfaceoff.com/starting-goalies/" + dateET
}

// fakeSchedule returns every game of a team whatever month is asked for.
type fakeSchedule struct {
	mu    sync.Mutex
	games map[string][]domain.ScheduleGame
	fail  bool
}

func (f *fakeSchedule) add(away, home string, start time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.games == nil {
		f.games = make(map[string][]domain.ScheduleGame)
	}
	g := domain.ScheduleGame{StartUTC: start, AwayAbbrev: away, HomeAbbrev: home}
	f.games[away] = append(f.games[away], g)
	f.games[home] = append(f.games[home], g)
}

func (f *fakeSchedule) TeamMonth(_ context.Context, team, _ string) ([]domain.ScheduleGame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("schedule down")
	}
	return f.games[team], nil
}

// 7:00 PM ET on Jan 15, 2025.
var puckDrop = time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)

const slateDate = "2025-01-15"

func slateGames() []domain.MarketGame {
	return []domain.MarketGame{
		{
			GameKey:      "BOS_vs_TOR_2025-01-15",
			CommenceTime: puckDrop,
			AwayTeam:     "Boston Bruins",
			HomeTeam:     "Toronto Maple Leafs",
			AwayAbbrev:   "BOS",
			HomeAbbrev:   "TOR",
			Moneyline: &domain.Moneyline{
				HomePrice: 120, HomeBook: "draftkings",
				AwayPrice: -140, AwayBook: "fanduel",
			},
			Totals: &domain.Totals{
				Line: 6.5, OverPrice: -110, OverBook: "fanduel",
				UnderPrice: -110, UnderBook: "betmgm",
			},
		},
		{
			GameKey:      "MIN_vs_NJD_2025-01-16",
			CommenceTime: puckDrop.Add(24 * time.Hour),
			AwayAbbrev:   "MIN",
			HomeAbbrev:   "NJD",
		},
	}
}

func slateRates() []domain.TeamRate {
	return []domain.TeamRate{
		{TeamAbbrev: "BOS", GamesPlayed: 45, XGFPerGame: 2.4, XGAPerGame: 3.0},
		{TeamAbbrev: "TOR", GamesPlayed: 46, XGFPerGame: 3.4, XGAPerGame: 2.8},
	}
}

// slateSchedule gives TOR one day off and puts BOS on a back-to-back.
func slateSchedule() *fakeSchedule {
	s := &fakeSchedule{}
	s.add("TOR", "MTL", time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC)) // Jan 13 ET
	s.add("BOS", "NYR", time.Date(2025, 1, 15, 0, 30, 0, 0, time.UTC)) // Jan 14 ET
	return s
}

func validStarter() domain.Starter {
	return domain.Starter{
		GameKey: "BOS_vs_TOR_2025-01-15",
		DateET:  slateDate,
		Away:    domain.StarterSide{Team: "BOS", Goalie: "Jeremy Swayman", Status: domain.StarterConfirmed},
		Home:    domain.StarterSide{Team: "TOR", Goalie: "Anthony Stolarz", Status: domain.StarterProjected},
		Source:  domain.StarterSource{Site: "dailyfaceoff", URL: "https://www.dailyfaceoff.com/starting-goalies/2025-01-15"},
	}
}

func newTestBuilder(odds domain.OddsSource, rates domain.TeamRateSource, starters domain.StarterFetcher, sched domain.ScheduleSource) *Builder {
	eng := rest.NewEngine(sched, rest.Config{}, quietLogger())
	b := NewBuilder(Sources{Odds: odds, Rates: rates, Starters: starters}, eng, quietLogger())
	b.now = func() time.Time { return time.Date(2025, 1, 15, 15, 0, 0, 0, time.UTC) }
	return b
}

type busMessage struct {
	kind, dest string
	payload    []byte
}

type fakeBus struct {
	msgs []busMessage
	err  error
}

func (f *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	f.msgs = append(f.msgs, busMessage{"publish", channel, payload})
	return f.err
}

func (f *fakeBus) StreamAppend(_ context.Context, stream string, payload []byte) error {
	f.msgs = append(f.msgs, busMessage{"stream", stream, payload})
	return f.err
}

type notice struct{ event, title, message string }

type fakeNotifier struct {
	sent []notice
}

func (f *fakeNotifier) Notify(_ context.Context, event, title, message string) error {
	f.sent = append(f.sent, notice{event, title, message})
	return nil
}
