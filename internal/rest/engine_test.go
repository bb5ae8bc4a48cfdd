package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

// fakeSchedule serves canned games per (team, month) and counts calls.
type fakeSchedule struct {
	mu    sync.Mutex
	games map[MonthKey][]domain.ScheduleGame
	fail  map[MonthKey]bool
	calls map[MonthKey]int
}

func newFakeSchedule() *fakeSchedule {
	return &fakeSchedule{
		games: make(map[MonthKey][]domain.ScheduleGame),
		fail:  make(map[MonthKey]bool),
		calls: make(map[MonthKey]int),
	}
}

// add registers a game for both participants at the given UTC start.
func (f *fakeSchedule) add(away, home string, start time.Time) {
	g := domain.ScheduleGame{StartUTC: start, AwayAbbrev: away, HomeAbbrev: home}
	ym := start.In(eastern()).Format("2006-01")
	for _, team := range []string{away, home} {
		k := MonthKey{Team: team, YearMonth: ym}
		f.games[k] = append(f.games[k], g)
	}
}

func (f *fakeSchedule) TeamMonth(_ context.Context, team, yearMonth string) ([]domain.ScheduleGame, error) {
	k := MonthKey{Team: team, YearMonth: yearMonth}
	f.mu.Lock()
	f.calls[k]++
	failing := f.fail[k]
	f.mu.Unlock()
	if failing {
		return nil, errors.New("schedule unavailable")
	}
	return f.games[k], nil
}

func (f *fakeSchedule) callCount(team, ym string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[MonthKey{Team: team, YearMonth: ym}]
}

func eastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
	return loc
}

// et returns 7 PM Eastern on the given date, as UTC.
func et(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 19, 0, 0, 0, eastern()).UTC()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTeamRestBackToBackBoundary(t *testing.T) {
	tests := []struct {
		name     string
		prev     time.Time
		wantDays int
		wantB2B  bool
	}{
		{"previous day", et(2025, 1, 14), 0, true},
		{"two days before", et(2025, 1, 13), 1, false},
		{"four days before", et(2025, 1, 11), 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSchedule()
			src.add("BOS", "TOR", tt.prev)
			eng := NewEngine(src, Config{}, testLogger())

			got := eng.TeamRest(context.Background(), "TOR", et(2025, 1, 15))
			if got.MissingPreviousGame {
				t.Fatal("unexpected missing previous game")
			}
			if got.RestDays != tt.wantDays || got.BackToBack != tt.wantB2B {
				t.Errorf("rest = %d b2b=%v, want %d b2b=%v", got.RestDays, got.BackToBack, tt.wantDays, tt.wantB2B)
			}
			if want := tt.prev.In(eastern()).Format(time.DateOnly); got.PreviousGameDate != want {
				t.Errorf("previous date = %q, want %q", got.PreviousGameDate, want)
			}
		})
	}
}

func TestTeamRestUsesEasternDay(t *testing.T) {
	src := newFakeSchedule()
	// 10 PM ET on Jan 14 is 03:00 UTC on Jan 15; it still counts as Jan 14.
	src.add("NYR", "NJD", time.Date(2025, 1, 14, 22, 0, 0, 0, eastern()).UTC())
	eng := NewEngine(src, Config{}, testLogger())

	got := eng.TeamRest(context.Background(), "NJD", et(2025, 1, 15))
	if !got.BackToBack || got.RestDays != 0 {
		t.Errorf("got %+v, want back-to-back", got)
	}
}

func TestTeamRestMonotonic(t *testing.T) {
	dates := []time.Time{
		et(2025, 1, 2), et(2025, 1, 4), et(2025, 1, 5), et(2025, 1, 9),
		et(2025, 1, 10), et(2025, 1, 16), et(2025, 1, 18),
	}
	src := newFakeSchedule()
	for _, d := range dates {
		src.add("EDM", "CGY", d)
	}
	eng := NewEngine(src, Config{}, testLogger())

	for i := 1; i < len(dates); i++ {
		got := eng.TeamRest(context.Background(), "EDM", dates[i])
		want := int(dates[i].Sub(dates[i-1]).Hours()/24) - 1
		if got.RestDays != want {
			t.Errorf("game %d: rest = %d, want %d", i, got.RestDays, want)
		}
		if got.RestDays < 0 {
			t.Errorf("game %d: negative rest", i)
		}
	}
}

func TestTeamRestMissingFallback(t *testing.T) {
	src := newFakeSchedule()
	eng := NewEngine(src, Config{}, testLogger())

	got := eng.TeamRest(context.Background(), "SEA", et(2025, 2, 1))
	want := domain.TeamRest{MissingPreviousGame: true}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestTeamRestIgnoresSameInstantAndLater(t *testing.T) {
	src := newFakeSchedule()
	target := et(2025, 3, 10)
	src.add("DAL", "MIN", target)
	src.add("DAL", "MIN", et(2025, 3, 12))
	src.add("DAL", "COL", et(2025, 3, 7))
	eng := NewEngine(src, Config{}, testLogger())

	got := eng.TeamRest(context.Background(), "DAL", target)
	if got.PreviousGameDate != "2025-03-07" || got.RestDays != 2 {
		t.Errorf("got %+v, want previous 2025-03-07 with 2 rest days", got)
	}
}

func TestTeamRestCrossesMonthBoundary(t *testing.T) {
	src := newFakeSchedule()
	src.add("PIT", "PHI", et(2025, 1, 29))
	eng := NewEngine(src, Config{}, testLogger())

	got := eng.TeamRest(context.Background(), "PHI", et(2025, 2, 2))
	if got.MissingPreviousGame || got.RestDays != 3 {
		t.Errorf("got %+v, want 3 rest days", got)
	}
	if n := src.callCount("PHI", "2025-01"); n != 1 {
		t.Errorf("January fetched %d times, want 1", n)
	}
}

func TestTeamRestWidensLookback(t *testing.T) {
	// 20 days back falls outside the 14-day months (both February) but the
	// 30-day window reaches into January.
	src := newFakeSchedule()
	src.add("WPG", "VAN", et(2025, 1, 31))
	eng := NewEngine(src, Config{}, testLogger())

	got := eng.TeamRest(context.Background(), "VAN", et(2025, 2, 20))
	if got.MissingPreviousGame {
		t.Fatal("expected wider lookback to find January game")
	}
	if got.RestDays != 19 {
		t.Errorf("rest = %d, want 19", got.RestDays)
	}
}

func TestTeamRestDegradesOnFailure(t *testing.T) {
	src := newFakeSchedule()
	src.add("CHI", "STL", et(2025, 1, 30))
	src.add("CHI", "STL", et(2025, 2, 3))
	src.fail[MonthKey{Team: "STL", YearMonth: "2025-02"}] = true
	eng := NewEngine(src, Config{}, testLogger())

	// February fails; January still answers.
	got := eng.TeamRest(context.Background(), "STL", et(2025, 2, 5))
	if got.MissingPreviousGame || got.PreviousGameDate != "2025-01-30" {
		t.Errorf("got %+v, want fallback to January game", got)
	}

	src.fail[MonthKey{Team: "STL", YearMonth: "2025-01"}] = true
	eng = NewEngine(src, Config{}, testLogger())
	got = eng.TeamRest(context.Background(), "STL", et(2025, 2, 5))
	if !got.MissingPreviousGame || got.RestDays != 0 || got.BackToBack {
		t.Errorf("got %+v, want missing record", got)
	}
	if st := eng.Stats(); st.Failures != 2 {
		t.Errorf("failures = %d, want 2", st.Failures)
	}
}

func TestGameRestAdvantage(t *testing.T) {
	src := newFakeSchedule()
	src.add("BOS", "MTL", et(2025, 1, 14)) // BOS plays yesterday
	src.add("TOR", "OTT", et(2025, 1, 11)) // TOR had three days off
	eng := NewEngine(src, Config{}, testLogger())

	got := eng.GameRest(context.Background(), "BOS_vs_TOR_2025-01-15", "BOS", "TOR", et(2025, 1, 15))
	if got.AwayRestDays != 0 || !got.AwayBackToBack {
		t.Errorf("away rest = %d b2b=%v", got.AwayRestDays, got.AwayBackToBack)
	}
	if got.HomeRestDays != 3 {
		t.Errorf("home rest = %d, want 3", got.HomeRestDays)
	}
	if got.RestAdvantageHome != 3 {
		t.Errorf("advantage = %d, want 3", got.RestAdvantageHome)
	}
	if got.DateET != "2025-01-15" {
		t.Errorf("date = %q", got.DateET)
	}
}

func TestGameRestAdvantageZeroWhenMissing(t *testing.T) {
	src := newFakeSchedule()
	src.add("TOR", "OTT", et(2025, 1, 11))
	eng := NewEngine(src, Config{}, testLogger())

	got := eng.GameRest(context.Background(), "SEA_vs_TOR_2025-01-15", "SEA", "TOR", et(2025, 1, 15))
	if !got.AwayRestMissing {
		t.Fatal("away rest should be missing")
	}
	if got.RestAdvantageHome != 0 {
		t.Errorf("advantage = %d, want 0", got.RestAdvantageHome)
	}
}

func TestSlatePreservesOrderAndReusesCache(t *testing.T) {
	src := newFakeSchedule()
	src.add("BOS", "TOR", et(2025, 1, 12))
	src.add("NYR", "BOS", et(2025, 1, 13))

	games := []domain.MarketGame{
		{GameKey: "a", AwayAbbrev: "BOS", HomeAbbrev: "TOR", CommenceTime: et(2025, 1, 15)},
		{GameKey: "b", AwayAbbrev: "TOR", HomeAbbrev: "NYR", CommenceTime: et(2025, 1, 15)},
		{GameKey: "c", AwayAbbrev: "NYR", HomeAbbrev: "BOS", CommenceTime: et(2025, 1, 16)},
	}
	eng := NewEngine(src, Config{Workers: 3}, testLogger())
	rows := eng.Slate(context.Background(), games)

	if len(rows) != len(games) {
		t.Fatalf("got %d rows, want %d", len(rows), len(games))
	}
	for i, r := range rows {
		if r.GameKey != games[i].GameKey {
			t.Errorf("row %d key = %q, want %q", i, r.GameKey, games[i].GameKey)
		}
	}
	for _, team := range []string{"BOS", "TOR", "NYR"} {
		if n := src.callCount(team, "2025-01"); n != 1 {
			t.Errorf("%s fetched %d times, want 1", team, n)
		}
	}
	if st := eng.Stats(); st.Fetches != 3 || st.Hits != 3 {
		t.Errorf("stats = %+v, want 3 fetches and 3 hits", st)
	}
}
