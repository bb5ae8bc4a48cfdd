package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

func TestBuildFiltersToDateAndComputesRest(t *testing.T) {
	b := newTestBuilder(
		&fakeOdds{games: slateGames(), dropped: []string{"unknown team \"Nowhere FC\""}},
		&fakeRates{rates: slateRates()},
		&fakeStarters{starters: []domain.Starter{validStarter()}},
		slateSchedule(),
	)

	slate, err := b.Build(context.Background(), "run-1", slateDate)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if slate.SchemaVersion != domain.SlateSchemaVersion || slate.RunID != "run-1" || slate.DataDateET != slateDate {
		t.Errorf("header = %q %q %q", slate.SchemaVersion, slate.RunID, slate.DataDateET)
	}
	if len(slate.OddsCurrent) != 1 || slate.OddsCurrent[0].GameKey != "BOS_vs_TOR_2025-01-15" {
		t.Fatalf("OddsCurrent = %+v", slate.OddsCurrent)
	}
	if len(slate.GameRest) != 1 {
		t.Fatalf("GameRest len = %d", len(slate.GameRest))
	}
	r := slate.GameRest[0]
	if r.HomeRestDays != 1 || r.AwayRestDays != 0 || !r.AwayBackToBack || r.RestAdvantageHome != 1 {
		t.Errorf("rest = %+v", r)
	}

	odds := slate.SourceStatus[StatusOdds]
	if !odds.OK || odds.Meta["count"] != 1 || odds.Meta["total_events"] != 2 {
		t.Errorf("odds status = %+v", odds)
	}
	if _, ok := odds.Meta["dropped"]; !ok {
		t.Error("dropped games not recorded")
	}
	if !slate.SourceStatus[StatusTeams].OK || !slate.SourceStatus[StatusStarters].OK {
		t.Errorf("status = %+v", slate.SourceStatus)
	}
	rs := slate.SourceStatus[StatusRest]
	if !rs.OK || rs.Meta["missing_sides"] != 0 {
		t.Errorf("rest status = %+v", rs)
	}

	v := slate.Validations
	if v["starters_schema_ok"] != true || v["odds_games_count"] != 1 || v["game_rest_count"] != 1 {
		t.Errorf("validations = %+v", v)
	}
	if missing, _ := v["teams_missing_rates"].([]string); len(missing) != 0 {
		t.Errorf("teams_missing_rates = %v", missing)
	}
}

func TestBuildOddsFailureIsFatal(t *testing.T) {
	boom := errors.New("odds down")
	b := newTestBuilder(&fakeOdds{err: boom}, &fakeRates{rates: slateRates()}, nil, slateSchedule())

	slate, err := b.Build(context.Background(), "run-1", slateDate)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want odds error", err)
	}
	if slate == nil || slate.SourceStatus[StatusOdds].OK {
		t.Errorf("odds status not recorded as failed")
	}
}

func TestBuildDegradesSecondarySources(t *testing.T) {
	sched := slateSchedule()
	sched.fail = true
	b := newTestBuilder(
		&fakeOdds{games: slateGames()},
		&fakeRates{err: errors.New("csv 503")},
		&fakeStarters{err: errors.New("page 404")},
		sched,
	)

	slate, err := b.Build(context.Background(), "run-2", slateDate)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	teams := slate.SourceStatus[StatusTeams]
	if teams.OK || !strings.Contains(teams.Meta["error"].(string), "csv 503") {
		t.Errorf("teams status = %+v", teams)
	}
	st := slate.SourceStatus[StatusStarters]
	if st.OK || st.Meta["url"] != "https://www.dailyfaceoff.com/starting-goalies/2025-01-15" {
		t.Errorf("starters status = %+v", st)
	}

	rs := slate.SourceStatus[StatusRest]
	if rs.OK || rs.Meta["missing_sides"] != 2 {
		t.Errorf("rest status = %+v", rs)
	}
	r := slate.GameRest[0]
	if !r.AwayRestMissing || !r.HomeRestMissing || r.RestAdvantageHome != 0 {
		t.Errorf("rest = %+v", r)
	}

	missing, _ := slate.Validations["teams_missing_rates"].([]string)
	if strings.Join(missing, ",") != "BOS,TOR" {
		t.Errorf("teams_missing_rates = %v", missing)
	}
}

func TestValidateStarters(t *testing.T) {
	if err := ValidateStarters([]domain.Starter{validStarter()}); err != nil {
		t.Fatalf("valid starter rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*domain.Starter)
		want   string
	}{
		{"missing key", func(s *domain.Starter) { s.GameKey = "" }, "missing game_key"},
		{"bad status", func(s *domain.Starter) { s.Home.Status = "likely" }, "home.status"},
		{"missing goalie", func(s *domain.Starter) { s.Away.Goalie = "" }, "away missing team or goalie"},
		{"wrong site", func(s *domain.Starter) { s.Source.Site = "other" }, "source.site"},
		{"missing url", func(s *domain.Starter) { s.Source.URL = "" }, "missing url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validStarter()
			tt.mutate(&s)
			err := ValidateStarters([]domain.Starter{s})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestRestTable(t *testing.T) {
	odds := &fakeOdds{games: slateGames()}
	b := newTestBuilder(odds, &fakeRates{}, nil, slateSchedule())

	rows, err := b.RestTable(context.Background(), slateDate)
	if err != nil {
		t.Fatalf("RestTable: %v", err)
	}
	if len(rows) != 1 || rows[0].RestAdvantageHome != 1 {
		t.Errorf("rows = %+v", rows)
	}

	rows, err = b.RestTable(context.Background(), "2025-02-01")
	if err != nil || len(rows) != 0 {
		t.Errorf("empty date: rows = %v, err = %v", rows, err)
	}
}
