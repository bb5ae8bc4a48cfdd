package signals

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

func sigs(n int) []domain.Signal {
	out := make([]domain.Signal, n)
	for i := range out {
		out[i] = domain.Signal{EdgePP: float64(20 - i), Description: fmt.Sprintf("sig-%d", i)}
	}
	return out
}

func TestRenderMarkdownHeader(t *testing.T) {
	meta := ReportMeta{
		DataDateET:     "2025-01-15",
		GeneratedAtUTC: time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC),
		SchemaVersion:  domain.SlateSchemaVersion,
		OddsCount:      9,
		RestCount:      9,
		TeamsCount:     32,
	}
	out := RenderMarkdown(domain.SignalReport{}, meta)

	wantPrefix := strings.Join([]string{
		"data_date_et: 2025-01-15",
		"generated_at_utc: 2025-01-15T14:30:00Z",
		"schema_version: nhl_daily_slim.v2",
		"",
		"counts: odds_games_slim_count=9, game_rest_count=9, teams_count=32, starters_count=0",
		"starters: No starters posted yet (signals ignore goalie adjustments).",
		"",
		"MONEYLINE SIGNALS",
		"No qualified signals under current thresholds.",
		"",
		"TOTALS SIGNALS",
		"No qualified signals under current thresholds.",
		"",
		"SKIPPED GAMES (short reasons)",
		"None",
		"",
	}, "\n")
	if out != wantPrefix {
		t.Errorf("render:\n%s\nwant:\n%s", out, wantPrefix)
	}
}

func TestRenderMarkdownLists(t *testing.T) {
	rep := domain.SignalReport{
		MoneylineSignals: sigs(12),
		TotalsSignals:    sigs(2),
	}
	for i := 0; i < 30; i++ {
		rep.Skipped = append(rep.Skipped, domain.SkipReason{GameKey: fmt.Sprintf("g%d", i), Reason: "missing totals line/best"})
	}
	out := RenderMarkdown(rep, ReportMeta{StartersCount: 4})

	if !strings.Contains(out, "starters: Starters present; goalie adjustment not applied.") {
		t.Error("missing starters line")
	}
	if !strings.Contains(out, "1) sig-0\n") || !strings.Contains(out, "10) sig-9\n") {
		t.Error("top ten moneyline signals not listed")
	}
	if strings.Contains(out, "11) sig-10") {
		t.Error("listed more than ten signals")
	}

	totals := out[strings.Index(out, "TOTALS SIGNALS"):]
	if !strings.HasPrefix(totals, "TOTALS SIGNALS\nNo qualified signals under current thresholds.\n") {
		t.Errorf("two totals signals should be reported as none:\n%s", totals)
	}

	if !strings.Contains(out, "- g24: missing totals line/best\n") {
		t.Error("25th skip reason missing")
	}
	if strings.Contains(out, "- g25:") {
		t.Error("more than 25 skip reasons listed")
	}
}

func TestRenderMarkdownCustomLimits(t *testing.T) {
	rep := domain.SignalReport{TotalsSignals: sigs(2)}
	out := RenderMarkdown(rep, ReportMeta{MinSignals: 1, TopN: 1})
	if !strings.Contains(out, "TOTALS SIGNALS\n1) sig-0\n\n") {
		t.Errorf("custom limits not applied:\n%s", out)
	}
}

func TestMetaFromSlate(t *testing.T) {
	s := &domain.Slate{
		SchemaVersion: domain.SlateSchemaVersion,
		DataDateET:    "2025-01-15",
		OddsCurrent:   make([]domain.MarketGame, 3),
		GameRest:      make([]domain.GameRest, 2),
		Teams:         make([]domain.TeamRate, 32),
		Starters:      make([]domain.Starter, 1),
	}
	m := MetaFromSlate(s)
	if m.OddsCount != 3 || m.RestCount != 2 || m.TeamsCount != 32 || m.StartersCount != 1 {
		t.Errorf("meta = %+v", m)
	}
}
