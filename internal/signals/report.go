package signals

import (
	"fmt"
	"strings"
	"time"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

// ReportMeta carries the artifact header and the report layout limits. Zero
// limits fall back to the defaults.
type ReportMeta struct {
	DataDateET     string
	GeneratedAtUTC time.Time
	SchemaVersion  string
	OddsCount      int
	RestCount      int
	TeamsCount     int
	StartersCount  int

	MinSignals int // lists shorter than this are reported as empty
	TopN       int
	MaxSkipped int
}

const (
	defaultMinSignals = 3
	defaultTopN       = 10
	defaultMaxSkipped = 25
)

// MetaFromSlate fills the header fields from a slate artifact.
func MetaFromSlate(s *domain.Slate) ReportMeta {
	return ReportMeta{
		DataDateET:     s.DataDateET,
		GeneratedAtUTC: s.GeneratedAtUTC,
		SchemaVersion:  s.SchemaVersion,
		OddsCount:      len(s.OddsCurrent),
		RestCount:      len(s.GameRest),
		TeamsCount:     len(s.Teams),
		StartersCount:  len(s.Starters),
	}
}

// RenderMarkdown formats a signal report as the plain-text daily digest.
func RenderMarkdown(rep domain.SignalReport, meta ReportMeta) string {
	minSignals := orDefault(meta.MinSignals, defaultMinSignals)
	topN := orDefault(meta.TopN, defaultTopN)
	maxSkipped := orDefault(meta.MaxSkipped, defaultMaxSkipped)

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("data_date_et: %s", meta.DataDateET)
	line("generated_at_utc: %s", meta.GeneratedAtUTC.UTC().Format(time.RFC3339))
	line("schema_version: %s", meta.SchemaVersion)
	line("")
	line("counts: odds_games_slim_count=%d, game_rest_count=%d, teams_count=%d, starters_count=%d",
		meta.OddsCount, meta.RestCount, meta.TeamsCount, meta.StartersCount)
	if meta.StartersCount == 0 {
		line("starters: No starters posted yet (signals ignore goalie adjustments).")
	} else {
		line("starters: Starters present; goalie adjustment not applied.")
	}
	line("")

	section := func(title string, sigs []domain.Signal) {
		line("%s", title)
		if len(sigs) < minSignals {
			line("No qualified signals under current thresholds.")
		} else {
			for i, s := range sigs[:min(topN, len(sigs))] {
				line("%d) %s", i+1, s.Description)
			}
		}
		line("")
	}
	section("MONEYLINE SIGNALS", rep.MoneylineSignals)
	section("TOTALS SIGNALS", rep.TotalsSignals)

	line("SKIPPED GAMES (short reasons)")
	if len(rep.Skipped) == 0 {
		line("None")
	}
	for _, s := range rep.Skipped[:min(maxSkipped, len(rep.Skipped))] {
		line("- %s", s)
	}
	return b.String()
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
