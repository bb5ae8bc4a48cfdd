package domain

import "time"

// SlateSchemaVersion is bumped whenever the artifact layout changes.
const SlateSchemaVersion = "nhl_daily_slim.v2"

// Slate is the daily artifact: every input the signal pass needs, plus the
// status of each source that produced it.
type Slate struct {
	SchemaVersion  string                  `json:"schema_version"`
	RunID          string                  `json:"run_id"`
	DataDateET     string                  `json:"data_date_et"`
	GeneratedAtUTC time.Time               `json:"generated_at_utc"`
	OddsCurrent    []MarketGame            `json:"odds_current"`
	Teams          []TeamRate              `json:"teams"`
	GameRest       []GameRest              `json:"game_rest"`
	Starters       []Starter               `json:"starters"`
	SourceStatus   map[string]SourceStatus `json:"source_status"`
	Validations    map[string]any          `json:"validations"`
}

// SourceStatus records whether a collaborator delivered data for this slate.
type SourceStatus struct {
	OK   bool           `json:"ok"`
	Meta map[string]any `json:"meta,omitempty"`
}

// RateTable indexes the team rates by abbreviation.
func (s *Slate) RateTable() map[string]TeamRate {
	out := make(map[string]TeamRate, len(s.Teams))
	for _, t := range s.Teams {
		out[t.TeamAbbrev] = t
	}
	return out
}

// RestTable indexes the home rest advantage by game key. Games without a rest
// row, or with either side's rest missing, are absent from the map.
func (s *Slate) RestTable() map[string]int {
	out := make(map[string]int, len(s.GameRest))
	for _, r := range s.GameRest {
		if r.AwayRestMissing || r.HomeRestMissing {
			continue
		}
		out[r.GameKey] = r.RestAdvantageHome
	}
	return out
}

// SetStatus records the outcome of one source.
func (s *Slate) SetStatus(key string, ok bool, meta map[string]any) {
	if s.SourceStatus == nil {
		s.SourceStatus = make(map[string]SourceStatus)
	}
	s.SourceStatus[key] = SourceStatus{OK: ok, Meta: meta}
}

// Starter statuses.
const (
	StarterConfirmed = "confirmed"
	StarterProjected = "projected"
)

// Starter is one game's projected or confirmed starting goalies.
type Starter struct {
	GameKey string        `json:"game_key"`
	DateET  string        `json:"date_et"`
	Away    StarterSide   `json:"away"`
	Home    StarterSide   `json:"home"`
	Source  StarterSource `json:"source"`
}

// StarterSide is one team's goalie entry.
type StarterSide struct {
	Team   string `json:"team"`
	Goalie string `json:"goalie"`
	Status string `json:"status"`
}

// StarterSource identifies where the starter entry was scraped from.
type StarterSource struct {
	Site           string     `json:"site"`
	URL            string     `json:"url"`
	LastUpdatedUTC *time.Time `json:"last_updated_utc"`
}
