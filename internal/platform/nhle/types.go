package nhle

import (
	"encoding/json"
	"strings"
	"time"
)

// schedulePayload accepts the three layouts the API has served: a flat games
// list, a gameWeek list of days, and a dates list of days.
type schedulePayload struct {
	Games    []apiGame `json:"games"`
	GameWeek []apiDay  `json:"gameWeek"`
	Dates    []apiDay  `json:"dates"`
}

type apiDay struct {
	Games []apiGame `json:"games"`
}

func (p schedulePayload) games() []apiGame {
	if p.Games != nil {
		return p.Games
	}
	days := p.GameWeek
	if days == nil {
		days = p.Dates
	}
	var out []apiGame
	for _, d := range days {
		out = append(out, d.Games...)
	}
	return out
}

type apiGame struct {
	ID           json.RawMessage `json:"id"`
	StartTimeUTC string          `json:"startTimeUTC"`
	GameDate     string          `json:"gameDate"`
	StartTime    string          `json:"startTime"`
	HomeTeam     apiTeam         `json:"homeTeam"`
	AwayTeam     apiTeam         `json:"awayTeam"`
}

// start returns the first start field that parses, in preference order.
func (g apiGame) start() (time.Time, bool) {
	for _, v := range []string{g.StartTimeUTC, g.GameDate, g.StartTime} {
		if t, ok := parseInstant(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// parseInstant parses an ISO-8601 timestamp. Values without an offset are
// taken as UTC.
func parseInstant(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// apiTeam is a team reference that may carry its code directly or inside a
// nested team object, under any of several keys.
type apiTeam struct {
	codes  []string
	nested *apiTeam
}

func (t *apiTeam) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		// Not an object; treat as no team information.
		return nil
	}
	for _, key := range []string{"abbrev", "triCode", "abbreviation"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil {
			t.codes = append(t.codes, strings.ToUpper(strings.TrimSpace(s)))
		}
	}
	if raw, ok := fields["team"]; ok {
		var nested apiTeam
		if err := json.Unmarshal(raw, &nested); err == nil {
			t.nested = &nested
		}
	}
	return nil
}

// abbrev prefers a three-letter code at this level, then any code, then the
// nested team.
func (t apiTeam) abbrev() string {
	for _, c := range t.codes {
		if len(c) == 3 {
			return c
		}
	}
	if len(t.codes) > 0 && t.codes[0] != "" {
		return t.codes[0]
	}
	if t.nested != nil {
		return t.nested.abbrev()
	}
	return ""
}
