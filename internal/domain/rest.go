package domain

import "time"

// TeamRest describes rest entering one game for one team. When
// MissingPreviousGame is set, RestDays is 0 and BackToBack is false.
type TeamRest struct {
	RestDays            int    `json:"rest_days"`
	BackToBack          bool   `json:"b2b"`
	PreviousGameDate    string `json:"prev_game_et_date,omitempty"`
	MissingPreviousGame bool   `json:"missing_prev_game"`
}

// GameRest joins the two TeamRest records of a scheduled game.
type GameRest struct {
	GameKey           string `json:"game_key"`
	DateET            string `json:"date_et"`
	AwayTeam          string `json:"away_team"`
	HomeTeam          string `json:"home_team"`
	AwayRestDays      int    `json:"away_rest_days"`
	HomeRestDays      int    `json:"home_rest_days"`
	AwayBackToBack    bool   `json:"away_b2b"`
	HomeBackToBack    bool   `json:"home_b2b"`
	AwayRestMissing   bool   `json:"away_rest_missing"`
	HomeRestMissing   bool   `json:"home_rest_missing"`
	RestAdvantageHome int    `json:"rest_advantage_home"`
}

// ScheduleGame is a single game from a team's schedule, reduced to what the
// rest computation needs.
type ScheduleGame struct {
	ID         string    `json:"id"`
	StartUTC   time.Time `json:"start_time_utc"`
	HomeAbbrev string    `json:"home_abbrev"`
	AwayAbbrev string    `json:"away_abbrev"`
}

// Involves reports whether team played in the game on either side.
func (g ScheduleGame) Involves(team string) bool {
	return g.HomeAbbrev == team || g.AwayAbbrev == team
}
