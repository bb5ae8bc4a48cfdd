package domain

// TeamRate is one team's scoring-rate snapshot for the current season.
type TeamRate struct {
	TeamAbbrev  string  `json:"team_abbrev"`
	GamesPlayed int     `json:"games_played"`
	XGFPerGame  float64 `json:"xGF_pg"`
	XGAPerGame  float64 `json:"xGA_pg"`
}
