package domain

import "context"

// ScheduleSource returns every game a team played or will play in a calendar
// month. yearMonth is formatted "YYYY-MM".
type ScheduleSource interface {
	TeamMonth(ctx context.Context, team, yearMonth string) ([]ScheduleGame, error)
}

// OddsSource returns the market snapshot for upcoming games. Games whose teams
// could not be resolved are reported in dropped rather than failing the call.
type OddsSource interface {
	FetchGames(ctx context.Context) (games []MarketGame, dropped []string, err error)
}

// TeamRateSource returns one rate row per team.
type TeamRateSource interface {
	FetchTeamRates(ctx context.Context) ([]TeamRate, error)
}

// StarterFetcher returns projected starting goalies for an Eastern date.
type StarterFetcher interface {
	FetchStarters(ctx context.Context, dateET string) ([]Starter, error)
}
