package domain

import "time"

// MarketGame is one scheduled game's market snapshot with best-available
// prices already resolved across bookmakers. Moneyline and Totals are nil
// when no bookmaker offered that market.
type MarketGame struct {
	GameKey      string     `json:"id"`
	CommenceTime time.Time  `json:"commence_time"`
	AwayTeam     string     `json:"away_team"`
	HomeTeam     string     `json:"home_team"`
	AwayAbbrev   string     `json:"away_abbrev"`
	HomeAbbrev   string     `json:"home_abbrev"`
	Moneyline    *Moneyline `json:"h2h,omitempty"`
	Totals       *Totals    `json:"totals,omitempty"`
}

// Moneyline holds the best American price and its book for each side.
type Moneyline struct {
	HomePrice int    `json:"home_price"`
	HomeBook  string `json:"home_book"`
	AwayPrice int    `json:"away_price"`
	AwayBook  string `json:"away_book"`
}

// Totals holds the consensus line and the best over/under quotes on it.
type Totals struct {
	Line       float64 `json:"line"`
	OverPrice  int     `json:"over_price"`
	OverBook   string  `json:"over_book"`
	UnderPrice int     `json:"under_price"`
	UnderBook  string  `json:"under_book"`
}
