package domain

// SignalMarket identifies the market a signal was produced for.
type SignalMarket string

const (
	SignalMarketMoneyline SignalMarket = "moneyline"
	SignalMarketTotals    SignalMarket = "totals"
)

// Signal is one (market, pick) pair whose edge cleared the threshold.
type Signal struct {
	Market            SignalMarket `json:"market"`
	GameKey           string       `json:"game_key"`
	Pick              string       `json:"pick"`
	Price             int          `json:"price"`
	Book              string       `json:"book"`
	Line              *float64     `json:"line,omitempty"`
	ModelProb         float64      `json:"model_prob"`
	ImpliedProb       float64      `json:"implied_prob"`
	EdgePP            float64      `json:"edge_pp"`
	FairPrice         *int         `json:"fair_price,omitempty"`
	MuTotal           float64      `json:"mu_total,omitempty"`
	RestAdvantageHome int          `json:"rest_adv_home"`
	RestApplied       bool         `json:"rest_applied"`
	Description       string       `json:"description"`
}

// SkipReason explains why a game produced no signal evaluation.
type SkipReason struct {
	GameKey string `json:"game_key"`
	Reason  string `json:"reason"`
}

func (s SkipReason) String() string {
	return s.GameKey + ": " + s.Reason
}

// SignalReport is the output of one signal generation pass. Both signal lists
// are ordered by descending edge.
type SignalReport struct {
	RunID            string       `json:"run_id,omitempty"`
	DateET           string       `json:"date_et,omitempty"`
	MoneylineSignals []Signal     `json:"moneyline_signals"`
	TotalsSignals    []Signal     `json:"totals_signals"`
	Skipped          []SkipReason `json:"skipped"`
}
