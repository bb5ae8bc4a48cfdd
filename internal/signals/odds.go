package signals

import "math"

// ImpliedProbFromAmerican converts an American price to the break-even
// probability it implies, vig included. A zero price is not a valid quote.
func ImpliedProbFromAmerican(price int) (float64, bool) {
	switch {
	case price == 0:
		return 0, false
	case price < 0:
		p := float64(-price)
		return p / (p + 100), true
	default:
		return 100 / (float64(price) + 100), true
	}
}

// FairAmericanFromProb inverts a probability into the American price at which
// it breaks even. p must lie strictly inside (0, 1).
func FairAmericanFromProb(p float64) (int, bool) {
	if !(p > 0 && p < 1) {
		return 0, false
	}
	if p >= 0.5 {
		return -int(math.RoundToEven(100 * p / (1 - p))), true
	}
	return int(math.RoundToEven(100 * (1 - p) / p)), true
}

// EdgePP is the model's advantage over the implied probability, in
// percentage points.
func EdgePP(model, implied float64) float64 {
	return (model - implied) * 100
}
