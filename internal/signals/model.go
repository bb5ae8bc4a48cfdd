package signals

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

// ErrDegenerateVariance is returned when the goal differential has no spread.
var ErrDegenerateVariance = errors.New("signals: sd<=0")

// integerLineTolerance decides whether a totals line is a whole number.
const integerLineTolerance = 1e-9

// Means blends each team's offence with the opponent's defence:
// home = (home xGF + away xGA) / 2, and symmetrically for away.
func Means(home, away domain.TeamRate) (homeMean, awayMean float64) {
	homeMean = (home.XGFPerGame + away.XGAPerGame) / 2
	awayMean = (away.XGFPerGame + home.XGAPerGame) / 2
	return homeMean, awayMean
}

// TotalsMeans shifts the base means by coef goals per day of home rest
// advantage, flooring each at floor.
func TotalsMeans(baseHome, baseAway float64, restAdvHome int, coef, floor float64) (homeMean, awayMean float64) {
	shift := coef * float64(restAdvHome)
	return math.Max(floor, baseHome+shift), math.Max(floor, baseAway-shift)
}

// MoneylineProb approximates the goal differential as Gaussian with mean
// homeMean-awayMean and variance homeMean+awayMean, and returns the
// probability the home side wins by at least one goal using a 0.5
// continuity correction.
func MoneylineProb(homeMean, awayMean float64) (float64, error) {
	variance := homeMean + awayMean
	sd := 0.0
	if variance > 0 {
		sd = math.Sqrt(variance)
	}
	if sd <= 0 {
		return 0, ErrDegenerateVariance
	}
	diff := homeMean - awayMean
	return clamp01(1 - NormalCDF((0.5-diff)/sd)), nil
}

// TotalsProb returns the over and under probabilities for a totals line with
// total goals ~ Poisson(muTotal). On a whole-number line k the push P(X=k)
// belongs to neither side, so over+under < 1. On a half line they sum to 1.
func TotalsProb(line, muTotal float64) (over, under float64, lineType string) {
	if IsIntegerLine(line) {
		k := int(math.Round(line))
		over = 1 - PoissonCDF(k, muTotal)
		under = PoissonCDF(k-1, muTotal)
		return over, under, fmt.Sprintf("integer(%d)", k)
	}
	n := int(math.Floor(line))
	over = 1 - PoissonCDF(n, muTotal)
	under = PoissonCDF(n, muTotal)
	return over, under, "half(" + formatLine(line) + ")"
}

// IsIntegerLine reports whether a totals line allows a push.
func IsIntegerLine(line float64) bool {
	return math.Abs(line-math.Round(line)) < integerLineTolerance
}

// formatLine renders a line with at least one decimal: 6 -> "6.0", 6.5 -> "6.5".
func formatLine(line float64) string {
	if IsIntegerLine(line) {
		return strconv.FormatFloat(line, 'f', 1, 64)
	}
	return strconv.FormatFloat(line, 'f', -1, 64)
}
