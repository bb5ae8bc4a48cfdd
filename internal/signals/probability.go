// Package signals turns team scoring rates, rest and market prices into
// model probabilities and reports the prices whose edge clears a threshold.
package signals

import "math"

// NormalCDF is the standard normal cumulative distribution function.
func NormalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// PoissonCDF returns P(X <= k) for X ~ Poisson(mu), summed with the forward
// recurrence term_i = term_{i-1} * mu / i. Negative k yields 0 and a
// non-positive mean yields 1.
func PoissonCDF(k int, mu float64) float64 {
	if k < 0 {
		return 0
	}
	if mu <= 0 {
		return 1
	}
	term := math.Exp(-mu)
	sum := term
	for i := 1; i <= k; i++ {
		term *= mu / float64(i)
		sum += term
	}
	return clamp01(sum)
}

func clamp01(p float64) float64 {
	return math.Min(1, math.Max(0, p))
}
