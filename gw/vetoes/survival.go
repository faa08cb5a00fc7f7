package vetoes

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// SurvivalProbability returns the probability that a chi-squared
// variable with the given degrees of freedom exceeds value, the p-value
// of a veto statistic under the Gaussian-noise hypothesis.
func SurvivalProbability(value float64, dof int) (float64, error) {
	if dof < 1 {
		return 0, fmt.Errorf("%w: dof=%d", ErrInvalidConfig, dof)
	}
	if value < 0 {
		return 0, fmt.Errorf("%w: value=%v", ErrInvalidConfig, value)
	}
	dist := distuv.ChiSquared{K: float64(dof)}
	return dist.Survival(value), nil
}
