package windowing

import (
	"math"
)

// generateGaussian fills coefficients with a Gaussian centred on (N-1)/2 whose
// width is sigma times the half length
func generateGaussian(coefficients []float64, sigma float64) {
	N := len(coefficients)
	midpoint := float64(N-1) / 2.0

	for i := range N {
		distance := (float64(i) - midpoint) / (sigma * midpoint)
		coefficients[i] = math.Exp(-0.5 * distance * distance)
	}
}
