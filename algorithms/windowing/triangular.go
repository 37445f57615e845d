package windowing

import (
	"math"
)

// generateTriangular fills coefficients with a triangle that is zero at both
// ends and peaks at the centre
func generateTriangular(coefficients []float64) {
	N := len(coefficients)
	denominator := float64(N - 1)

	for i := range N {
		coefficients[i] = 1.0 - math.Abs(2.0*float64(i)/denominator-1.0)
	}
}
