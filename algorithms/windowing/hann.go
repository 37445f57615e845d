package windowing

import (
	"math"
)

// generateHann fills coefficients with the symmetric Hann window
//
//	w[i] = 0.5 * (1 - cos(2*pi*i / (N-1)))
func generateHann(coefficients []float64) {
	N := len(coefficients)
	scale := 2 * math.Pi / float64(N-1)

	for i := range N {
		coefficients[i] = 0.5 * (1.0 - math.Cos(scale*float64(i)))
	}
}
