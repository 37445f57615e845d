package windowing

import (
	"math"
)

// generateHamming fills coefficients with the symmetric Hamming window
func generateHamming(coefficients []float64) {
	N := len(coefficients)
	scale := 2 * math.Pi / float64(N-1)

	for i := range N {
		coefficients[i] = 0.54 - 0.46*math.Cos(scale*float64(i))
	}
}
