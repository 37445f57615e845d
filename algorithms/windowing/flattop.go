package windowing

import (
	"math"
)

// generateFlatTop fills coefficients with the five-term flat top window.
// Unlike the other windows its peak is well above 1 (about 4.64 at the centre).
func generateFlatTop(coefficients []float64) {
	N := len(coefficients)
	scale := 2 * math.Pi / float64(N-1)

	a0, a1, a2, a3, a4 := 1.0, 1.93, 1.29, 0.388, 0.0322

	for i := range N {
		theta := scale * float64(i)
		coefficients[i] = a0 - a1*math.Cos(theta) + a2*math.Cos(2*theta) -
			a3*math.Cos(3*theta) + a4*math.Cos(4*theta)
	}
}
