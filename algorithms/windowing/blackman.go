package windowing

import (
	"math"
)

// generateBlackman fills coefficients with the symmetric Blackman window
func generateBlackman(coefficients []float64) {
	N := len(coefficients)
	scale := 2 * math.Pi / float64(N-1)

	a0, a1, a2 := 0.42, 0.5, 0.08

	for i := range N {
		arg := scale * float64(i)
		coefficients[i] = a0 - a1*math.Cos(arg) + a2*math.Cos(2*arg)
	}
}
