package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Small numeric helpers shared by the analysis packages, backed by gonum

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// MinValue returns the smallest element, or +Inf for an empty slice
func MinValue(data []float64) float64 {
	if len(data) == 0 {
		return math.Inf(1)
	}
	return floats.Min(data)
}

// MaxValue returns the largest element, or -Inf for an empty slice
func MaxValue(data []float64) float64 {
	if len(data) == 0 {
		return math.Inf(-1)
	}
	return floats.Max(data)
}

// IsPowerOfTwo checks whether n is a positive power of two
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// NextPowerOfTwo returns the smallest power of two >= n
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}

	power := 1
	for power < n {
		power <<= 1
	}
	return power
}

// Magnitude returns sqrt(re^2 + im^2) for a single bin
func Magnitude(c complex128) float64 {
	re, im := real(c), imag(c)
	return math.Sqrt(re*re + im*im)
}
