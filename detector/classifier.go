package detector

import (
	"github.com/RyanBlaney/sonido-static/algorithms/common"
)

// DefaultStaticThreshold is the magnitude every bin must exceed, in the raw
// int16 sample domain (samples are not normalized before the transform)
const DefaultStaticThreshold = 1000.0

// Classifier decides whether one window's magnitude spectrum is static
type Classifier interface {
	IsStatic(spectrum []float64) bool
}

// ClassifierFunc adapts a function to the Classifier interface
type ClassifierFunc func(spectrum []float64) bool

func (f ClassifierFunc) IsStatic(spectrum []float64) bool {
	return f(spectrum)
}

// ThresholdClassifier flags a window when every bin is strictly above
// Threshold. A single quiet bin clears the window.
type ThresholdClassifier struct {
	Threshold float64
}

// NewThresholdClassifier creates a classifier for the given threshold
func NewThresholdClassifier(threshold float64) *ThresholdClassifier {
	return &ThresholdClassifier{Threshold: threshold}
}

func (c *ThresholdClassifier) IsStatic(spectrum []float64) bool {
	if len(spectrum) == 0 {
		return false
	}
	return common.MinValue(spectrum) > c.Threshold
}
