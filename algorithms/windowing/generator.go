package windowing

import (
	"math"
	"sync"

	"github.com/RyanBlaney/sonido-static/algorithms/common"
	"github.com/RyanBlaney/sonido-static/logging"
	"gonum.org/v1/gonum/floats"
)

// Properties summarises a window's effect on a spectrum
type Properties struct {
	Energy       float64 `json:"energy" yaml:"energy"`               // sum of squared coefficients
	CoherentGain float64 `json:"coherent_gain" yaml:"coherent_gain"` // mean coefficient
	PowerGain    float64 `json:"power_gain" yaml:"power_gain"`       // mean squared coefficient
	ENBW         float64 `json:"enbw" yaml:"enbw"`                   // equivalent noise bandwidth in bins
	Peak         float64 `json:"peak" yaml:"peak"`                   // largest coefficient
}

// Properties computes gain figures for the window. A None window behaves like
// all-ones coefficients.
func (w *Window) Properties() Properties {
	N := float64(w.size)

	if w.coefficients == nil {
		return Properties{Energy: N, CoherentGain: 1, PowerGain: 1, ENBW: 1, Peak: 1}
	}

	energy := floats.Dot(w.coefficients, w.coefficients)
	sum := floats.Sum(w.coefficients)

	props := Properties{
		Energy:       energy,
		CoherentGain: sum / N,
		PowerGain:    energy / N,
		Peak:         common.MaxValue(w.coefficients),
	}

	if sum != 0 {
		props.ENBW = N * energy / (sum * sum)
	} else {
		props.ENBW = math.Inf(1)
	}

	return props
}

type cacheKey struct {
	spec Spec
	size int
}

// Generator generates and memoizes windows by (Spec, size). Windows are
// immutable, so a Generator may be shared between analyzers.
type Generator struct {
	logger logging.Logger

	mu    sync.Mutex
	cache map[cacheKey]*Window
}

// NewGenerator creates a new window generator
func NewGenerator() *Generator {
	return &Generator{
		logger: logging.WithFields(logging.Fields{
			"component": "window_generator",
		}),
		cache: make(map[cacheKey]*Window),
	}
}

// Generate returns the window for spec and size, building it on first use
func (g *Generator) Generate(spec Spec, size int) (*Window, error) {
	logger := g.logger.WithFields(logging.Fields{
		"function":    "Generate",
		"window_type": spec.Type,
		"window_size": size,
	})

	key := cacheKey{spec: spec, size: size}

	g.mu.Lock()
	defer g.mu.Unlock()

	if cached, exists := g.cache[key]; exists {
		logger.Debug("Returning cached window")
		return cached, nil
	}

	window, err := Generate(spec, size)
	if err != nil {
		logger.Error(err, "Invalid window configuration")
		return nil, err
	}

	g.cache[key] = window

	logger.Debug("Window generated", logging.Fields{
		"identity": window.IsIdentity(),
	})

	return window, nil
}

// Len returns the number of cached windows
func (g *Generator) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cache)
}
