package windowing

import (
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-static/algorithms/common"
)

// Type represents the closed set of supported window function types
type Type string

const (
	WindowNone       Type = "none"
	WindowTriangular Type = "triangular"
	WindowHann       Type = "hann"
	WindowHamming    Type = "hamming"
	WindowBlackman   Type = "blackman"
	WindowFlatTop    Type = "flattop"
	WindowGaussian   Type = "gaussian"
)

// DefaultGaussianSigma is the Gaussian width used when none is given
const DefaultGaussianSigma = 0.4

var displayNames = map[Type]string{
	WindowNone:       "None",
	WindowTriangular: "Triangular",
	WindowHann:       "Hann",
	WindowHamming:    "Hamming",
	WindowBlackman:   "Blackman",
	WindowFlatTop:    "FlatTop",
	WindowGaussian:   "Gaussian",
}

var aliases = map[string]Type{
	"none":        WindowNone,
	"rectangular": WindowNone,
	"triangular":  WindowTriangular,
	"hann":        WindowHann,
	"hanning":     WindowHann,
	"hamming":     WindowHamming,
	"blackman":    WindowBlackman,
	"flattop":     WindowFlatTop,
	"flat_top":    WindowFlatTop,
	"flat-top":    WindowFlatTop,
	"gaussian":    WindowGaussian,
}

// Types returns every supported window type in declaration order
func Types() []Type {
	return []Type{
		WindowNone,
		WindowTriangular,
		WindowHann,
		WindowHamming,
		WindowBlackman,
		WindowFlatTop,
		WindowGaussian,
	}
}

// String returns the display name, e.g. "FlatTop"
func (t Type) String() string {
	if name, ok := displayNames[t]; ok {
		return name
	}
	return string(t)
}

// Valid reports whether t is one of the supported types
func (t Type) Valid() bool {
	_, ok := displayNames[t]
	return ok
}

// ParseType resolves a user supplied window name, ignoring case
func ParseType(name string) (Type, error) {
	t, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", common.InvalidParameter("windowing.ParseType", name,
			"one of none, triangular, hann, hamming, blackman, flattop, gaussian")
	}
	return t, nil
}

// Spec selects a window function. Sigma is only meaningful for Gaussian.
type Spec struct {
	Type  Type    `json:"type" yaml:"type" mapstructure:"type"`
	Sigma float64 `json:"sigma,omitempty" yaml:"sigma,omitempty" mapstructure:"sigma"`
}

// NewSpec returns the spec for t with default parameters
func NewSpec(t Type) Spec {
	if t == WindowGaussian {
		return Spec{Type: t, Sigma: DefaultGaussianSigma}
	}
	return Spec{Type: t}
}

// GaussianSpec returns a Gaussian(sigma) spec
func GaussianSpec(sigma float64) Spec {
	return Spec{Type: WindowGaussian, Sigma: sigma}
}

// Validate checks the type and its parameters
func (s Spec) Validate() error {
	if !s.Type.Valid() {
		return common.InvalidParameter("windowing.Spec", s.Type, "a supported window type")
	}
	if s.Type == WindowGaussian && !(s.Sigma > 0) {
		return common.InvalidParameter("windowing.Spec", s.Sigma, "gaussian sigma > 0")
	}
	return nil
}

// String returns the display name, with sigma for Gaussian windows
func (s Spec) String() string {
	if s.Type == WindowGaussian {
		return fmt.Sprintf("%s(%.2f)", s.Type, s.Sigma)
	}
	return s.Type.String()
}

// Window holds the coefficients for one (Spec, size) pair. A None window has
// no coefficients and copies samples unmultiplied.
type Window struct {
	spec         Spec
	size         int
	coefficients []float64
}

// Spec returns the window's spec
func (w *Window) Spec() Spec {
	return w.spec
}

// Size returns the window length
func (w *Window) Size() int {
	return w.size
}

// IsIdentity reports whether applying the window leaves samples unchanged
func (w *Window) IsIdentity() bool {
	return w.coefficients == nil
}

// Coefficients returns a copy of the window coefficients, or nil for None
func (w *Window) Coefficients() []float64 {
	if w.coefficients == nil {
		return nil
	}
	coeffs := make([]float64, len(w.coefficients))
	copy(coeffs, w.coefficients)
	return coeffs
}

// Apply writes the windowed samples into dst[:len(src)]. src may be shorter
// than the window (terminal chunk); the caller owns zeroing the tail.
func (w *Window) Apply(dst []float64, src []int16) error {
	if len(src) > w.size {
		return common.InvalidParameter("windowing.Apply", len(src), fmt.Sprintf("chunk length <= %d", w.size))
	}
	if len(dst) < len(src) {
		return common.InvalidParameter("windowing.Apply", len(dst), fmt.Sprintf("destination length >= %d", len(src)))
	}

	if w.coefficients == nil {
		for i, s := range src {
			dst[i] = float64(s)
		}
		return nil
	}

	for i, s := range src {
		dst[i] = float64(s) * w.coefficients[i]
	}

	return nil
}

// Generate creates the coefficient table for spec and size
func Generate(spec Spec, size int) (*Window, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	if spec.Type == WindowNone {
		if size < 1 {
			return nil, common.InvalidParameter("windowing.Generate", size, "window size >= 1")
		}
		return &Window{spec: spec, size: size}, nil
	}

	// every formula divides by N-1
	if size < 2 {
		return nil, common.InvalidParameter("windowing.Generate", size, "window size >= 2")
	}

	coefficients := make([]float64, size)

	switch spec.Type {
	case WindowTriangular:
		generateTriangular(coefficients)
	case WindowHann:
		generateHann(coefficients)
	case WindowHamming:
		generateHamming(coefficients)
	case WindowBlackman:
		generateBlackman(coefficients)
	case WindowFlatTop:
		generateFlatTop(coefficients)
	case WindowGaussian:
		generateGaussian(coefficients, spec.Sigma)
	}

	return &Window{
		spec:         spec,
		size:         size,
		coefficients: coefficients,
	}, nil
}
