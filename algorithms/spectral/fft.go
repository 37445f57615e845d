package spectral

import (
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-static/algorithms/common"
	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Backend names an FFT implementation
type Backend string

const (
	// BackendGonum uses gonum's FFTPACK port. It reuses its work buffers, so it
	// is the default.
	BackendGonum Backend = "gonum"

	// BackendGoDSP uses mjibson/go-dsp, which handles any size but allocates
	// a full complex spectrum per call.
	BackendGoDSP Backend = "go-dsp"
)

// DefaultBackend is used when no plan has been measured for a size
const DefaultBackend = BackendGonum

// Backends returns every available backend
func Backends() []Backend {
	return []Backend{BackendGonum, BackendGoDSP}
}

// ParseBackend resolves a backend name, ignoring case
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gonum", "":
		return BackendGonum, nil
	case "go-dsp", "godsp", "go_dsp":
		return BackendGoDSP, nil
	default:
		return "", common.InvalidParameter("spectral.ParseBackend", name, "one of gonum, go-dsp")
	}
}

// realFFT computes the non-redundant half of a real-input DFT. dst has
// len(src)/2+1 elements.
type realFFT interface {
	coefficients(dst []complex128, src []float64)
}

type gonumFFT struct {
	fft *fourier.FFT
}

func (g *gonumFFT) coefficients(dst []complex128, src []float64) {
	g.fft.Coefficients(dst, src)
}

type goDSPFFT struct{}

func (goDSPFFT) coefficients(dst []complex128, src []float64) {
	// mjibson/go-dsp handles all sizes, including non-power-of-2
	full := fft.FFTReal(src)
	copy(dst, full[:len(dst)])
}

// newRealFFT builds the backend for n. Backend constructors panic on
// allocation failure; that is reported as a resource error.
func newRealFFT(backend Backend, n int) (plan realFFT, err error) {
	defer func() {
		if r := recover(); r != nil {
			plan = nil
			err = common.Resource("spectral.plan", fmt.Errorf("%s plan for size %d: %v", backend, n, r))
		}
	}()

	switch backend {
	case BackendGonum:
		return &gonumFFT{fft: fourier.NewFFT(n)}, nil
	case BackendGoDSP:
		return goDSPFFT{}, nil
	default:
		return nil, common.Resource("spectral.plan", fmt.Errorf("unknown backend %q", backend))
	}
}
