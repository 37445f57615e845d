package detector

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-static/algorithms/common"
	"github.com/RyanBlaney/sonido-static/algorithms/windowing"
)

const (
	DefaultFFTSize    = 1024
	DefaultOverlap    = 0.5
	DefaultSampleRate = 8000

	// MaxOverlap keeps the hop at no less than a tenth of the window
	MaxOverlap = 0.9
)

// hopEpsilon absorbs binary representation error in N*(1-overlap), e.g.
// 10*(1-0.9) evaluates to 0.9999999999999998
const hopEpsilon = 1e-9

// Config holds the analysis parameters of one analyzer. It is fixed for the
// analyzer's lifetime.
type Config struct {
	FFTSize    int            `json:"fft_size" yaml:"fft_size" mapstructure:"fft_size"`
	Window     windowing.Spec `json:"window" yaml:"window" mapstructure:"window"`
	Overlap    float64        `json:"overlap" yaml:"overlap" mapstructure:"overlap"`
	SampleRate int            `json:"sample_rate" yaml:"sample_rate" mapstructure:"sample_rate"`
}

// DefaultConfig returns the standard 1024-point Hann configuration at 8 kHz
// with 50% overlap
func DefaultConfig() Config {
	return Config{
		FFTSize:    DefaultFFTSize,
		Window:     windowing.NewSpec(windowing.WindowHann),
		Overlap:    DefaultOverlap,
		SampleRate: DefaultSampleRate,
	}
}

// HopSize returns floor(N*(1-overlap))
func (c Config) HopSize() int {
	return int(math.Floor(float64(c.FFTSize)*(1-c.Overlap) + hopEpsilon))
}

// WindowDuration returns the length of one analysis window in seconds
func (c Config) WindowDuration() float64 {
	return float64(c.FFTSize) / float64(c.SampleRate)
}

// Validate reports the first invalid parameter
func (c Config) Validate() error {
	if c.FFTSize < 1 {
		return common.InvalidParameter("detector.Config", c.FFTSize, "fft size >= 1")
	}

	if c.SampleRate <= 0 {
		return common.InvalidParameter("detector.Config", c.SampleRate, "sample rate > 0")
	}

	if math.IsNaN(c.Overlap) || c.Overlap < 0 || c.Overlap > MaxOverlap {
		return common.InvalidParameter("detector.Config", c.Overlap, fmt.Sprintf("overlap in [0, %.1f]", MaxOverlap))
	}

	if hop := c.HopSize(); hop < 1 {
		return common.InvalidParameter("detector.Config", hop,
			fmt.Sprintf("hop >= 1 (fft size %d, overlap %v)", c.FFTSize, c.Overlap))
	}

	if err := c.Window.Validate(); err != nil {
		return err
	}

	// a one-sample window only exists for the identity window
	if c.Window.Type != windowing.WindowNone && c.FFTSize < 2 {
		return common.InvalidParameter("detector.Config", c.FFTSize,
			fmt.Sprintf("fft size >= 2 for %s window", c.Window))
	}

	return nil
}
