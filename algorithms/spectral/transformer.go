package spectral

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-static/algorithms/common"
)

var (
	errClosed    = errors.New("transformer is closed")
	errNoBackend = errors.New("no backend could be planned")
)

// Transformer is a reusable real-input FFT plan bound to one size N. It owns
// an N-sample input buffer and an N/2+1 bin output buffer that are reused on
// every call. A Transformer is not safe for concurrent use.
type Transformer struct {
	size    int
	backend Backend
	plan    realFFT
	input   []float64
	output  []complex128
	closed  bool
}

// TransformerOption configures a Transformer
type TransformerOption func(*Transformer)

// WithBackend selects the FFT implementation
func WithBackend(backend Backend) TransformerOption {
	return func(t *Transformer) {
		t.backend = backend
	}
}

// NewTransformer creates a plan for size n
func NewTransformer(n int, opts ...TransformerOption) (*Transformer, error) {
	if n < 1 {
		return nil, common.InvalidParameter("spectral.NewTransformer", n, "fft size >= 1")
	}

	t := &Transformer{backend: DefaultBackend}
	for _, opt := range opts {
		opt(t)
	}

	plan, err := newRealFFT(t.backend, n)
	if err != nil {
		return nil, err
	}
	t.bind(n, plan)

	return t, nil
}

func (t *Transformer) bind(n int, plan realFFT) {
	t.size = n
	t.plan = plan
	t.input = make([]float64, n)
	t.output = make([]complex128, n/2+1)
}

// Size returns N
func (t *Transformer) Size() int {
	return t.size
}

// Bins returns the number of magnitude bins, N/2+1
func (t *Transformer) Bins() int {
	return t.size/2 + 1
}

// Backend returns the FFT implementation in use
func (t *Transformer) Backend() Backend {
	return t.backend
}

// Input returns the working input buffer. Callers write windowed samples into
// it and then call Execute. The slice is invalidated by Rebind and Close.
func (t *Transformer) Input() []float64 {
	return t.input
}

// Execute transforms the input buffer and writes the magnitude of bins
// 0..N/2 into dst
func (t *Transformer) Execute(dst []float64) error {
	if t.closed {
		return common.Resource("spectral.Execute", errClosed)
	}
	if len(dst) < t.Bins() {
		return common.InvalidParameter("spectral.Execute", len(dst), fmt.Sprintf("output length >= %d", t.Bins()))
	}

	t.plan.coefficients(t.output, t.input)

	for k, c := range t.output {
		dst[k] = common.Magnitude(c)
	}

	return nil
}

// Transform copies buf into the input buffer and executes the plan
func (t *Transformer) Transform(buf []float64, dst []float64) error {
	if t.closed {
		return common.Resource("spectral.Transform", errClosed)
	}
	if len(buf) != t.size {
		return common.InvalidParameter("spectral.Transform", len(buf), fmt.Sprintf("input length == %d", t.size))
	}

	copy(t.input, buf)
	return t.Execute(dst)
}

// Rebind builds a plan for size n and replaces the current one. If the new
// plan cannot be built the transformer keeps its old plan and size.
func (t *Transformer) Rebind(n int) error {
	if t.closed {
		return common.Resource("spectral.Rebind", errClosed)
	}
	if n < 1 {
		return common.InvalidParameter("spectral.Rebind", n, "fft size >= 1")
	}
	if n == t.size {
		return nil
	}

	plan, err := newRealFFT(t.backend, n)
	if err != nil {
		return err
	}

	t.release()
	t.bind(n, plan)
	return nil
}

// Close releases the plan and its buffers. Closing twice is a no-op.
func (t *Transformer) Close() error {
	if t.closed {
		return nil
	}
	t.release()
	t.closed = true
	return nil
}

func (t *Transformer) release() {
	t.plan = nil
	t.input = nil
	t.output = nil
}
