package detector

import (
	"errors"

	"github.com/RyanBlaney/sonido-static/algorithms/common"
	"github.com/RyanBlaney/sonido-static/algorithms/spectral"
	"github.com/RyanBlaney/sonido-static/algorithms/windowing"
	"github.com/RyanBlaney/sonido-static/logging"
)

var errAnalyzerClosed = errors.New("analyzer is closed")

type analyzerOptions struct {
	classifier Classifier
	logger     logging.Logger
	planner    *spectral.Planner
	backend    spectral.Backend
	generator  *windowing.Generator
}

// Option configures an Analyzer
type Option func(*analyzerOptions)

// WithClassifier replaces the threshold rule with any spectrum policy
func WithClassifier(classifier Classifier) Option {
	return func(o *analyzerOptions) {
		o.classifier = classifier
	}
}

// WithThreshold uses a ThresholdClassifier with the given threshold
func WithThreshold(threshold float64) Option {
	return func(o *analyzerOptions) {
		o.classifier = NewThresholdClassifier(threshold)
	}
}

// WithLogger sets the analyzer's logger
func WithLogger(logger logging.Logger) Option {
	return func(o *analyzerOptions) {
		o.logger = logger
	}
}

// WithPlanner chooses the FFT backend through a planner and its plan cache
func WithPlanner(planner *spectral.Planner) Option {
	return func(o *analyzerOptions) {
		o.planner = planner
	}
}

// WithBackend forces an FFT backend, bypassing any planner
func WithBackend(backend spectral.Backend) Option {
	return func(o *analyzerOptions) {
		o.backend = backend
	}
}

// WithGenerator shares a window generator (and its cache) between analyzers
func WithGenerator(generator *windowing.Generator) Option {
	return func(o *analyzerOptions) {
		o.generator = generator
	}
}

// Analyzer scans sample buffers for static windows. It owns one transform
// plan and its buffers, reused across windows and files, so an Analyzer must
// not be shared between goroutines. Close releases the plan.
type Analyzer struct {
	config      Config
	hop         int
	window      *windowing.Window
	transformer *spectral.Transformer
	classifier  Classifier
	spectrum    []float64
	logger      logging.Logger
	closed      bool
}

// NewAnalyzer validates config, generates the window and binds a transform
// plan of size config.FFTSize
func NewAnalyzer(config Config, opts ...Option) (*Analyzer, error) {
	options := analyzerOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	if options.logger == nil {
		options.logger = logging.GetGlobalLogger()
	}
	logger := options.logger.WithFields(logging.Fields{
		"component": "static_analyzer",
	})

	if err := config.Validate(); err != nil {
		logger.Error(err, "Invalid analysis configuration")
		return nil, err
	}

	if options.classifier == nil {
		options.classifier = NewThresholdClassifier(DefaultStaticThreshold)
	}

	if !common.IsPowerOfTwo(config.FFTSize) {
		logger.Warn("FFT size is not a power of two, transforms will be slower", logging.Fields{
			"fft_size":  config.FFTSize,
			"suggested": common.NextPowerOfTwo(config.FFTSize),
		})
	}

	var window *windowing.Window
	var err error
	if options.generator != nil {
		window, err = options.generator.Generate(config.Window, config.FFTSize)
	} else {
		window, err = windowing.Generate(config.Window, config.FFTSize)
	}
	if err != nil {
		return nil, err
	}

	var transformer *spectral.Transformer
	switch {
	case options.backend != "":
		transformer, err = spectral.NewTransformer(config.FFTSize, spectral.WithBackend(options.backend))
	case options.planner != nil:
		transformer, err = options.planner.NewTransformer(config.FFTSize)
	default:
		transformer, err = spectral.NewTransformer(config.FFTSize)
	}
	if err != nil {
		logger.Error(err, "Failed to create transform plan", logging.Fields{
			"fft_size": config.FFTSize,
		})
		return nil, err
	}

	a := &Analyzer{
		config:      config,
		hop:         config.HopSize(),
		window:      window,
		transformer: transformer,
		classifier:  options.classifier,
		spectrum:    make([]float64, transformer.Bins()),
		logger:      logger,
	}

	logger.Debug("Analyzer created", logging.Fields{
		"fft_size":    config.FFTSize,
		"hop_size":    a.hop,
		"window":      config.Window.String(),
		"sample_rate": config.SampleRate,
		"backend":     transformer.Backend(),
	})

	return a, nil
}

// Config returns the analyzer's configuration
func (a *Analyzer) Config() Config {
	return a.config
}

// HopSize returns the distance in samples between window starts
func (a *Analyzer) HopSize() int {
	return a.hop
}

// Backend returns the FFT backend bound to the analyzer
func (a *Analyzer) Backend() spectral.Backend {
	return a.transformer.Backend()
}

// Scan returns the start offsets, in samples, of every window classified as
// static. Offsets are strictly increasing. samples is read, never modified.
func (a *Analyzer) Scan(samples []int16) ([]int, error) {
	offsets, _, err := a.scan(samples)
	return offsets, err
}

func (a *Analyzer) scan(samples []int16) ([]int, int, error) {
	if a.closed {
		return nil, 0, common.Resource("detector.Scan", errAnalyzerClosed)
	}

	segments, err := Segments(len(samples), a.config.FFTSize, a.hop)
	if err != nil {
		return nil, 0, err
	}

	input := a.transformer.Input()
	var offsets []int

	for _, seg := range segments {
		chunk := samples[seg.Start : seg.Start+seg.Length]

		if err := a.window.Apply(input, chunk); err != nil {
			return nil, 0, err
		}
		if seg.Terminal {
			clear(input[seg.Length:])
		}

		if err := a.transformer.Execute(a.spectrum); err != nil {
			return nil, 0, err
		}

		if a.classifier.IsStatic(a.spectrum) {
			offsets = append(offsets, seg.Start)
		}
	}

	return offsets, len(segments), nil
}

// Analyze scans samples and builds the result record for source, converting
// offsets to seconds at the configured sample rate
func (a *Analyzer) Analyze(source string, samples []int16) (*FileAnalysis, error) {
	return a.AnalyzeAt(source, samples, a.config.SampleRate)
}

// AnalyzeAt is Analyze for samples recorded at sampleRate, such as a WAV file
// whose header rate differs from the configured one. Offsets and the window
// length in samples are unchanged, only their conversion to seconds.
func (a *Analyzer) AnalyzeAt(source string, samples []int16, sampleRate int) (*FileAnalysis, error) {
	if sampleRate <= 0 {
		return nil, common.InvalidParameter("detector.Analyze", sampleRate, "sample rate > 0")
	}

	logger := a.logger.WithFields(logging.Fields{
		"function":    "Analyze",
		"source":      source,
		"sample_rate": sampleRate,
	})
	done := logging.Track(logger, "analyze")

	offsets, windows, err := a.scan(samples)
	if err != nil {
		logger.Error(err, "Scan failed", logging.Fields{
			"total_samples": len(samples),
		})
		return nil, err
	}

	result := newFileAnalysis(source, a.config, sampleRate, len(samples), windows, offsets)

	done(logging.Fields{
		"windows":        windows,
		"static_windows": len(offsets),
	})

	return result, nil
}

// Close releases the transform plan. Further scans fail with a resource
// error. Closing twice is a no-op.
func (a *Analyzer) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.spectrum = nil
	return a.transformer.Close()
}
