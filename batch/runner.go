package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-static/algorithms/common"
	"github.com/RyanBlaney/sonido-static/algorithms/windowing"
	"github.com/RyanBlaney/sonido-static/detector"
	"github.com/RyanBlaney/sonido-static/logging"
	"github.com/RyanBlaney/sonido-static/transcode"
	"golang.org/x/sync/errgroup"
)

// ErrSkipped marks files that were never analyzed because the batch stopped
var ErrSkipped = errors.New("skipped")

// Loader turns a path into samples
type Loader interface {
	Load(ctx context.Context, path string) (*transcode.AudioData, error)
}

// Options controls batch execution
type Options struct {
	// Workers is the number of files analyzed at once. Values below 1 mean 1.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// ContinueOnError keeps going after a file fails instead of stopping the
	// batch
	ContinueOnError bool `json:"continue_on_error" yaml:"continue_on_error" mapstructure:"continue_on_error"`
}

// Result is the outcome for one file. Exactly one of Analysis and Err is set.
type Result struct {
	Path     string                 `json:"path" yaml:"path"`
	Analysis *detector.FileAnalysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Err      error                  `json:"-" yaml:"-"`
	Elapsed  time.Duration          `json:"elapsed" yaml:"elapsed"`
}

// Runner analyzes many files with one analyzer per worker
type Runner struct {
	config       detector.Config
	loader       Loader
	options      Options
	analyzerOpts []detector.Option
	generator    *windowing.Generator
	logger       logging.Logger
}

// NewRunner validates config up front so a bad configuration fails before
// any file is read
func NewRunner(config detector.Config, loader Loader, options Options, opts ...detector.Option) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if loader == nil {
		return nil, common.InvalidParameter("batch.NewRunner", nil, "a sample loader")
	}
	if options.Workers < 1 {
		options.Workers = 1
	}

	generator := windowing.NewGenerator()

	return &Runner{
		config:  config,
		loader:  loader,
		options: options,
		// later options win, so the shared generator can still be overridden
		analyzerOpts: append([]detector.Option{detector.WithGenerator(generator)}, opts...),
		generator:    generator,
		logger: logging.WithFields(logging.Fields{
			"component": "batch_runner",
		}),
	}, nil
}

// SetLogger replaces the runner's logger
func (r *Runner) SetLogger(logger logging.Logger) {
	if logger != nil {
		r.logger = logger.WithFields(logging.Fields{"component": "batch_runner"})
	}
}

// Run analyzes paths and returns one result per path, in input order. The
// returned error is the first file failure when ContinueOnError is off, or
// the context error when the batch was cancelled.
func (r *Runner) Run(ctx context.Context, paths []string) ([]Result, error) {
	if len(paths) == 0 {
		return nil, common.InvalidParameter("batch.Run", 0, "at least one file")
	}

	workers := min(r.options.Workers, len(paths))

	logger := r.logger.WithFields(logging.Fields{
		"function": "Run",
		"files":    len(paths),
		"workers":  workers,
	})
	done := logging.Track(logger, "batch")

	pool, err := r.newPool(workers)
	if err != nil {
		logger.Error(err, "Failed to create analyzers")
		return nil, err
	}
	defer func() {
		close(pool)
		for a := range pool {
			a.Close()
		}
	}()

	results := make([]Result, len(paths))
	for i, path := range paths {
		results[i] = Result{Path: path, Err: ErrSkipped}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			analyzer := <-pool
			defer func() { pool <- analyzer }()

			results[i] = r.analyzeFile(gctx, analyzer, path)

			if err := results[i].Err; err != nil && !r.options.ContinueOnError {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}

	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	summary := Summarize(results)
	done(logging.Fields{
		"succeeded":   summary.Succeeded,
		"failed":      summary.Failed,
		"with_static": summary.WithStatic,
	})

	return results, err
}

func (r *Runner) newPool(workers int) (chan *detector.Analyzer, error) {
	pool := make(chan *detector.Analyzer, workers)

	for range workers {
		a, err := detector.NewAnalyzer(r.config, r.analyzerOpts...)
		if err != nil {
			close(pool)
			for created := range pool {
				created.Close()
			}
			return nil, err
		}
		pool <- a
	}

	return pool, nil
}

func (r *Runner) analyzeFile(ctx context.Context, analyzer *detector.Analyzer, path string) Result {
	start := time.Now()
	result := Result{Path: path}

	audio, err := r.loader.Load(ctx, path)
	if err != nil {
		r.logger.Error(err, "Failed to load file", logging.Fields{"path": path})
		result.Err = err
		result.Elapsed = time.Since(start)
		return result
	}

	rate := r.config.SampleRate
	if audio.SampleRate > 0 && audio.SampleRate != rate {
		r.logger.Warn("File sample rate differs from analysis sample rate, timing with the file rate", logging.Fields{
			"path":          path,
			"file_rate":     audio.SampleRate,
			"analysis_rate": r.config.SampleRate,
		})
		rate = audio.SampleRate
	}

	result.Analysis, result.Err = analyzer.AnalyzeAt(path, audio.Samples, rate)
	result.Elapsed = time.Since(start)

	return result
}
