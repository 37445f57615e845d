package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/sonido-static/algorithms/common"
	"github.com/RyanBlaney/sonido-static/algorithms/spectral"
	"github.com/RyanBlaney/sonido-static/batch"
	"github.com/RyanBlaney/sonido-static/configs"
	"github.com/RyanBlaney/sonido-static/detector"
	"github.com/RyanBlaney/sonido-static/logging"
	"github.com/RyanBlaney/sonido-static/output"
	"github.com/RyanBlaney/sonido-static/transcode"
	"github.com/RyanBlaney/sonido-static/wisdom"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] files...",
	Short: "Report the static windows of one or more files",
	Long: `Analyze each file and print the start time of every window classified
as static.

Examples:
  # Defaults: 1024-point Hann windows, 50% overlap, 8 kHz raw PCM
  sonido-static analyze recording.raw

  # Big-endian input, no window function, quarter overlap
  sonido-static analyze --byte-order big --window none --overlap 0.25 capture.pcm

  # Four workers, keep going past bad files, JSON output
  sonido-static analyze --workers 4 --continue-on-error -o json *.wav

  # Measure FFT backends once and reuse the choice on later runs
  sonido-static analyze --planning measure --wisdom ~/.cache/sonido/wisdom.db a.raw`,
	RunE: runAnalyze,
}

func init() {
	flags := analyzeCmd.Flags()

	flags.Int("fft-size", detector.DefaultFFTSize, "analysis window length in samples")
	flags.String("window", "hann", "window function (none, triangular, hann, hamming, blackman, flattop, gaussian)")
	flags.Float64("sigma", 0.4, "gaussian window width")
	flags.Float64("overlap", detector.DefaultOverlap, "window overlap fraction in [0, 0.9]")
	flags.Int("sample-rate", detector.DefaultSampleRate, "sample rate in Hz used to convert offsets to seconds")
	flags.Float64("threshold", detector.DefaultStaticThreshold, "magnitude every bin must exceed")
	flags.String("backend", "", "force an FFT backend (gonum, go-dsp)")
	flags.String("planning", "estimate", "FFT planning mode (estimate, measure)")
	flags.Int("workers", 1, "files analyzed concurrently")
	flags.Bool("continue-on-error", false, "keep going after a file fails")
	flags.String("byte-order", "little", "byte order of raw PCM input (little, big)")
	flags.String("ffmpeg", "ffmpeg", "path to the ffmpeg binary")

	bindings := map[string]string{
		"analysis.fft_size":       "fft-size",
		"analysis.window":         "window",
		"analysis.sigma":          "sigma",
		"analysis.overlap":        "overlap",
		"analysis.sample_rate":    "sample-rate",
		"analysis.threshold":      "threshold",
		"transform.backend":       "backend",
		"transform.planning":      "planning",
		"batch.workers":           "workers",
		"batch.continue_on_error": "continue-on-error",
		"input.byte_order":        "byte-order",
		"input.ffmpeg_path":       "ffmpeg",
	}
	bindFlags(flags, bindings)

	rootCmd.AddCommand(analyzeCmd)
}

// bindFlags binds each config key to the named flag
func bindFlags(flags *pflag.FlagSet, bindings map[string]string) {
	for key, name := range bindings {
		if flag := flags.Lookup(name); flag != nil {
			viper.BindPFlag(key, flag)
		}
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return common.InvalidParameter("analyze", 0, "at least one file")
	}

	config, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.WithFields(logging.Fields{
		"component": "cli",
		"command":   "analyze",
	})

	analysisConfig, err := config.ToAnalysisConfig()
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(config.OutputFormat)
	if err != nil {
		return err
	}

	opts, closeStore, err := analyzerOptions(config, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	loaderConfig, err := config.LoaderConfig()
	if err != nil {
		return err
	}

	runner, err := batch.NewRunner(analysisConfig, transcode.NewLoader(loaderConfig), config.Batch, opts...)
	if err != nil {
		return err
	}
	runner.SetLogger(logger)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, runErr := runner.Run(ctx, args)

	if results != nil {
		if err := output.Render(cmd.OutOrStdout(), results, format, config.Output.Precision); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
	}

	if runErr != nil {
		return runErr
	}

	if summary := batch.Summarize(results); summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Files)
	}

	return nil
}

// analyzerOptions wires the threshold, backend and plan cache. A plan
// database that cannot be opened only costs speed, so it is logged and
// skipped.
func analyzerOptions(config *configs.Config, logger logging.Logger) ([]detector.Option, func(), error) {
	opts := []detector.Option{
		detector.WithThreshold(config.Analysis.Threshold),
	}
	noop := func() {}

	if config.Transform.Backend != "" {
		backend, err := spectral.ParseBackend(config.Transform.Backend)
		if err != nil {
			return nil, noop, err
		}
		return append(opts, detector.WithBackend(backend)), noop, nil
	}

	mode, err := spectral.ParsePlanningMode(config.Transform.Planning)
	if err != nil {
		return nil, noop, err
	}

	store, err := wisdom.Open(config.Transform.Wisdom)
	if err != nil {
		logger.Warn("Plan database unavailable, planning without it", logging.Fields{
			"path":  config.Transform.Wisdom,
			"error": err.Error(),
		})
		planner := spectral.NewPlanner(nil, mode)
		planner.SetLogger(logger)
		return append(opts, detector.WithPlanner(planner)), noop, nil
	}

	planner := spectral.NewPlanner(store, mode)
	planner.SetLogger(logger)
	return append(opts, detector.WithPlanner(planner)), func() { store.Close() }, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
