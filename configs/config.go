package configs

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-static/algorithms/spectral"
	"github.com/RyanBlaney/sonido-static/algorithms/windowing"
	"github.com/RyanBlaney/sonido-static/batch"
	"github.com/RyanBlaney/sonido-static/detector"
	"github.com/RyanBlaney/sonido-static/logging"
	"github.com/RyanBlaney/sonido-static/transcode"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose" yaml:"verbose"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`

	// Static detection parameters
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`

	// FFT backend selection and plan cache
	Transform TransformConfig `mapstructure:"transform" yaml:"transform"`

	// File loading
	Input InputConfig `mapstructure:"input" yaml:"input"`

	// Batch execution
	Batch batch.Options `mapstructure:"batch" yaml:"batch"`

	// Output formatting
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

// AnalysisConfig contains the detector settings
type AnalysisConfig struct {
	FFTSize    int     `mapstructure:"fft_size" yaml:"fft_size"`
	Window     string  `mapstructure:"window" yaml:"window"`
	Sigma      float64 `mapstructure:"sigma" yaml:"sigma"`
	Overlap    float64 `mapstructure:"overlap" yaml:"overlap"`
	SampleRate int     `mapstructure:"sample_rate" yaml:"sample_rate"`
	Threshold  float64 `mapstructure:"threshold" yaml:"threshold"`
}

// TransformConfig contains FFT planning settings
type TransformConfig struct {
	Backend  string `mapstructure:"backend" yaml:"backend"`   // empty lets the planner choose
	Planning string `mapstructure:"planning" yaml:"planning"` // "estimate", "measure"
	Wisdom   string `mapstructure:"wisdom" yaml:"wisdom"`     // plan database path, empty for none
}

// InputConfig contains file loading settings
type InputConfig struct {
	ByteOrder   string        `mapstructure:"byte_order" yaml:"byte_order"`
	FFmpegPath  string        `mapstructure:"ffmpeg_path" yaml:"ffmpeg_path"`
	FFprobePath string        `mapstructure:"ffprobe_path" yaml:"ffprobe_path"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Precision int `mapstructure:"precision" yaml:"precision"`
}

// SetDefaults sets default configuration values
func SetDefaults(v *viper.Viper) {
	// Application defaults
	v.SetDefault("verbose", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("output_format", "text")

	// Analysis defaults
	v.SetDefault("analysis.fft_size", detector.DefaultFFTSize)
	v.SetDefault("analysis.window", string(windowing.WindowHann))
	v.SetDefault("analysis.sigma", windowing.DefaultGaussianSigma)
	v.SetDefault("analysis.overlap", detector.DefaultOverlap)
	v.SetDefault("analysis.sample_rate", detector.DefaultSampleRate)
	v.SetDefault("analysis.threshold", detector.DefaultStaticThreshold)

	// Transform defaults
	v.SetDefault("transform.backend", "")
	v.SetDefault("transform.planning", string(spectral.PlanEstimate))
	v.SetDefault("transform.wisdom", "")

	// Input defaults
	v.SetDefault("input.byte_order", string(transcode.LittleEndian))
	v.SetDefault("input.ffmpeg_path", "ffmpeg")
	v.SetDefault("input.ffprobe_path", "ffprobe")
	v.SetDefault("input.timeout", "30s")

	// Batch defaults
	v.SetDefault("batch.workers", 1)
	v.SetDefault("batch.continue_on_error", false)

	// Output defaults
	v.SetDefault("output.precision", 2)
}

// Default returns the configuration produced by SetDefaults alone
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	config, _ := Load(v)
	return config
}

// Load decodes configuration from v
func Load(v *viper.Viper) (*Config, error) {
	config := &Config{}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}

	switch strings.ToLower(c.OutputFormat) {
	case "text", "table", "json", "yaml":
	default:
		return fmt.Errorf("invalid output_format %q, must be one of text, table, json, yaml", c.OutputFormat)
	}

	if _, err := c.ToAnalysisConfig(); err != nil {
		return err
	}

	if c.Transform.Backend != "" {
		if _, err := spectral.ParseBackend(c.Transform.Backend); err != nil {
			return err
		}
	}
	if _, err := spectral.ParsePlanningMode(c.Transform.Planning); err != nil {
		return err
	}

	if _, err := transcode.ParseByteOrder(c.Input.ByteOrder); err != nil {
		return err
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch workers must be at least 1, got %d", c.Batch.Workers)
	}

	if c.Output.Precision < 0 || c.Output.Precision > 9 {
		return fmt.Errorf("output precision must be between 0 and 9, got %d", c.Output.Precision)
	}

	return nil
}

// WindowSpec resolves the configured window
func (c *Config) WindowSpec() (windowing.Spec, error) {
	t, err := windowing.ParseType(c.Analysis.Window)
	if err != nil {
		return windowing.Spec{}, err
	}

	spec := windowing.NewSpec(t)
	if t == windowing.WindowGaussian {
		spec.Sigma = c.Analysis.Sigma
	}
	return spec, nil
}

// ToAnalysisConfig builds and validates the detector configuration
func (c *Config) ToAnalysisConfig() (detector.Config, error) {
	spec, err := c.WindowSpec()
	if err != nil {
		return detector.Config{}, err
	}

	config := detector.Config{
		FFTSize:    c.Analysis.FFTSize,
		Window:     spec,
		Overlap:    c.Analysis.Overlap,
		SampleRate: c.Analysis.SampleRate,
	}

	if err := config.Validate(); err != nil {
		return detector.Config{}, err
	}

	return config, nil
}

// LoaderConfig builds the file loader configuration
func (c *Config) LoaderConfig() (*transcode.LoaderConfig, error) {
	order, err := transcode.ParseByteOrder(c.Input.ByteOrder)
	if err != nil {
		return nil, err
	}

	return &transcode.LoaderConfig{
		ByteOrder:        order,
		FFmpegPath:       c.Input.FFmpegPath,
		FFprobePath:      c.Input.FFprobePath,
		TargetSampleRate: c.Analysis.SampleRate,
		Timeout:          c.Input.Timeout,
	}, nil
}

// WriteYAML writes the configuration as a YAML document
func WriteYAML(w io.Writer, c *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	return enc.Close()
}
