package transcode

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-static/algorithms/common"
	"github.com/RyanBlaney/sonido-static/logging"
)

// Format identifies how a file is turned into samples
type Format string

const (
	FormatRaw    Format = "raw"
	FormatWAV    Format = "wav"
	FormatFFmpeg Format = "ffmpeg"
)

// FormatFor picks the decoder for path from its extension. Files without an
// extension are treated as headerless PCM.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case "", ".raw", ".pcm", ".s16", ".sw":
		return FormatRaw
	case ".wav", ".wave":
		return FormatWAV
	default:
		return FormatFFmpeg
	}
}

// LoaderConfig holds loader configuration
type LoaderConfig struct {
	ByteOrder        ByteOrder     `json:"byte_order" yaml:"byte_order" mapstructure:"byte_order"`
	FFmpegPath       string        `json:"ffmpeg_path" yaml:"ffmpeg_path" mapstructure:"ffmpeg_path"`
	FFprobePath      string        `json:"ffprobe_path" yaml:"ffprobe_path" mapstructure:"ffprobe_path"`
	TargetSampleRate int           `json:"target_sample_rate" yaml:"target_sample_rate" mapstructure:"target_sample_rate"`
	Timeout          time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// DefaultLoaderConfig returns default loader configuration
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		ByteOrder:        LittleEndian,
		FFmpegPath:       "ffmpeg",  // Assume in PATH
		FFprobePath:      "ffprobe", // Assume in PATH
		TargetSampleRate: 8000,
		Timeout:          30 * time.Second,
	}
}

// AudioData is one file's samples, fully materialized
type AudioData struct {
	Samples    []int16       `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"` // channels in the source; Samples is always mono
	Duration   time.Duration `json:"duration"`
	Source     string        `json:"source"`
	Format     Format        `json:"format"`

	// Set when ffprobe could describe an ffmpeg-decoded file
	SourceSampleRate int    `json:"source_sample_rate,omitempty"`
	Codec            string `json:"codec,omitempty"`
}

// Loader reads audio files into memory
type Loader struct {
	config  *LoaderConfig
	decoder *Decoder
	logger  logging.Logger
}

// NewLoader creates a loader
func NewLoader(config *LoaderConfig) *Loader {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	return &Loader{
		config:  config,
		decoder: NewDecoder(config),
		logger: logging.WithFields(logging.Fields{
			"component": "audio_loader",
		}),
	}
}

// Config returns the loader configuration
func (l *Loader) Config() *LoaderConfig {
	return l.config
}

// Load reads path into memory. Missing files, directories, undecodable data
// and empty files are data errors.
func (l *Loader) Load(ctx context.Context, path string) (*AudioData, error) {
	logger := l.logger.WithFields(logging.Fields{
		"function": "Load",
		"path":     path,
	})

	info, err := os.Stat(path)
	if err != nil {
		logger.Error(err, "Cannot stat input file")
		return nil, common.WrapData("transcode.Load", err)
	}
	if !info.Mode().IsRegular() {
		return nil, common.Data("transcode.Load", path, "a regular file")
	}

	format := FormatFor(path)
	audio := &AudioData{
		Source:     path,
		Format:     format,
		SampleRate: l.config.TargetSampleRate,
		Channels:   1,
	}

	switch format {
	case FormatRaw:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, common.WrapData("transcode.Load", err)
		}
		audio.Samples, err = DecodeRaw(data, l.config.ByteOrder)
		if err != nil {
			logger.Error(err, "Malformed PCM data", logging.Fields{"bytes": len(data)})
			return nil, err
		}

	case FormatWAV:
		f, err := os.Open(path)
		if err != nil {
			return nil, common.WrapData("transcode.Load", err)
		}
		defer f.Close()

		wav, err := decodeWAV(f)
		if err != nil {
			logger.Error(err, "Failed to decode WAV file")
			return nil, err
		}
		audio.Samples = wav.samples
		audio.SampleRate = wav.sampleRate
		audio.Channels = wav.channels

		if wav.channels > 1 {
			logger.Warn("Multi-channel WAV, analyzing the first channel only", logging.Fields{
				"channels": wav.channels,
			})
		}

	case FormatFFmpeg:
		audio.Samples, err = l.decoder.DecodeFile(ctx, path)
		if err != nil {
			return nil, err
		}
		l.describe(ctx, audio, logger)
	}

	if len(audio.Samples) == 0 {
		return nil, common.Data("transcode.Load", 0, "at least one sample")
	}

	if audio.SampleRate > 0 {
		audio.Duration = time.Duration(len(audio.Samples)) * time.Second / time.Duration(audio.SampleRate)
	}

	logger.Debug("Audio loaded", logging.Fields{
		"format":      format,
		"samples":     len(audio.Samples),
		"sample_rate": audio.SampleRate,
		"duration":    audio.Duration.Seconds(),
	})

	return audio, nil
}

// describe fills in source properties from ffprobe. The samples are already
// decoded, so a missing or failing ffprobe only leaves them unset.
func (l *Loader) describe(ctx context.Context, audio *AudioData, logger logging.Logger) {
	if !l.decoder.ProbeAvailable() {
		logger.Debug("ffprobe not found, source properties unknown", logging.Fields{
			"ffprobe": l.config.FFprobePath,
		})
		return
	}

	meta, err := l.decoder.Probe(ctx, audio.Source)
	if err != nil {
		logger.Warn("Could not probe source file", logging.Fields{"error": err.Error()})
		return
	}

	audio.Channels = meta.Channels
	audio.SourceSampleRate = meta.SampleRate
	audio.Codec = meta.Codec

	if meta.Channels > 1 {
		logger.Info("Downmixed source to mono", logging.Fields{
			"channels": meta.Channels,
			"codec":    meta.Codec,
		})
	}
	if meta.SampleRate > 0 && meta.SampleRate != audio.SampleRate {
		logger.Debug("Resampled source", logging.Fields{
			"source_rate": meta.SampleRate,
			"target_rate": audio.SampleRate,
		})
	}
}
