package transcode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-static/algorithms/common"
	"github.com/RyanBlaney/sonido-static/logging"
)

// AudioMetadata holds detected audio properties from FFprobe
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
	Format     string  `json:"format"`
}

// Decoder converts compressed or container formats to mono signed 16-bit
// PCM using FFmpeg
type Decoder struct {
	ffmpegPath  string
	ffprobePath string
	sampleRate  int
	timeout     time.Duration
}

// NewDecoder creates a decoder from the loader configuration
func NewDecoder(config *LoaderConfig) *Decoder {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	return &Decoder{
		ffmpegPath:  config.FFmpegPath,
		ffprobePath: config.FFprobePath,
		sampleRate:  config.TargetSampleRate,
		timeout:     config.Timeout,
	}
}

// Available reports whether the ffmpeg binary can be found
func (d *Decoder) Available() bool {
	_, err := exec.LookPath(d.ffmpegPath)
	return err == nil
}

// ProbeAvailable reports whether the ffprobe binary can be found
func (d *Decoder) ProbeAvailable() bool {
	_, err := exec.LookPath(d.ffprobePath)
	return err == nil
}

// DecodeFile decodes filename to samples at the target sample rate
func (d *Decoder) DecodeFile(ctx context.Context, filename string) ([]int16, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeFile",
		"filename":  filename,
	})

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	args := d.buildFFmpegArgs(filename)
	cmd := exec.CommandContext(ctx, d.ffmpegPath, args...)

	logger.Debug("Running FFmpeg command", logging.Fields{
		"command": fmt.Sprintf("%s %s", d.ffmpegPath, strings.Join(args, " ")),
	})

	startTime := time.Now()
	output, err := cmd.Output()
	decodeTime := time.Since(startTime)

	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			logger.Error(err, "FFmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
			return nil, common.WrapData("transcode.DecodeFile",
				fmt.Errorf("ffmpeg decode failed: %w, stderr: %s", err, strings.TrimSpace(string(exitError.Stderr))))
		}
		return nil, common.WrapData("transcode.DecodeFile", fmt.Errorf("ffmpeg decode failed: %w", err))
	}

	logger.Debug("FFmpeg decode completed", logging.Fields{
		"output_bytes": len(output),
		"decode_time":  decodeTime.Seconds(),
	})

	// ffmpeg always writes s16le regardless of host order
	return DecodeRaw(output, LittleEndian)
}

func (d *Decoder) buildFFmpegArgs(filename string) []string {
	return []string{
		"-v", "error",
		"-i", filename,
		"-map", "0:a:0?",
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.sampleRate),
		"pipe:1",
	}
}

// Probe uses ffprobe to get audio information from a file
func (d *Decoder) Probe(ctx context.Context, filename string) (*AudioMetadata, error) {
	probeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		filename,
	}

	output, err := exec.CommandContext(probeCtx, d.ffprobePath, args...).Output()
	if err != nil {
		return nil, common.WrapData("transcode.Probe", fmt.Errorf("ffprobe failed: %w", err))
	}

	return parseFFprobeOutput(output)
}

func parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType     string `json:"codec_type"`
			CodecName     string `json:"codec_name"`
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			Duration      string `json:"duration"`
			BitRate       string `json:"bit_rate"`
			CodecLongName string `json:"codec_long_name"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found")
	}

	stream := probe.Streams[0]

	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil {
		sampleRate = 0
	}

	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}

	bitrate, err := strconv.Atoi(stream.BitRate)
	if err != nil {
		bitrate = 0
	}

	if stream.Channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
		Format:     stream.CodecLongName,
	}, nil
}
