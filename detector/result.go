package detector

import (
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-static/algorithms/windowing"
)

// Interval is a span of merged static windows, in seconds. End is exclusive
// and never past the end of the file.
type Interval struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// Duration returns End - Start
func (i Interval) Duration() float64 {
	return i.End - i.Start
}

// FileAnalysis is the result of scanning one file
type FileAnalysis struct {
	Source                string         `json:"source" yaml:"source"`
	FFTSize               int            `json:"fft_size" yaml:"fft_size"`
	Window                windowing.Spec `json:"window" yaml:"window"`
	Overlap               float64        `json:"overlap" yaml:"overlap"`
	SampleRate            int            `json:"sample_rate" yaml:"sample_rate"`
	HopSize               int            `json:"hop_size" yaml:"hop_size"`
	WindowDuration        float64        `json:"window_duration" yaml:"window_duration"` // seconds
	TotalSamples          int            `json:"total_samples" yaml:"total_samples"`
	WindowsAnalyzed       int            `json:"windows_analyzed" yaml:"windows_analyzed"`
	StaticOffsets         []int          `json:"static_offsets" yaml:"static_offsets"`                     // samples
	StaticChunkStartTimes []float64      `json:"static_chunk_start_times" yaml:"static_chunk_start_times"` // seconds
	Intervals             []Interval     `json:"intervals" yaml:"intervals"`
}

func newFileAnalysis(source string, config Config, sampleRate, total, windows int, offsets []int) *FileAnalysis {
	rate := float64(sampleRate)

	if offsets == nil {
		offsets = []int{}
	}

	times := make([]float64, len(offsets))
	for i, offset := range offsets {
		times[i] = float64(offset) / rate
	}

	return &FileAnalysis{
		Source:                source,
		FFTSize:               config.FFTSize,
		Window:                config.Window,
		Overlap:               config.Overlap,
		SampleRate:            sampleRate,
		HopSize:               config.HopSize(),
		WindowDuration:        float64(config.FFTSize) / rate,
		TotalSamples:          total,
		WindowsAnalyzed:       windows,
		StaticOffsets:         offsets,
		StaticChunkStartTimes: times,
		Intervals:             mergeIntervals(offsets, config.FFTSize, total, rate),
	}
}

// mergeIntervals joins windows [offset, offset+n) that overlap or touch
func mergeIntervals(offsets []int, n, total int, rate float64) []Interval {
	intervals := []Interval{}
	if len(offsets) == 0 {
		return intervals
	}

	start, end := offsets[0], min(offsets[0]+n, total)

	for _, offset := range offsets[1:] {
		if offset <= end {
			end = min(offset+n, total)
			continue
		}
		intervals = append(intervals, Interval{Start: float64(start) / rate, End: float64(end) / rate})
		start, end = offset, min(offset+n, total)
	}

	return append(intervals, Interval{Start: float64(start) / rate, End: float64(end) / rate})
}

// Duration returns the file length in seconds
func (f *FileAnalysis) Duration() float64 {
	return float64(f.TotalSamples) / float64(f.SampleRate)
}

// StaticFraction returns the share of analyzed windows flagged as static
func (f *FileAnalysis) StaticFraction() float64 {
	if f.WindowsAnalyzed == 0 {
		return 0
	}
	return float64(len(f.StaticOffsets)) / float64(f.WindowsAnalyzed)
}

// HasStatic reports whether any window was flagged
func (f *FileAnalysis) HasStatic() bool {
	return len(f.StaticOffsets) > 0
}

// FormatTimes joins the flagged start times with the given decimal precision
func (f *FileAnalysis) FormatTimes(precision int) string {
	parts := make([]string, len(f.StaticChunkStartTimes))
	for i, t := range f.StaticChunkStartTimes {
		parts[i] = fmt.Sprintf("%.*f", precision, t)
	}
	return strings.Join(parts, ", ")
}

// Text renders the plain report with times at the given decimal precision
func (f *FileAnalysis) Text(precision int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "File: %s\n", f.Source)
	fmt.Fprintf(&b, "FFT size: %d\n", f.FFTSize)
	fmt.Fprintf(&b, "Window: %s\n", f.Window)
	fmt.Fprintf(&b, "Overlap: %.4g%%\n", f.Overlap*100)
	fmt.Fprintf(&b, "Chunk length (seconds): %.*f\n", precision, f.WindowDuration)
	fmt.Fprintf(&b, "Staticky chunk start times: [%s]", f.FormatTimes(precision))

	return b.String()
}

func (f *FileAnalysis) String() string {
	return f.Text(2)
}
