package detector

import (
	"bytes"
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/RyanBlaney/sonido-static/algorithms/common"
	"github.com/RyanBlaney/sonido-static/algorithms/spectral"
	"github.com/RyanBlaney/sonido-static/algorithms/windowing"
	"github.com/RyanBlaney/sonido-static/logging"
)

var quiet = &logging.NoOpLogger{}

func noneConfig() Config {
	cfg := DefaultConfig()
	cfg.Window = windowing.NewSpec(windowing.WindowNone)
	return cfg
}

// impulses builds a 2048-sample buffer whose every 1024-sample window at a
// multiple of 512 holds two impulses 512 apart, so every bin of every
// window has magnitude |a ± b| >= 16767
func impulses() []int16 {
	samples := make([]int16, 2048)
	samples[0] = 32767
	samples[512] = 16000
	samples[1024] = 32767
	samples[1536] = 16000
	return samples
}

func newTestAnalyzer(t *testing.T, cfg Config, opts ...Option) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(cfg, append([]Option{WithLogger(quiet)}, opts...)...)
	if err != nil {
		t.Fatalf("NewAnalyzer(%+v) error = %v", cfg, err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"zero overlap", func(c *Config) { c.Overlap = 0 }, false},
		{"max overlap", func(c *Config) { c.Overlap = 0.9 }, false},
		{"fft size zero", func(c *Config) { c.FFTSize = 0 }, true},
		{"fft size negative", func(c *Config) { c.FFTSize = -8 }, true},
		{"overlap negative", func(c *Config) { c.Overlap = -0.1 }, true},
		{"overlap too large", func(c *Config) { c.Overlap = 0.95 }, true},
		{"overlap NaN", func(c *Config) { c.Overlap = math.NaN() }, true},
		{"hop rounds to zero", func(c *Config) { c.FFTSize = 5; c.Overlap = 0.9 }, true},
		{"sample rate zero", func(c *Config) { c.SampleRate = 0 }, true},
		{"gaussian without sigma", func(c *Config) { c.Window = windowing.Spec{Type: windowing.WindowGaussian} }, true},
		{"hann size one", func(c *Config) { c.FFTSize = 1; c.Overlap = 0 }, true},
		{"none size one", func(c *Config) {
			c.FFTSize = 1
			c.Overlap = 0
			c.Window = windowing.NewSpec(windowing.WindowNone)
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, common.ErrInvalidParameter) {
				t.Errorf("Validate() error = %v, want invalid parameter", err)
			}
		})
	}
}

func TestHopSize(t *testing.T) {
	tests := []struct {
		n       int
		overlap float64
		want    int
	}{
		{1024, 0.5, 512},
		{1024, 0, 1024},
		{1024, 0.75, 256},
		{1024, 0.9, 102},
		{10, 0.9, 1},
		{3, 0.5, 1},
	}

	for _, tt := range tests {
		cfg := Config{FFTSize: tt.n, Overlap: tt.overlap}
		if got := cfg.HopSize(); got != tt.want {
			t.Errorf("HopSize(%d, %v) = %d, want %d", tt.n, tt.overlap, got, tt.want)
		}
	}
}

func TestSegments(t *testing.T) {
	tests := []struct {
		name  string
		total int
		n     int
		hop   int
		want  []Segment
	}{
		{
			name:  "exactly one window",
			total: 1024, n: 1024, hop: 512,
			want: []Segment{{Start: 0, Length: 1024, Terminal: true}},
		},
		{
			name:  "shorter than window",
			total: 100, n: 1024, hop: 512,
			want: []Segment{{Start: 0, Length: 100, Terminal: true}},
		},
		{
			name:  "half overlap with remainder",
			total: 2048, n: 1024, hop: 512,
			want: []Segment{
				{Start: 0, Length: 1024},
				{Start: 512, Length: 1024},
				{Start: 1024, Length: 1024},
				{Start: 1536, Length: 512, Terminal: true},
			},
		},
		{
			name:  "no overlap tiles exactly",
			total: 2048, n: 1024, hop: 1024,
			want: []Segment{
				{Start: 0, Length: 1024},
				{Start: 1024, Length: 1024},
			},
		},
		{
			name:  "no overlap with remainder",
			total: 2500, n: 1024, hop: 1024,
			want: []Segment{
				{Start: 0, Length: 1024},
				{Start: 1024, Length: 1024},
				{Start: 2048, Length: 452, Terminal: true},
			},
		},
		{
			name:  "remainder steps by hop",
			total: 1300, n: 1024, hop: 256,
			want: []Segment{
				{Start: 0, Length: 1024},
				{Start: 256, Length: 1024},
				{Start: 512, Length: 788, Terminal: true},
			},
		},
		{
			name:  "one sample past the window",
			total: 1025, n: 1024, hop: 1024,
			want: []Segment{
				{Start: 0, Length: 1024},
				{Start: 1024, Length: 1, Terminal: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Segments(tt.total, tt.n, tt.hop)
			if err != nil {
				t.Fatalf("Segments(%d, %d, %d) error = %v", tt.total, tt.n, tt.hop, err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Segments(%d, %d, %d) = %+v, want %+v", tt.total, tt.n, tt.hop, got, tt.want)
			}
		})
	}
}

func TestSegmentsErrors(t *testing.T) {
	if _, err := Segments(0, 1024, 512); !errors.Is(err, common.ErrData) {
		t.Errorf("Segments(0, ...) error = %v, want data error", err)
	}
	if _, err := Segments(100, 1024, 0); !errors.Is(err, common.ErrInvalidParameter) {
		t.Errorf("Segments with hop 0 error = %v, want invalid parameter", err)
	}
	if _, err := Segments(100, 0, 1); !errors.Is(err, common.ErrInvalidParameter) {
		t.Errorf("Segments with n 0 error = %v, want invalid parameter", err)
	}
}

func TestSegmentsCoverEverySample(t *testing.T) {
	for _, n := range []int{1, 7, 64, 1024} {
		for _, hop := range []int{1, 3, n/2 + 1, n} {
			if hop < 1 || hop > n {
				continue
			}
			for _, total := range []int{1, n - 1, n, n + 1, 3*n + 5, 10 * n} {
				if total < 1 {
					continue
				}
				segments, err := Segments(total, n, hop)
				if err != nil {
					t.Fatalf("Segments(%d, %d, %d) error = %v", total, n, hop, err)
				}

				covered := make([]bool, total)
				prev := -1
				for i, seg := range segments {
					if seg.Start <= prev {
						t.Fatalf("Segments(%d, %d, %d): start %d not increasing", total, n, hop, seg.Start)
					}
					prev = seg.Start
					wantTerminal := i == len(segments)-1 && (total <= n || seg.Length < n)
					if seg.Terminal != wantTerminal {
						t.Errorf("Segments(%d, %d, %d): unexpected terminal flag on %+v", total, n, hop, seg)
					}
					if seg.Start+seg.Length > total || seg.Length > n {
						t.Fatalf("Segments(%d, %d, %d): segment %+v out of range", total, n, hop, seg)
					}
					for j := seg.Start; j < seg.Start+seg.Length; j++ {
						covered[j] = true
					}
				}
				for j, ok := range covered {
					if !ok {
						t.Fatalf("Segments(%d, %d, %d): sample %d not covered", total, n, hop, j)
					}
				}
			}
		}
	}
}

func TestThresholdClassifier(t *testing.T) {
	c := NewThresholdClassifier(1000)

	tests := []struct {
		name     string
		spectrum []float64
		want     bool
	}{
		{"all above", []float64{1001, 5000, 1000.5}, true},
		{"all exactly at threshold", []float64{1000, 1000, 1000}, false},
		{"one below", []float64{2000, 999, 2000}, false},
		{"one at threshold", []float64{2000, 1000, 2000}, false},
		{"all zero", []float64{0, 0, 0}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsStatic(tt.spectrum); got != tt.want {
				t.Errorf("IsStatic(%v) = %v, want %v", tt.spectrum, got, tt.want)
			}
		})
	}

	// no bins means nothing to exceed, whatever the threshold
	if NewThresholdClassifier(math.Inf(-1)).IsStatic([]float64{}) {
		t.Error("IsStatic(empty) with -Inf threshold = true, want false")
	}
}

func TestScanAllZeroBuffer(t *testing.T) {
	a := newTestAnalyzer(t, DefaultConfig())

	result, err := a.Analyze("silence.raw", make([]int16, 2048))
	if err != nil {
		t.Fatalf("Analyze error = %v", err)
	}

	if result.WindowsAnalyzed != 4 {
		t.Errorf("WindowsAnalyzed = %d, want 4", result.WindowsAnalyzed)
	}
	if len(result.StaticChunkStartTimes) != 0 {
		t.Errorf("StaticChunkStartTimes = %v, want empty", result.StaticChunkStartTimes)
	}
	if result.StaticFraction() != 0 {
		t.Errorf("StaticFraction() = %v, want 0", result.StaticFraction())
	}
}

func TestScanFullAmplitudeImpulses(t *testing.T) {
	a := newTestAnalyzer(t, noneConfig())

	result, err := a.Analyze("impulses.raw", impulses())
	if err != nil {
		t.Fatalf("Analyze error = %v", err)
	}

	wantOffsets := []int{0, 512, 1024, 1536}
	if !slices.Equal(result.StaticOffsets, wantOffsets) {
		t.Errorf("StaticOffsets = %v, want %v", result.StaticOffsets, wantOffsets)
	}

	wantTimes := []float64{0, 0.064, 0.128, 0.192}
	if len(result.StaticChunkStartTimes) != len(wantTimes) {
		t.Fatalf("StaticChunkStartTimes = %v, want %v", result.StaticChunkStartTimes, wantTimes)
	}
	for i, want := range wantTimes {
		if math.Abs(result.StaticChunkStartTimes[i]-want) > 1e-12 {
			t.Errorf("StaticChunkStartTimes[%d] = %v, want %v", i, result.StaticChunkStartTimes[i], want)
		}
	}

	if result.StaticFraction() != 1 {
		t.Errorf("StaticFraction() = %v, want 1", result.StaticFraction())
	}
	wantIntervals := []Interval{{Start: 0, End: 0.256}}
	if !slices.Equal(result.Intervals, wantIntervals) {
		t.Errorf("Intervals = %v, want %v", result.Intervals, wantIntervals)
	}
}

func TestAnalyzeAtFileSampleRate(t *testing.T) {
	a := newTestAnalyzer(t, noneConfig())

	result, err := a.AnalyzeAt("impulses.wav", impulses(), 16000)
	if err != nil {
		t.Fatalf("AnalyzeAt error = %v", err)
	}

	if result.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", result.SampleRate)
	}
	if math.Abs(result.WindowDuration-0.064) > 1e-12 {
		t.Errorf("WindowDuration = %v, want 0.064", result.WindowDuration)
	}
	if want := []int{0, 512, 1024, 1536}; !slices.Equal(result.StaticOffsets, want) {
		t.Errorf("StaticOffsets = %v, want %v", result.StaticOffsets, want)
	}

	wantTimes := []float64{0, 0.032, 0.064, 0.096}
	if len(result.StaticChunkStartTimes) != len(wantTimes) {
		t.Fatalf("StaticChunkStartTimes = %v, want %v", result.StaticChunkStartTimes, wantTimes)
	}
	for i, want := range wantTimes {
		if math.Abs(result.StaticChunkStartTimes[i]-want) > 1e-12 {
			t.Errorf("StaticChunkStartTimes[%d] = %v, want %v", i, result.StaticChunkStartTimes[i], want)
		}
	}
	if want := []Interval{{Start: 0, End: 0.128}}; !slices.Equal(result.Intervals, want) {
		t.Errorf("Intervals = %v, want %v", result.Intervals, want)
	}

	for _, rate := range []int{0, -8000} {
		if _, err := a.AnalyzeAt("impulses.wav", impulses(), rate); !errors.Is(err, common.ErrInvalidParameter) {
			t.Errorf("AnalyzeAt(rate %d) error = %v, want invalid parameter", rate, err)
		}
	}
}

func TestScanConstantFullScaleIsNotStatic(t *testing.T) {
	// a constant signal only has energy in bin 0
	samples := make([]int16, 2048)
	for i := range samples {
		samples[i] = math.MaxInt16
	}

	a := newTestAnalyzer(t, noneConfig())
	offsets, err := a.Scan(samples)
	if err != nil {
		t.Fatalf("Scan error = %v", err)
	}
	if len(offsets) != 0 {
		t.Errorf("Scan(constant) = %v, want no static windows", offsets)
	}
}

func TestScanEmptyBuffer(t *testing.T) {
	a := newTestAnalyzer(t, DefaultConfig())

	if _, err := a.Scan(nil); !errors.Is(err, common.ErrData) {
		t.Errorf("Scan(nil) error = %v, want data error", err)
	}
	if _, err := a.Analyze("empty.raw", []int16{}); !errors.Is(err, common.ErrData) {
		t.Errorf("Analyze(empty) error = %v, want data error", err)
	}
}

func TestScanShortFile(t *testing.T) {
	a := newTestAnalyzer(t, noneConfig())

	samples := make([]int16, 100)
	samples[0] = 20000

	result, err := a.Analyze("short.raw", samples)
	if err != nil {
		t.Fatalf("Analyze error = %v", err)
	}
	if result.WindowsAnalyzed != 1 {
		t.Errorf("WindowsAnalyzed = %d, want 1", result.WindowsAnalyzed)
	}
	// a lone impulse, zero-padded, has a flat spectrum at its amplitude
	if !slices.Equal(result.StaticOffsets, []int{0}) {
		t.Errorf("StaticOffsets = %v, want [0]", result.StaticOffsets)
	}
	if got := result.Intervals; len(got) != 1 || math.Abs(got[0].End-100.0/8000) > 1e-12 {
		t.Errorf("Intervals = %v, want one interval clipped to the file", got)
	}
}

func TestScanReusesPaddingBuffer(t *testing.T) {
	// the terminal window must not see samples left over from the previous
	// full window
	cfg := noneConfig()
	cfg.Overlap = 0

	samples := make([]int16, 1024+10)
	for i := range 1024 {
		samples[i] = int16((i * 7919) % 30000)
	}
	samples[1024] = 25000

	a := newTestAnalyzer(t, cfg)
	offsets, err := a.Scan(samples)
	if err != nil {
		t.Fatalf("Scan error = %v", err)
	}
	if !slices.Contains(offsets, 1024) {
		t.Errorf("Scan = %v, want terminal impulse window at 1024 flagged", offsets)
	}
}

func TestScanDeterministicAndMonotonic(t *testing.T) {
	samples := make([]int16, 20000)
	seed := uint32(12345)
	for i := range samples {
		seed = seed*1664525 + 1013904223
		samples[i] = int16(seed >> 16)
	}

	a := newTestAnalyzer(t, Config{
		FFTSize:    256,
		Window:     windowing.NewSpec(windowing.WindowNone),
		Overlap:    0.25,
		SampleRate: 8000,
	}, WithThreshold(100))

	first, err := a.Scan(samples)
	if err != nil {
		t.Fatalf("Scan error = %v", err)
	}
	second, err := a.Scan(samples)
	if err != nil {
		t.Fatalf("Scan error = %v", err)
	}

	if !slices.Equal(first, second) {
		t.Errorf("repeated scans differ: %v vs %v", first, second)
	}
	for i := 1; i < len(first); i++ {
		if first[i] <= first[i-1] {
			t.Fatalf("offsets not strictly increasing: %v", first)
		}
	}
}

func TestNoneWindowMatchesAllOnes(t *testing.T) {
	samples := make([]int16, 3000)
	for i := range samples {
		samples[i] = int16((i*31)%4001 - 2000)
	}

	cfg := noneConfig()
	cfg.FFTSize = 512

	var got [][]float64
	capture := ClassifierFunc(func(spectrum []float64) bool {
		got = append(got, slices.Clone(spectrum))
		return false
	})

	a := newTestAnalyzer(t, cfg, WithClassifier(capture))
	if _, err := a.Scan(samples); err != nil {
		t.Fatalf("Scan error = %v", err)
	}

	segments, err := Segments(len(samples), cfg.FFTSize, cfg.HopSize())
	if err != nil {
		t.Fatalf("Segments error = %v", err)
	}
	if len(got) != len(segments) {
		t.Fatalf("classified %d windows, want %d", len(got), len(segments))
	}

	tr, err := spectral.NewTransformer(cfg.FFTSize)
	if err != nil {
		t.Fatalf("NewTransformer error = %v", err)
	}
	defer tr.Close()

	for i, seg := range segments {
		buf := make([]float64, cfg.FFTSize)
		for j := range seg.Length {
			buf[j] = float64(samples[seg.Start+j]) * 1.0
		}
		want := make([]float64, tr.Bins())
		if err := tr.Transform(buf, want); err != nil {
			t.Fatalf("Transform error = %v", err)
		}
		if !slices.Equal(got[i], want) {
			t.Errorf("window %d spectrum differs from all-ones windowing", i)
		}
	}
}

func TestInjectedThreshold(t *testing.T) {
	// zero magnitudes exceed a negative threshold
	a := newTestAnalyzer(t, DefaultConfig(), WithThreshold(-1))

	offsets, err := a.Scan(make([]int16, 2048))
	if err != nil {
		t.Fatalf("Scan error = %v", err)
	}
	if !slices.Equal(offsets, []int{0, 512, 1024, 1536}) {
		t.Errorf("Scan = %v, want all four windows", offsets)
	}
}

func TestNewAnalyzerWarnsOnOddFFTSize(t *testing.T) {
	tests := []struct {
		size     int
		wantWarn bool
	}{
		{1024, false},
		{1000, true},
		{7, true},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		cfg := noneConfig()
		cfg.FFTSize = tt.size

		a, err := NewAnalyzer(cfg, WithLogger(logging.NewWriterLogger(&out, &out, logging.WarnLevel)))
		if err != nil {
			t.Fatalf("NewAnalyzer(size %d) error = %v", tt.size, err)
		}
		a.Close()

		warned := strings.Contains(out.String(), "not a power of two")
		if warned != tt.wantWarn {
			t.Errorf("size %d: warned = %v, want %v (log %q)", tt.size, warned, tt.wantWarn, out.String())
		}
		if tt.size == 1000 && !strings.Contains(out.String(), "suggested=1024") {
			t.Errorf("size 1000 warning %q does not suggest 1024", out.String())
		}
	}
}

func TestBackendsProduceSameResult(t *testing.T) {
	gonum := newTestAnalyzer(t, noneConfig(), WithBackend(spectral.BackendGonum))
	godsp := newTestAnalyzer(t, noneConfig(), WithBackend(spectral.BackendGoDSP))

	if godsp.Backend() != spectral.BackendGoDSP {
		t.Errorf("Backend() = %v, want %v", godsp.Backend(), spectral.BackendGoDSP)
	}

	a, err := gonum.Scan(impulses())
	if err != nil {
		t.Fatalf("Scan error = %v", err)
	}
	b, err := godsp.Scan(impulses())
	if err != nil {
		t.Fatalf("Scan error = %v", err)
	}
	if !slices.Equal(a, b) {
		t.Errorf("gonum offsets %v, go-dsp offsets %v", a, b)
	}
}

func TestSharedGenerator(t *testing.T) {
	g := windowing.NewGenerator()

	newTestAnalyzer(t, DefaultConfig(), WithGenerator(g))
	newTestAnalyzer(t, DefaultConfig(), WithGenerator(g))

	if g.Len() != 1 {
		t.Errorf("generator cached %d windows, want 1", g.Len())
	}
}

func TestNewAnalyzerInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Overlap = 1

	a, err := NewAnalyzer(cfg, WithLogger(quiet))
	if !errors.Is(err, common.ErrInvalidParameter) {
		t.Errorf("NewAnalyzer error = %v, want invalid parameter", err)
	}
	if a != nil {
		t.Error("NewAnalyzer returned an analyzer for an invalid config")
	}
}

func TestNewAnalyzerUnknownBackend(t *testing.T) {
	_, err := NewAnalyzer(DefaultConfig(), WithLogger(quiet), WithBackend("fftw"))
	if !errors.Is(err, common.ErrResource) {
		t.Errorf("NewAnalyzer error = %v, want resource error", err)
	}
}

func TestAnalyzerClose(t *testing.T) {
	a, err := NewAnalyzer(DefaultConfig(), WithLogger(quiet))
	if err != nil {
		t.Fatalf("NewAnalyzer error = %v", err)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close error = %v", err)
	}
	if _, err := a.Scan(make([]int16, 10)); !errors.Is(err, common.ErrResource) {
		t.Errorf("Scan after Close error = %v, want resource error", err)
	}
}

func TestFileAnalysisString(t *testing.T) {
	a := newTestAnalyzer(t, noneConfig())

	result, err := a.Analyze("impulses.raw", impulses())
	if err != nil {
		t.Fatalf("Analyze error = %v", err)
	}

	want := "File: impulses.raw\n" +
		"FFT size: 1024\n" +
		"Window: None\n" +
		"Overlap: 50%\n" +
		"Chunk length (seconds): 0.13\n" +
		"Staticky chunk start times: [0.00, 0.06, 0.13, 0.19]"
	if got := result.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
	if got := result.Text(2); got != want {
		t.Errorf("Text(2) =\n%s\nwant\n%s", got, want)
	}
	if got := result.Text(3); !strings.HasSuffix(got, "Chunk length (seconds): 0.128\nStaticky chunk start times: [0.000, 0.064, 0.128, 0.192]") {
		t.Errorf("Text(3) =\n%s", got)
	}

	empty := newFileAnalysis("quiet.raw", DefaultConfig(), DefaultSampleRate, 2048, 4, nil)
	if got := empty.FormatTimes(2); got != "" {
		t.Errorf("FormatTimes on no offsets = %q, want empty", got)
	}
	if empty.StaticOffsets == nil || empty.Intervals == nil {
		t.Error("empty results should carry empty slices, not nil")
	}
}

func TestMergeIntervals(t *testing.T) {
	tests := []struct {
		name    string
		offsets []int
		want    []Interval
	}{
		{"none", nil, []Interval{}},
		{"touching", []int{0, 100}, []Interval{{0, 2}}},
		{"gap", []int{0, 300}, []Interval{{0, 1}, {3, 4}}},
		{"clipped", []int{350}, []Interval{{3.5, 4}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeIntervals(tt.offsets, 100, 400, 100)
			if !slices.Equal(got, tt.want) {
				t.Errorf("mergeIntervals(%v) = %v, want %v", tt.offsets, got, tt.want)
			}
		})
	}
}
