package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-static/algorithms/spectral"
	"github.com/RyanBlaney/sonido-static/algorithms/windowing"
	"github.com/RyanBlaney/sonido-static/batch"
	"github.com/RyanBlaney/sonido-static/detector"
	"github.com/RyanBlaney/sonido-static/logging"
	"gopkg.in/yaml.v3"
)

func analyze(t *testing.T, source string, samples []int16) *detector.FileAnalysis {
	t.Helper()

	cfg := detector.DefaultConfig()
	cfg.Window = windowing.NewSpec(windowing.WindowNone)

	a, err := detector.NewAnalyzer(cfg, detector.WithLogger(&logging.NoOpLogger{}))
	if err != nil {
		t.Fatalf("NewAnalyzer error = %v", err)
	}
	defer a.Close()

	result, err := a.Analyze(source, samples)
	if err != nil {
		t.Fatalf("Analyze error = %v", err)
	}
	return result
}

func sampleResults(t *testing.T) []batch.Result {
	impulses := make([]int16, 2048)
	impulses[0], impulses[512], impulses[1024], impulses[1536] = 32767, 16000, 32767, 16000

	return []batch.Result{
		{Path: "noisy.raw", Analysis: analyze(t, "noisy.raw", impulses), Elapsed: 3 * time.Millisecond},
		{Path: "quiet.raw", Analysis: analyze(t, "quiet.raw", make([]int16, 2048))},
		{Path: "broken.raw", Err: errors.New("data error: odd byte count")},
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"text", "TABLE", "json", "yaml", ""} {
		if _, err := ParseFormat(name); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", name, err)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Error("ParseFormat(csv) should fail")
	}
}

func TestRenderText(t *testing.T) {
	results := sampleResults(t)

	var buf bytes.Buffer
	if err := Render(&buf, results, FormatText, 2); err != nil {
		t.Fatalf("Render error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, results[0].Analysis.String()) {
		t.Errorf("text output missing FileAnalysis rendering:\n%s", out)
	}
	if !strings.Contains(out, "Staticky chunk start times: [0.00, 0.06, 0.13, 0.19]") {
		t.Errorf("text output missing start times:\n%s", out)
	}
	if !strings.Contains(out, "File: quiet.raw") || !strings.Contains(out, "Staticky chunk start times: []") {
		t.Errorf("text output missing empty result:\n%s", out)
	}
	if !strings.Contains(out, "File: broken.raw\nError: data error: odd byte count") {
		t.Errorf("text output missing error block:\n%s", out)
	}
}

func TestRenderTextPrecision(t *testing.T) {
	results := sampleResults(t)[:1]

	var buf bytes.Buffer
	if err := Render(&buf, results, FormatText, 3); err != nil {
		t.Fatalf("Render error = %v", err)
	}

	out := buf.String()
	if out != results[0].Analysis.Text(3)+"\n" {
		t.Errorf("Render(precision 3) =\n%s\nwant\n%s", out, results[0].Analysis.Text(3))
	}
	if !strings.Contains(out, "[0.000, 0.064, 0.128, 0.192]") || !strings.Contains(out, "(seconds): 0.128") {
		t.Errorf("Render(precision 3) = %s", out)
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleResults(t), FormatTable, 2); err != nil {
		t.Fatalf("Render error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"File", "Static Fraction", "noisy.raw", "quiet.raw", "broken.raw", "Files:"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleResults(t), FormatJSON, 2); err != nil {
		t.Fatalf("Render error = %v", err)
	}

	var report Report
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}

	if len(report.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(report.Results))
	}
	if got := report.Results[0].Analysis.StaticChunkStartTimes; len(got) != 4 || got[1] != 0.064 {
		t.Errorf("StaticChunkStartTimes = %v", got)
	}
	if report.Results[2].Error == "" || report.Results[2].Analysis != nil {
		t.Errorf("failed file = %+v", report.Results[2])
	}
	if report.Summary.Files != 3 || report.Summary.Failed != 1 || report.Summary.WithStatic != 1 {
		t.Errorf("Summary = %+v", report.Summary)
	}
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleResults(t), FormatYAML, 2); err != nil {
		t.Fatalf("Render error = %v", err)
	}

	var report Report
	if err := yaml.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("output is not valid YAML: %v\n%s", err, buf.String())
	}
	if report.Results[0].Path != "noisy.raw" || report.Results[0].Analysis.FFTSize != 1024 {
		t.Errorf("first result = %+v", report.Results[0])
	}
}

func TestRenderWindow(t *testing.T) {
	w, err := windowing.Generate(windowing.NewSpec(windowing.WindowHann), 5)
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}

	var buf bytes.Buffer
	if err := RenderWindow(&buf, w, FormatText, 3); err != nil {
		t.Fatalf("RenderWindow error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Hann", "0\t0.000", "2\t1.000", "4\t0.000"} {
		if !strings.Contains(out, want) {
			t.Errorf("window output missing %q:\n%s", want, out)
		}
	}

	none, _ := windowing.Generate(windowing.NewSpec(windowing.WindowNone), 3)
	buf.Reset()
	if err := RenderWindow(&buf, none, FormatJSON, 3); err != nil {
		t.Fatalf("RenderWindow error = %v", err)
	}
	var report WindowReport
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(report.Coefficients) != 3 || report.Coefficients[0] != 1 {
		t.Errorf("None coefficients = %v, want ones", report.Coefficients)
	}
}

func TestRenderPlans(t *testing.T) {
	plans := []spectral.Plan{
		{Size: 1024, Backend: spectral.BackendGonum, NsPerOp: 4100, MeasuredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}

	var buf bytes.Buffer
	if err := RenderPlans(&buf, plans, FormatTable); err != nil {
		t.Fatalf("RenderPlans error = %v", err)
	}
	for _, want := range []string{"1024", "gonum", "4100", "2026-01-02 03:04:05"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("plans output missing %q:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	if err := RenderPlans(&buf, nil, FormatText); err != nil {
		t.Fatalf("RenderPlans error = %v", err)
	}
	if !strings.Contains(buf.String(), "no stored plans") {
		t.Errorf("empty plans output = %q", buf.String())
	}
}
