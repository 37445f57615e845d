package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-static/algorithms/spectral"
	"github.com/RyanBlaney/sonido-static/algorithms/windowing"
	"github.com/RyanBlaney/sonido-static/batch"
	"github.com/RyanBlaney/sonido-static/detector"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

// Format selects how results are written
type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat resolves an output format name
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatText, FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q, must be one of text, table, json, yaml", name)
	}
}

// FileReport is the serialized form of one batch result
type FileReport struct {
	Path      string                 `json:"path" yaml:"path"`
	Analysis  *detector.FileAnalysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Error     string                 `json:"error,omitempty" yaml:"error,omitempty"`
	ElapsedMs float64                `json:"elapsed_ms" yaml:"elapsed_ms"`
}

// Report is the serialized form of a whole batch
type Report struct {
	Results []FileReport  `json:"results" yaml:"results"`
	Summary batch.Summary `json:"summary" yaml:"summary"`
}

// NewReport converts batch results for serialization
func NewReport(results []batch.Result) Report {
	report := Report{
		Results: make([]FileReport, len(results)),
		Summary: batch.Summarize(results),
	}

	for i, res := range results {
		report.Results[i] = FileReport{
			Path:      res.Path,
			Analysis:  res.Analysis,
			ElapsedMs: float64(res.Elapsed.Microseconds()) / 1000.0,
		}
		if res.Err != nil {
			report.Results[i].Error = res.Err.Error()
		}
	}

	return report
}

// Render writes results in the given format. precision is the number of
// decimals used for times in the text and table formats.
func Render(w io.Writer, results []batch.Result, format Format, precision int) error {
	switch format {
	case FormatText, "":
		return renderText(w, results, precision)
	case FormatTable:
		return renderTable(w, results, precision)
	case FormatJSON:
		return encodeJSON(w, NewReport(results))
	case FormatYAML:
		return encodeYAML(w, NewReport(results))
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderText(w io.Writer, results []batch.Result, precision int) error {
	for i, res := range results {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}

		var block string
		if res.Err != nil {
			block = fmt.Sprintf("File: %s\nError: %v", res.Path, res.Err)
		} else {
			block = res.Analysis.Text(precision)
		}

		if _, err := fmt.Fprintln(w, block); err != nil {
			return err
		}
	}

	return nil
}

func renderTable(w io.Writer, results []batch.Result, precision int) error {
	headers := []string{"file", "windows", "static", "static_fraction", "start_times"}
	for i, h := range headers {
		headers[i] = label(h)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(KeyStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			return CellStyle
		})

	for _, res := range results {
		if res.Err != nil {
			t.Row(res.Path, "-", "-", "-", ErrorStyle.Render("error: "+res.Err.Error()))
			continue
		}

		a := res.Analysis
		static := CleanStyle.Render("0")
		if a.HasStatic() {
			static = StaticStyle.Render(strconv.Itoa(len(a.StaticOffsets)))
		}

		t.Row(
			res.Path,
			strconv.Itoa(a.WindowsAnalyzed),
			static,
			fmt.Sprintf("%.*f", precision, a.StaticFraction()),
			"["+a.FormatTimes(precision)+"]",
		)
	}

	summary := batch.Summarize(results)
	footer := fmt.Sprintf("%s %d  %s %d  %s %d  %s %.*f",
		KeyStyle.Render(label("files")+":"), summary.Files,
		KeyStyle.Render(label("with_static")+":"), summary.WithStatic,
		KeyStyle.Render(label("failed")+":"), summary.Failed,
		KeyStyle.Render(label("mean_static_fraction")+":"), precision, summary.MeanStaticFraction,
	)

	_, err := fmt.Fprintf(w, "%s\n%s\n", t.Render(), footer)
	return err
}

// WindowReport describes a generated window
type WindowReport struct {
	Window       string               `json:"window" yaml:"window"`
	Size         int                  `json:"size" yaml:"size"`
	Properties   windowing.Properties `json:"properties" yaml:"properties"`
	Coefficients []float64            `json:"coefficients" yaml:"coefficients"`
}

// RenderWindow writes a window's coefficients. None windows list ones.
func RenderWindow(w io.Writer, window *windowing.Window, format Format, precision int) error {
	coeffs := window.Coefficients()
	if coeffs == nil {
		coeffs = make([]float64, window.Size())
		for i := range coeffs {
			coeffs[i] = 1
		}
	}

	report := WindowReport{
		Window:       window.Spec().String(),
		Size:         window.Size(),
		Properties:   window.Properties(),
		Coefficients: coeffs,
	}

	switch format {
	case FormatJSON:
		return encodeJSON(w, report)
	case FormatYAML:
		return encodeYAML(w, report)
	}

	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render(report.Window), KeyStyle.Render(fmt.Sprintf("(N=%d)", report.Size)))
	fmt.Fprintf(w, "%s %.*f  %s %.*f  %s %.*f  %s %.*f\n",
		KeyStyle.Render(label("coherent_gain")+":"), precision, report.Properties.CoherentGain,
		KeyStyle.Render(label("power_gain")+":"), precision, report.Properties.PowerGain,
		KeyStyle.Render("ENBW:"), precision, report.Properties.ENBW,
		KeyStyle.Render(label("peak")+":"), precision, report.Properties.Peak,
	)
	for i, c := range coeffs {
		if _, err := fmt.Fprintf(w, "%d\t%.*f\n", i, precision, c); err != nil {
			return err
		}
	}

	return nil
}

// RenderPlans writes stored FFT plans
func RenderPlans(w io.Writer, plans []spectral.Plan, format Format) error {
	switch format {
	case FormatJSON:
		return encodeJSON(w, plans)
	case FormatYAML:
		return encodeYAML(w, plans)
	}

	if len(plans) == 0 {
		_, err := fmt.Fprintln(w, KeyStyle.Render("no stored plans"))
		return err
	}

	headers := []string{label("size"), label("backend"), label("ns_per_op"), label("measured_at")}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(KeyStyle).
		Headers(headers...)

	for _, p := range plans {
		t.Row(
			strconv.Itoa(p.Size),
			string(p.Backend),
			strconv.FormatFloat(p.NsPerOp, 'f', 0, 64),
			p.MeasuredAt.Format("2006-01-02 15:04:05"),
		)
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
