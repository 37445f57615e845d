package batch

import (
	"errors"

	"github.com/RyanBlaney/sonido-static/algorithms/common"
)

// Summary aggregates a batch
type Summary struct {
	Files              int     `json:"files" yaml:"files"`
	Succeeded          int     `json:"succeeded" yaml:"succeeded"`
	Failed             int     `json:"failed" yaml:"failed"`
	Skipped            int     `json:"skipped" yaml:"skipped"`
	WithStatic         int     `json:"with_static" yaml:"with_static"`
	WindowsAnalyzed    int     `json:"windows_analyzed" yaml:"windows_analyzed"`
	StaticWindows      int     `json:"static_windows" yaml:"static_windows"`
	MeanStaticFraction float64 `json:"mean_static_fraction" yaml:"mean_static_fraction"`
}

// Summarize counts outcomes and averages the static fraction over the files
// that were analyzed
func Summarize(results []Result) Summary {
	s := Summary{Files: len(results)}
	var fractions []float64

	for _, res := range results {
		switch {
		case errors.Is(res.Err, ErrSkipped):
			s.Skipped++
		case res.Err != nil:
			s.Failed++
		case res.Analysis != nil:
			s.Succeeded++
			s.WindowsAnalyzed += res.Analysis.WindowsAnalyzed
			s.StaticWindows += len(res.Analysis.StaticOffsets)
			if res.Analysis.HasStatic() {
				s.WithStatic++
			}
			fractions = append(fractions, res.Analysis.StaticFraction())
		}
	}

	s.MeanStaticFraction = common.Mean(fractions)

	return s
}
