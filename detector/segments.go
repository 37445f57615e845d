package detector

import (
	"github.com/RyanBlaney/sonido-static/algorithms/common"
)

// Segment is one analysis window over the sample buffer. Terminal segments
// may be shorter than the window and are zero-padded.
type Segment struct {
	Start    int  `json:"start"`
	Length   int  `json:"length"`
	Terminal bool `json:"terminal"`
}

// Segments lays out the analysis windows for total samples with window size
// n and hop size hop, in increasing start order.
//
// A buffer of at most n samples is one terminal window. Longer buffers get
// (total-n)/hop+1 full windows at multiples of hop, followed by one terminal
// window at chunks*hop when samples remain past it.
func Segments(total, n, hop int) ([]Segment, error) {
	if n < 1 {
		return nil, common.InvalidParameter("detector.Segments", n, "window size >= 1")
	}
	if hop < 1 {
		return nil, common.InvalidParameter("detector.Segments", hop, "hop >= 1")
	}
	if total < 0 {
		return nil, common.Data("detector.Segments", total, "sample count >= 0")
	}
	if total == 0 {
		return nil, common.Data("detector.Segments", total, "at least one sample")
	}

	if total <= n {
		return []Segment{{Start: 0, Length: total, Terminal: true}}, nil
	}

	chunks := (total-n)/hop + 1
	segments := make([]Segment, 0, chunks+1)

	for i := range chunks {
		segments = append(segments, Segment{Start: i * hop, Length: n})
	}

	if next := chunks * hop; total > next {
		segments = append(segments, Segment{
			Start:    next,
			Length:   total - next,
			Terminal: true,
		})
	}

	return segments, nil
}
