package spectral

import (
	"math"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-static/algorithms/common"
	"github.com/RyanBlaney/sonido-static/logging"
)

// PlanningMode controls how much effort goes into choosing a backend
type PlanningMode string

const (
	// PlanEstimate reuses a stored plan when there is one and otherwise takes
	// the default backend without measuring
	PlanEstimate PlanningMode = "estimate"

	// PlanMeasure times every backend for sizes with no stored plan and stores
	// the fastest
	PlanMeasure PlanningMode = "measure"
)

// ParsePlanningMode resolves a planning mode name
func ParsePlanningMode(name string) (PlanningMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "estimate", "":
		return PlanEstimate, nil
	case "measure":
		return PlanMeasure, nil
	default:
		return "", common.InvalidParameter("spectral.ParsePlanningMode", name, "one of estimate, measure")
	}
}

// Plan records the backend chosen for one transform size
type Plan struct {
	Size       int       `json:"size" yaml:"size"`
	Backend    Backend   `json:"backend" yaml:"backend"`
	NsPerOp    float64   `json:"ns_per_op" yaml:"ns_per_op"`
	MeasuredAt time.Time `json:"measured_at" yaml:"measured_at"`
}

// PlanCache persists plans between runs. A cache only ever affects speed:
// every backend computes the same spectrum.
type PlanCache interface {
	Lookup(size int) (Plan, bool, error)
	Store(plan Plan) error
}

const defaultMeasureIterations = 64

// Planner picks a backend per transform size and builds transformers with it
type Planner struct {
	cache      PlanCache
	mode       PlanningMode
	iterations int
	logger     logging.Logger
}

// NewPlanner creates a planner. cache may be nil.
func NewPlanner(cache PlanCache, mode PlanningMode) *Planner {
	return &Planner{
		cache:      cache,
		mode:       mode,
		iterations: defaultMeasureIterations,
		logger: logging.WithFields(logging.Fields{
			"component": "fft_planner",
		}),
	}
}

// SetLogger replaces the planner's logger
func (p *Planner) SetLogger(logger logging.Logger) {
	if logger != nil {
		p.logger = logger.WithFields(logging.Fields{"component": "fft_planner"})
	}
}

// Mode returns the planning mode
func (p *Planner) Mode() PlanningMode {
	return p.mode
}

// Backend resolves the backend for size n. Cache failures are logged and
// fall back to the default backend.
func (p *Planner) Backend(n int) Backend {
	logger := p.logger.WithFields(logging.Fields{
		"function": "Backend",
		"fft_size": n,
	})

	if p.cache != nil {
		plan, found, err := p.cache.Lookup(n)
		switch {
		case err != nil:
			logger.Warn("Plan cache lookup failed, using default backend", logging.Fields{
				"error": err.Error(),
			})
			return DefaultBackend
		case found && plan.Backend.valid():
			logger.Debug("Using stored plan", logging.Fields{
				"backend":   plan.Backend,
				"ns_per_op": plan.NsPerOp,
			})
			return plan.Backend
		case found:
			logger.Warn("Stored plan names an unknown backend, ignoring it", logging.Fields{
				"backend": plan.Backend,
			})
		}
	}

	if p.mode != PlanMeasure {
		return DefaultBackend
	}

	plan, err := p.Measure(n)
	if err != nil {
		logger.Warn("Plan measurement failed, using default backend", logging.Fields{
			"error": err.Error(),
		})
		return DefaultBackend
	}

	return plan.Backend
}

// NewTransformer builds a transformer for n with the planned backend
func (p *Planner) NewTransformer(n int) (*Transformer, error) {
	if n < 1 {
		return nil, common.InvalidParameter("spectral.NewTransformer", n, "fft size >= 1")
	}
	return NewTransformer(n, WithBackend(p.Backend(n)))
}

// Measure times every backend at size n, stores the fastest in the cache and
// returns it
func (p *Planner) Measure(n int) (Plan, error) {
	if n < 1 {
		return Plan{}, common.InvalidParameter("spectral.Measure", n, "fft size >= 1")
	}

	logger := p.logger.WithFields(logging.Fields{
		"function": "Measure",
		"fft_size": n,
	})

	best := Plan{Size: n, Backend: DefaultBackend, NsPerOp: math.Inf(1)}

	for _, backend := range Backends() {
		nsPerOp, err := p.time(backend, n)
		if err != nil {
			logger.Warn("Backend unavailable", logging.Fields{
				"backend": backend,
				"error":   err.Error(),
			})
			continue
		}

		logger.Debug("Backend measured", logging.Fields{
			"backend":   backend,
			"ns_per_op": nsPerOp,
		})

		if nsPerOp < best.NsPerOp {
			best.Backend = backend
			best.NsPerOp = nsPerOp
		}
	}

	if math.IsInf(best.NsPerOp, 1) {
		return Plan{}, common.Resource("spectral.Measure", errNoBackend)
	}

	best.MeasuredAt = time.Now().UTC()

	if p.cache != nil {
		if err := p.cache.Store(best); err != nil {
			logger.Warn("Failed to store plan", logging.Fields{
				"error": err.Error(),
			})
		}
	}

	logger.Info("Plan measured", logging.Fields{
		"backend":   best.Backend,
		"ns_per_op": best.NsPerOp,
	})

	return best, nil
}

// time runs the backend over a synthetic chirp and returns the mean cost of
// one transform
func (p *Planner) time(backend Backend, n int) (float64, error) {
	t, err := NewTransformer(n, WithBackend(backend))
	if err != nil {
		return 0, err
	}
	defer t.Close()

	input := t.Input()
	for i := range input {
		x := float64(i) / float64(n)
		input[i] = 16384 * math.Sin(2*math.Pi*x*(1+8*x))
	}

	out := make([]float64, t.Bins())

	// warm up caches before timing
	if err := t.Execute(out); err != nil {
		return 0, err
	}

	start := time.Now()
	for range p.iterations {
		if err := t.Execute(out); err != nil {
			return 0, err
		}
	}
	elapsed := time.Since(start)

	return float64(elapsed.Nanoseconds()) / float64(p.iterations), nil
}

func (b Backend) valid() bool {
	for _, known := range Backends() {
		if b == known {
			return true
		}
	}
	return false
}
