package observability

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// StudyCollector bundles the Prometheus metrics recorded by study runs.
type StudyCollector struct {
	gatherer prometheus.Gatherer

	Generated      prometheus.Counter
	Feasible       prometheus.Counter
	Rejected       *prometheus.CounterVec
	StageDurations *prometheus.HistogramVec
	ParetoFront    prometheus.Gauge
	BestScore      prometheus.Gauge
}

// NewStudyCollector registers study metrics against the provided registerer,
// defaulting to a fresh private registry when nil.
func NewStudyCollector(reg prometheus.Registerer) (*StudyCollector, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	generated, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rotorsizer_candidates_generated_total",
		Help: "Total number of candidate designs generated.",
	}), "rotorsizer_candidates_generated_total")
	if err != nil {
		return nil, err
	}
	feasible, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rotorsizer_candidates_feasible_total",
		Help: "Total number of candidate designs that passed every check.",
	}), "rotorsizer_candidates_feasible_total")
	if err != nil {
		return nil, err
	}
	rejected, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rotorsizer_candidates_rejected_total",
		Help: "Total number of rejected candidate designs, labeled by rejection reason.",
	}, []string{"reason"}), "rotorsizer_candidates_rejected_total")
	if err != nil {
		return nil, err
	}
	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rotorsizer_stage_duration_seconds",
		Help:    "Study stage latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"stage"}), "rotorsizer_stage_duration_seconds")
	if err != nil {
		return nil, err
	}
	pareto, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rotorsizer_pareto_front_size",
		Help: "Number of Pareto-optimal designs in the last run.",
	}), "rotorsizer_pareto_front_size")
	if err != nil {
		return nil, err
	}
	best, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rotorsizer_best_score",
		Help: "Highest closeness score in the last run.",
	}), "rotorsizer_best_score")
	if err != nil {
		return nil, err
	}

	return &StudyCollector{
		gatherer:       gatherer,
		Generated:      generated,
		Feasible:       feasible,
		Rejected:       rejected,
		StageDurations: durations,
		ParetoFront:    pareto,
		BestScore:      best,
	}, nil
}

// ObserveStage records how long a study stage took.
func (c *StudyCollector) ObserveStage(stage string, start time.Time) {
	if c == nil || c.StageDurations == nil {
		return
	}
	c.StageDurations.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordRun folds the outcome of one evaluation into the counters.
// rejected maps each rejection reason to its count.
func (c *StudyCollector) RecordRun(generated, feasible int, rejected map[string]int, pareto int, best float64) {
	if c == nil {
		return
	}
	c.Generated.Add(float64(generated))
	c.Feasible.Add(float64(feasible))
	for reason, n := range rejected {
		c.Rejected.WithLabelValues(reason).Add(float64(n))
	}
	c.ParetoFront.Set(float64(pareto))
	c.BestScore.Set(best)
}

// WriteText writes every gathered metric family in the Prometheus text
// exposition format.
func (c *StudyCollector) WriteText(w io.Writer) error {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// register adds col to reg, reusing an already registered collector of the
// same type.
func register[T prometheus.Collector](reg prometheus.Registerer, col T, name string) (T, error) {
	if err := reg.Register(col); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return col, nil
}
