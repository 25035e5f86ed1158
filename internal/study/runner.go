// Package study runs trade studies: it generates candidate designs from a
// catalog, evaluates their feasibility, ranks the feasible ones and
// summarizes the failures.
package study

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/piwi3910/RotorSizer/internal/engine"
	"github.com/piwi3910/RotorSizer/internal/logging"
	"github.com/piwi3910/RotorSizer/internal/model"
	"github.com/piwi3910/RotorSizer/internal/observability"
	"github.com/piwi3910/RotorSizer/internal/project"
)

// Stage names used for spans and the stage duration histogram.
const (
	StageGenerate = "generate"
	StageEvaluate = "evaluate"
	StageScore    = "score"
	StageCompare  = "compare"
)

// Runner executes studies against a catalog.
type Runner struct {
	Settings model.EvalSettings
	SortBy   engine.SortKey
	Log      logging.Logger
	Metrics  *observability.StudyCollector // nil disables metrics
}

// NewRunner returns a runner ranking by score.
func NewRunner(settings model.EvalSettings, log logging.Logger, metrics *observability.StudyCollector) *Runner {
	if log == nil {
		log = logging.Noop()
	}
	return &Runner{Settings: settings, SortBy: engine.SortScore, Log: log, Metrics: metrics}
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return observability.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (r *Runner) observe(stage string, start time.Time) {
	if r.Metrics != nil {
		r.Metrics.ObserveStage(stage, start)
	}
}

// Run evaluates every candidate the catalog offers for the study. The
// results list the feasible candidates first, best first, followed by the
// rejected ones in generation order.
func (r *Runner) Run(ctx context.Context, s model.Study, cat *model.Catalog) (project.Results, error) {
	ctx, log := logging.WithRunLogger(ctx, r.Log)
	runID := logging.RunIDFromContext(ctx)
	ctx, span := startSpan(ctx, "study.run",
		attribute.String("study", s.Name),
		attribute.String("run_id", runID),
	)
	defer span.End()

	cs, err := s.Resolve(cat)
	if err != nil {
		return project.Results{}, fail(span, err)
	}
	settings := s.EvalSettings(r.Settings)
	cs = cs.ForFrame(settings.Frame)
	ev, err := engine.NewEvaluator(settings)
	if err != nil {
		return project.Results{}, fail(span, fmt.Errorf("failed to create evaluator: %w", err))
	}
	log.Info(ctx, "study started",
		logging.String("study", s.Name),
		logging.String("frame", string(settings.Frame)),
		logging.Int("workers", settings.Workers),
	)
	if settings.Frame == model.FramePlate && settings.Tables.Placeholder {
		log.Warn(ctx, "plate frame tables are uncalibrated placeholders, set eval.tables_file for measured curves")
	}

	start := time.Now()
	_, gen := startSpan(ctx, "study."+StageGenerate)
	cands := engine.Generate(cat, cs)
	gen.SetAttributes(attribute.Int("candidates", len(cands)))
	gen.End()
	r.observe(StageGenerate, start)
	log.Debug(ctx, "candidates generated", logging.Int("count", len(cands)))

	start = time.Now()
	evalCtx, evalSpan := startSpan(ctx, "study."+StageEvaluate, attribute.Int("workers", settings.Workers))
	evaluated, err := ev.EvaluateAll(evalCtx, cands, cs)
	if err != nil {
		fail(evalSpan, err)
		evalSpan.End()
		return project.Results{}, fail(span, err)
	}
	evalSpan.End()
	r.observe(StageEvaluate, start)

	start = time.Now()
	_, scoreSpan := startSpan(ctx, "study."+StageScore)
	ranked, err := engine.Score(model.FeasibleOnly(evaluated), s.Weightings)
	if err == nil {
		err = engine.Sort(ranked, r.sortKey())
	}
	if err != nil {
		fail(scoreSpan, err)
		scoreSpan.End()
		return project.Results{}, fail(span, fmt.Errorf("failed to rank candidates: %w", err))
	}
	pareto := len(engine.ParetoFront(ranked))
	scoreSpan.SetAttributes(attribute.Int("feasible", len(ranked)), attribute.Int("pareto", pareto))
	scoreSpan.End()
	r.observe(StageScore, start)

	summary := engine.Summarize(evaluated, cs)
	all := make([]model.Candidate, 0, len(evaluated))
	all = append(all, ranked...)
	for _, c := range evaluated {
		if !c.IsFeasible() {
			all = append(all, c)
		}
	}

	best := 0.0
	if len(ranked) > 0 {
		best = ranked[0].Score
	}
	if r.Metrics != nil {
		rejected := make(map[string]int, len(summary.Failures))
		for _, f := range summary.Failures {
			rejected[f.Reason] = f.Count
		}
		r.Metrics.RecordRun(summary.Total, summary.Feasible, rejected, pareto, best)
	}
	span.SetAttributes(
		attribute.Int("candidates", summary.Total),
		attribute.Int("feasible", summary.Feasible),
	)

	fields := []logging.Field{
		logging.Int("total", summary.Total),
		logging.Int("feasible", summary.Feasible),
		logging.Int("pareto", pareto),
	}
	if len(ranked) > 0 {
		fields = append(fields, logging.String("best", ranked[0].Name), logging.Float("best_score", best))
	}
	log.Info(ctx, summary.Headline(), fields...)

	return project.Results{
		RunID:      runID,
		Study:      s,
		Frame:      settings.Frame,
		Summary:    summary,
		Envelope:   engine.Envelope(evaluated),
		Candidates: all,
	}, nil
}

func (r *Runner) sortKey() engine.SortKey {
	if r.SortBy == "" {
		return engine.SortScore
	}
	return r.SortBy
}

// Compare re-runs the study under the default what-if scenarios: the
// other maneuverability classes, the cover plate toggled and the
// alternative frame models.
func (r *Runner) Compare(ctx context.Context, s model.Study, cat *model.Catalog) ([]engine.ComparisonResult, error) {
	ctx, log := logging.WithRunLogger(ctx, r.Log)
	ctx, span := startSpan(ctx, "study."+StageCompare, attribute.String("study", s.Name))
	defer span.End()

	cs, err := s.Resolve(cat)
	if err != nil {
		return nil, fail(span, err)
	}
	scenarios := engine.BuildDefaultScenarios(cs, s.EvalSettings(r.Settings))

	start := time.Now()
	results, err := engine.CompareScenarios(ctx, scenarios, cat, s.Weightings)
	if err != nil {
		return nil, fail(span, err)
	}
	r.observe(StageCompare, start)

	for _, res := range results {
		fields := []logging.Field{
			logging.String("scenario", res.Scenario.Name),
			logging.Int("feasible", res.Summary.Feasible),
			logging.Int("pareto", res.Pareto),
		}
		if res.Best != nil {
			fields = append(fields, logging.String("best", res.Best.Name))
		}
		log.Info(ctx, "scenario evaluated", fields...)
	}
	span.SetAttributes(attribute.Int("scenarios", len(results)))
	return results, nil
}
