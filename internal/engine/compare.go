package engine

import (
	"context"
	"fmt"

	"github.com/piwi3910/RotorSizer/internal/model"
)

// ComparisonScenario defines a named variant of a study to compare.
type ComparisonScenario struct {
	Name        string
	Constraints model.ConstraintSet
	Settings    model.EvalSettings
}

// ComparisonResult holds the scored candidates and statistics for a single
// scenario.
type ComparisonResult struct {
	Scenario   ComparisonScenario
	Candidates []model.Candidate // feasible, scored, best first
	Summary    Summary
	Pareto     int
	Best       *model.Candidate
}

// CompareScenarios generates, evaluates and scores the catalog under each
// scenario and returns the results in scenario order. This enables
// side-by-side comparison of what-if variants (maneuverability class,
// cover plate, frame model).
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, cat *model.Catalog, ws []model.Weighting) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		ev, err := NewEvaluator(scenario.Settings)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		cs := scenario.Constraints.ForFrame(scenario.Settings.Frame)
		evaluated, err := ev.EvaluateAll(ctx, Generate(cat, cs), cs)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		scored, err := Score(model.FeasibleOnly(evaluated), ws)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		if err := Sort(scored, SortScore); err != nil {
			return nil, err
		}

		res := ComparisonResult{
			Scenario:   scenario,
			Candidates: scored,
			Summary:    Summarize(evaluated, cs),
			Pareto:     len(ParetoFront(scored)),
		}
		if len(scored) > 0 {
			best := scored[0]
			res.Best = &best
		}
		results = append(results, res)
	}

	return results, nil
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current study, varying key parameters to show what-if alternatives.
func BuildDefaultScenarios(base model.ConstraintSet, settings model.EvalSettings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:        "Current Settings",
			Constraints: base,
			Settings:    settings,
		},
	}

	// Scenario: every other maneuverability class
	for _, m := range []model.Maneuverability{model.ManeuverNormal, model.ManeuverHigh, model.ManeuverAcrobatic} {
		if m == base.Maneuverability {
			continue
		}
		alt := base
		alt.Maneuverability = m
		scenarios = append(scenarios, ComparisonScenario{
			Name:        fmt.Sprintf("%s Maneuverability", m),
			Constraints: alt,
			Settings:    settings,
		})
	}

	// Scenario: toggle the top-plate cover
	if settings.Frame == model.FramePlate || settings.Frame == "" {
		alt := base
		alt.CoverPlate = !base.CoverPlate
		name := "With Cover Plate"
		if base.CoverPlate {
			name = "Without Cover Plate"
		}
		scenarios = append(scenarios, ComparisonScenario{
			Name:        name,
			Constraints: alt,
			Settings:    settings,
		})
	}

	// Scenario: the other printed frame
	switch settings.Frame {
	case model.FramePlate, "":
		alt := settings
		alt.Frame = model.FrameOnePiece
		scenarios = append(scenarios, ComparisonScenario{
			Name:        "One-Piece Frame",
			Constraints: base,
			Settings:    alt,
		})
	case model.FrameOnePiece:
		alt := settings
		alt.Frame = model.FramePlate
		scenarios = append(scenarios, ComparisonScenario{
			Name:        "Plate Frame",
			Constraints: base,
			Settings:    alt,
		})
	}

	return scenarios
}
