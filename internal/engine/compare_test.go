package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/RotorSizer/internal/model"
)

func TestBuildDefaultScenarios(t *testing.T) {
	base := model.DefaultConstraints()
	scenarios := BuildDefaultScenarios(base, model.DefaultEvalSettings())

	require.Len(t, scenarios, 5)
	assert.Equal(t, "Current Settings", scenarios[0].Name)
	assert.Equal(t, "High Maneuverability", scenarios[1].Name)
	assert.Equal(t, model.ManeuverHigh, scenarios[1].Constraints.Maneuverability)
	assert.Equal(t, "Acrobatic Maneuverability", scenarios[2].Name)
	assert.Equal(t, "With Cover Plate", scenarios[3].Name)
	assert.True(t, scenarios[3].Constraints.CoverPlate)
	assert.Equal(t, "One-Piece Frame", scenarios[4].Name)
	assert.Equal(t, model.FrameOnePiece, scenarios[4].Settings.Frame)

	assert.False(t, base.CoverPlate, "base must be left untouched")
}

func TestBuildDefaultScenarios_OnePiece(t *testing.T) {
	settings := model.DefaultEvalSettings()
	settings.Frame = model.FrameOnePiece
	base := model.DefaultConstraints()
	base.Maneuverability = model.ManeuverHigh

	scenarios := BuildDefaultScenarios(base, settings)
	require.Len(t, scenarios, 4)
	assert.Equal(t, "Normal Maneuverability", scenarios[1].Name)
	assert.Equal(t, "Plate Frame", scenarios[3].Name)
}

func TestCompareScenarios(t *testing.T) {
	cat := scenarioCatalog(t)
	cs := looseConstraints(cat)

	results, err := CompareScenarios(context.Background(), BuildDefaultScenarios(cs, model.DefaultEvalSettings()), &cat, model.DefaultWeightings())
	require.NoError(t, err)
	require.Len(t, results, 5)

	current := results[0]
	assert.Equal(t, 1, current.Summary.Total)
	assert.Equal(t, 1, current.Summary.Feasible)
	assert.Equal(t, 1, current.Pareto)
	require.NotNil(t, current.Best)
	assert.Equal(t, 1.0, current.Best.Score)

	// Acrobatic needs 2.09x hover thrust: 4*5 N / 2.09 is below the 9.9 N airframe.
	acro := results[2]
	assert.Equal(t, 0, acro.Summary.Feasible)
	assert.Nil(t, acro.Best)
	require.Len(t, acro.Summary.Failures, 1)
	assert.Equal(t, ReasonPayload, acro.Summary.Failures[0].Reason)
}

func TestCompareScenarios_BadSettings(t *testing.T) {
	cat := scenarioCatalog(t)
	settings := model.DefaultEvalSettings()
	settings.Frame = "balsa"

	_, err := CompareScenarios(context.Background(), []ComparisonScenario{{Name: "x", Constraints: looseConstraints(cat), Settings: settings}}, &cat, model.DefaultWeightings())
	assert.Error(t, err)
}

func TestCompareScenarios_CuttingMaterialsOnlyMultiplyLayered(t *testing.T) {
	cat := scenarioCatalog(t)
	def := model.DefaultCatalog()
	cs := looseConstraints(cat).WithCutter(def.Cutters[0])
	cs.CuttingMaterials = def.CuttingMaterials
	require.Len(t, cs.CuttingMaterials, 2)

	plate := model.DefaultEvalSettings()
	layered := model.DefaultEvalSettings()
	layered.Frame = model.FrameLayered

	results, err := CompareScenarios(context.Background(), []ComparisonScenario{
		{Name: "plate", Constraints: cs, Settings: plate},
		{Name: "layered", Constraints: cs, Settings: layered},
	}, &cat, model.DefaultWeightings())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 1, results[0].Summary.Total)
	for _, c := range results[0].Candidates {
		assert.Nil(t, c.CuttingMaterial)
	}
	assert.Equal(t, 2, results[1].Summary.Total)
}
