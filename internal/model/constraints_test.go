package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/RotorSizer/internal/units"
)

func TestThrustMargin(t *testing.T) {
	cases := map[Maneuverability]float64{
		ManeuverNormal:    1.29,
		ManeuverHigh:      1.66,
		ManeuverAcrobatic: 2.09,
	}
	for m, want := range cases {
		got, err := m.ThrustMargin()
		require.NoError(t, err)
		assert.Equal(t, want, got, string(m))
	}
	_, err := Maneuverability("Ludicrous").ThrustMargin()
	assert.Error(t, err)
}

func TestConstraintSetValidate(t *testing.T) {
	cs := DefaultConstraints()
	require.NoError(t, cs.Validate())

	bad := cs
	bad.MaxWeight = units.Q(5, units.Meter)
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConstraints)

	bad = cs
	bad.Maneuverability = "Sporty"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConstraints)

	bad = cs
	bad.CuttingMaterials = DefaultCatalog().CuttingMaterials
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConstraints)

	ok := bad.WithCutter(DefaultCatalog().Cutters[0])
	assert.NoError(t, ok.Validate())
}

func TestSensorWeight(t *testing.T) {
	cat := DefaultCatalog()
	cs := DefaultConstraints()
	cs.Sensors = cat.Sensors[:2]

	w, err := cs.SensorWeight()
	require.NoError(t, err)
	assert.Equal(t, units.Newton, w.Unit)
	assert.InDelta(t, (0.117+0.022)*9.81, w.Value, 1e-9)
}

func TestValidateWeightings(t *testing.T) {
	require.NoError(t, ValidateWeightings(DefaultWeightings()))

	cases := map[string][]Weighting{
		"empty":     nil,
		"unknown":   {{Attribute: "colour", Importance: 1, Direction: Maximize}},
		"twice":     {{Attribute: AttrWeight, Importance: 1, Direction: Minimize}, {Attribute: AttrWeight, Importance: 1, Direction: Minimize}},
		"negative":  {{Attribute: AttrWeight, Importance: -1, Direction: Minimize}},
		"direction": {{Attribute: AttrWeight, Importance: 1, Direction: "sideways"}},
		"all zero":  {{Attribute: AttrWeight, Importance: 0, Direction: Minimize}},
	}
	for name, ws := range cases {
		assert.ErrorIs(t, ValidateWeightings(ws), ErrInvalidWeights, name)
	}
}

func TestNormalizedImportances(t *testing.T) {
	got := NormalizedImportances([]Weighting{
		{Attribute: AttrWeight, Importance: 30},
		{Attribute: AttrEndurance, Importance: 10},
	})
	assert.InDeltaSlice(t, []float64{0.75, 0.25}, got, 1e-12)
}

func TestStudyResolve(t *testing.T) {
	cat := DefaultCatalog()
	s := NewStudy("survey")
	s.Printer = "Prusa MK4"
	s.Sensors = []string{"Lidar Rangefinder"}
	s.PrintMaterials = []string{"PETG", "PLA"}

	cs, err := s.Resolve(&cat)
	require.NoError(t, err)
	assert.Equal(t, cat.FindPrinter("Prusa MK4").Length, cs.PrinterLength)
	require.Len(t, cs.PrintMaterials, 2)
	assert.Equal(t, "PETG", cs.PrintMaterials[0].Name)
	assert.Len(t, cs.Sensors, 1)
	assert.Nil(t, cs.CutterLength)

	s.PrintMaterials = []string{"Unobtainium"}
	_, err = s.Resolve(&cat)
	assert.Error(t, err)

	s.PrintMaterials = nil
	s.Printer = "Missing"
	_, err = s.Resolve(&cat)
	assert.Error(t, err)
}

func TestStudyEvalSettings(t *testing.T) {
	s := NewStudy("x")
	s.Frame = FrameOnePiece
	s.HubLayout = ""
	got := s.EvalSettings(DefaultEvalSettings())
	assert.Equal(t, FrameOnePiece, got.Frame)
	assert.Equal(t, HubLayoutSimple, got.HubLayout)
}

func TestDefaultFrameTablesValid(t *testing.T) {
	require.NoError(t, DefaultFrameTables().Validate())

	bad := DefaultFrameTables()
	bad.CoverVolume.Values = bad.CoverVolume.Values[:3]
	assert.Error(t, bad.Validate())

	bad = DefaultFrameTables()
	bad.ArmBuildTime.Unit = units.Inch
	assert.Error(t, bad.Validate())
}

func TestCandidateTransitions(t *testing.T) {
	cat := DefaultCatalog()
	c := NewCandidate(cat.Combos[0], cat.Batteries[0], cat.PrintMaterials[0], nil)
	assert.Equal(t, Unevaluated, c.Status)
	assert.Len(t, c.ID, 8)
	assert.Equal(t, "(MT2212 920Kv/APC 10x4.7, 3S 2200)", c.Name)
	assert.True(t, Compatible(cat.Combos[0], cat.Batteries[0]))
	assert.False(t, Compatible(cat.Combos[2], cat.Batteries[0]))

	bad := c.MarkInfeasible("Too heavy.", units.Q(12, units.Newton))
	assert.Equal(t, Infeasible, bad.Status)
	assert.Nil(t, bad.Performance)
	assert.Equal(t, Unevaluated, c.Status, "original value must be untouched")

	good := c.MarkFeasible(Performance{Weight: units.Q(9, units.Newton)}, Geometry{})
	assert.True(t, good.IsFeasible())
	assert.Len(t, FeasibleOnly([]Candidate{bad, good, c}), 1)
}

func TestConstraintSetForFrame(t *testing.T) {
	def := DefaultCatalog()
	cs := DefaultConstraints().WithCutter(def.Cutters[0])
	cs.CuttingMaterials = def.CuttingMaterials

	for _, kind := range []FrameKind{FramePlate, FrameOnePiece} {
		got := cs.ForFrame(kind)
		assert.Empty(t, got.CuttingMaterials, kind)
		assert.NotNil(t, got.CutterLength, kind)
	}
	assert.Len(t, cs.ForFrame(FrameLayered).CuttingMaterials, len(def.CuttingMaterials))
	assert.Len(t, cs.CuttingMaterials, len(def.CuttingMaterials), "receiver must be left untouched")
}
