package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/RotorSizer/internal/model"
	"github.com/piwi3910/RotorSizer/internal/units"
)

func TestEvaluate_LooseScenarioIsFeasible(t *testing.T) {
	cat := scenarioCatalog(t)
	cs := looseConstraints(cat)

	c := evaluateOne(t, model.DefaultEvalSettings(), cat, cs)
	require.Equal(t, model.Feasible, c.Status, "rejection: %+v", c.Rejection)
	require.NotNil(t, c.Performance)
	p := c.Performance

	assert.Equal(t, units.Newton, p.Weight.Unit)
	assert.InDelta(t, 9.87, p.Weight.Value, 0.05)

	// Current is read off the 0..5 N / 0..10 A line at the hover thrust.
	hover := 1.125 * p.Weight.Value / 4
	current := 10 * hover / 5
	wantMin := 2200 / (4 * current * 1000) * 60
	assert.Equal(t, units.Second, p.Endurance.Unit)
	assert.InDelta(t, wantMin*60, p.Endurance.Value, 1e-6)

	assert.InDelta(t, 4*5/1.29-p.Weight.Value, p.Payload.Value, 1e-9)
	assert.InDelta(t, 12.3*3600, p.BuildTime.Value, 1e-6)
	assert.InDelta(t, 30.55/39.37, p.Size.Value, 0.002)

	require.NotNil(t, c.Geometry)
	assert.InDelta(t, 4.25/39.37, c.Geometry.HubLength.Value, 1e-9)
	assert.InDelta(t, 5.75/39.37, c.Geometry.HubWidth.Value, 1e-9)
	assert.Equal(t, 2, c.Geometry.HubLayers)
}

func TestEvaluate_TooHeavy(t *testing.T) {
	cat := scenarioCatalog(t)
	loose := evaluateOne(t, model.DefaultEvalSettings(), cat, looseConstraints(cat))
	require.True(t, loose.IsFeasible())

	cs := looseConstraints(cat)
	cs.MaxWeight = units.Q(0.001, units.Newton)
	c := evaluateOne(t, model.DefaultEvalSettings(), cat, cs)

	require.Equal(t, model.Infeasible, c.Status)
	require.NotNil(t, c.Rejection)
	assert.Equal(t, ReasonTooHeavy, c.Rejection.Reason)
	assert.Equal(t, units.Newton, c.Rejection.Value.Unit)
	assert.Greater(t, c.Rejection.Value.Value, 0.001)
	assert.InDelta(t, loose.Performance.Weight.Value, c.Rejection.Value.Value, 1e-9)
	assert.Nil(t, c.Performance, "later checks must not run")
	assert.Nil(t, c.Geometry)
}

func TestEvaluate_RejectionsInPipelineOrder(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.ConstraintSet)
		reason string
		unit   units.Unit
	}{
		{"size", func(cs *model.ConstraintSet) { cs.MaxSize = units.Q(0.5, units.Meter) }, ReasonTooLarge, units.Meter},
		{"arms", func(cs *model.ConstraintSet) {
			cs.PrinterLength = units.Q(10, units.Centimeter)
			cs.PrinterWidth = units.Q(10, units.Centimeter)
		}, ReasonArmsPrinter, units.Meter},
		{"hub", func(cs *model.ConstraintSet) {
			cs.PrinterLength = units.Q(20, units.Centimeter)
			cs.PrinterWidth = units.Q(10, units.Centimeter)
		}, ReasonHubPrinter, units.Meter},
		{"payload", func(cs *model.ConstraintSet) { cs.PayloadRequired = units.Q(10, units.Newton) }, ReasonPayload, units.Newton},
		{"endurance", func(cs *model.ConstraintSet) { cs.EnduranceRequired = units.Q(10, units.Minute) }, ReasonEndurance, units.Second},
		{"build time", func(cs *model.ConstraintSet) { cs.MaxBuildTime = units.Q(10, units.Hour) }, ReasonBuildTime, units.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cat := scenarioCatalog(t)
			cs := looseConstraints(cat)
			tc.mutate(&cs)
			c := evaluateOne(t, model.DefaultEvalSettings(), cat, cs)
			require.Equal(t, model.Infeasible, c.Status)
			assert.Equal(t, tc.reason, c.Rejection.Reason)
			assert.Equal(t, tc.unit, c.Rejection.Value.Unit)
			assert.Nil(t, c.Performance)
		})
	}
}

func TestEvaluate_MeasuredValues(t *testing.T) {
	cat := scenarioCatalog(t)

	cs := looseConstraints(cat)
	cs.MaxBuildTime = units.Q(10, units.Hour)
	c := evaluateOne(t, model.DefaultEvalSettings(), cat, cs)
	assert.InDelta(t, 12.3*3600, c.Rejection.Value.Value, 1e-6)

	cs = looseConstraints(cat)
	cs.PrinterLength = units.Q(10, units.Centimeter)
	cs.PrinterWidth = units.Q(10, units.Centimeter)
	c = evaluateOne(t, model.DefaultEvalSettings(), cat, cs)
	arm := 1.15 * (5 + 0.75*2.8/2.54)
	assert.InDelta(t, arm/39.37, c.Rejection.Value.Value, 1e-3)
}

func TestEvaluate_HoverOutsideComboData(t *testing.T) {
	cat := scenarioCatalogWithCurve(t, []float64{3, 5}, []float64{6, 10}, 10)
	c := evaluateOne(t, model.DefaultEvalSettings(), cat, looseConstraints(cat))

	require.Equal(t, model.Infeasible, c.Status)
	assert.Equal(t, ReasonComboData, c.Rejection.Reason)
	assert.Equal(t, units.Newton, c.Rejection.Value.Unit)
	assert.Less(t, c.Rejection.Value.Value, 3.0)
}

func TestEvaluate_PropOutsideFrameTables(t *testing.T) {
	cat := scenarioCatalogWithCurve(t, []float64{0, 5}, []float64{0, 10}, 18)
	cs := looseConstraints(cat)
	cs.PrinterLength = units.Q(1, units.Meter)
	cs.PrinterWidth = units.Q(1, units.Meter)
	c := evaluateOne(t, model.DefaultEvalSettings(), cat, cs)

	require.Equal(t, model.Infeasible, c.Status)
	assert.Equal(t, ReasonFrameData, c.Rejection.Reason)
	assert.InDelta(t, 18/39.37, c.Rejection.Value.Value, 1e-9)
}

func TestEvaluate_CoverPlateAddsBuildTime(t *testing.T) {
	cat := scenarioCatalog(t)
	cs := looseConstraints(cat)
	cs.CoverPlate = true
	c := evaluateOne(t, model.DefaultEvalSettings(), cat, cs)

	require.True(t, c.IsFeasible())
	assert.InDelta(t, (4*2.1+2.2+3.4)*3600, c.Performance.BuildTime.Value, 1e-6)
}

func TestEvaluate_AlreadyEvaluated(t *testing.T) {
	cat := scenarioCatalog(t)
	cs := looseConstraints(cat)
	c := evaluateOne(t, model.DefaultEvalSettings(), cat, cs)

	ev, err := NewEvaluator(model.DefaultEvalSettings())
	require.NoError(t, err)
	_, err = ev.Evaluate(c, cs)
	assert.ErrorIs(t, err, ErrAlreadyEvaluated)
}

func TestEvaluate_InvalidConstraintsAreErrors(t *testing.T) {
	cat := scenarioCatalog(t)
	cs := looseConstraints(cat)
	cs.MaxWeight = units.Q(50, "stone")

	ev, err := NewEvaluator(model.DefaultEvalSettings())
	require.NoError(t, err)
	_, err = ev.Evaluate(Generate(&cat, cs)[0], cs)
	assert.ErrorIs(t, err, model.ErrInvalidConstraints)

	cs = looseConstraints(cat)
	cs.Maneuverability = "Ludicrous"
	_, err = ev.Evaluate(Generate(&cat, cs)[0], cs)
	assert.Error(t, err)
}

func TestNewEvaluator_UnknownFrame(t *testing.T) {
	s := model.DefaultEvalSettings()
	s.Frame = "balsa"
	_, err := NewEvaluator(s)
	assert.Error(t, err)

	s = model.DefaultEvalSettings()
	s.Tables = model.FrameTables{}
	_, err = NewEvaluator(s)
	assert.Error(t, err)
}

func TestEvaluate_OnePieceFrame(t *testing.T) {
	cat := scenarioCatalog(t)
	settings := model.DefaultEvalSettings()
	settings.Frame = model.FrameOnePiece

	c := evaluateOne(t, settings, cat, looseConstraints(cat))
	require.Equal(t, model.Infeasible, c.Status)
	assert.Equal(t, ReasonBodyPrinter, c.Rejection.Reason)
}

func layeredConstraints(cat model.Catalog) (model.ConstraintSet, model.Catalog) {
	def := model.DefaultCatalog()
	cs := looseConstraints(cat).WithCutter(def.Cutters[0])
	cs.CuttingMaterials = def.CuttingMaterials[:1]
	return cs, cat
}

func TestEvaluate_LayeredFrame(t *testing.T) {
	cs, cat := layeredConstraints(scenarioCatalog(t))
	settings := model.DefaultEvalSettings()
	settings.Frame = model.FrameLayered

	c := evaluateOne(t, settings, cat, cs)
	require.Equal(t, model.Feasible, c.Status, "rejection: %+v", c.Rejection)
	assert.Equal(t, 2, c.Geometry.HubLayers)
	assert.InDelta(t, 0.105*1.05, c.Geometry.HubLength.Value, 1e-9)
	assert.Equal(t, c.Geometry.HubLength, c.Geometry.HubWidth)
}

func TestEvaluate_LayeredGridWithTopSensor(t *testing.T) {
	cs, cat := layeredConstraints(scenarioCatalog(t))
	def := model.DefaultCatalog()
	cs.Sensors = []model.Sensor{*def.FindSensor("GPS Puck")}
	settings := model.DefaultEvalSettings()
	settings.Frame = model.FrameLayered
	settings.HubLayout = model.HubLayoutGrid

	c := evaluateOne(t, settings, cat, cs)
	require.Equal(t, model.Feasible, c.Status, "rejection: %+v", c.Rejection)
	assert.Equal(t, 3, c.Geometry.HubLayers)
}

func TestEvaluate_LayeredNeedsCuttingMaterial(t *testing.T) {
	cat := scenarioCatalog(t)
	settings := model.DefaultEvalSettings()
	settings.Frame = model.FrameLayered

	ev, err := NewEvaluator(settings)
	require.NoError(t, err)
	cs := looseConstraints(cat)
	_, err = ev.Evaluate(Generate(&cat, cs)[0], cs)
	assert.ErrorIs(t, err, ErrNoCuttingMaterial)
}

func TestEvaluateAll_ParallelMatchesSerial(t *testing.T) {
	cat := model.DefaultCatalog()
	cs := model.DefaultConstraints()
	cs.PrintMaterials = cat.PrintMaterials
	cands := Generate(&cat, cs)

	serial, err := NewEvaluator(model.DefaultEvalSettings())
	require.NoError(t, err)
	want, err := serial.EvaluateAll(context.Background(), cands, cs)
	require.NoError(t, err)

	settings := model.DefaultEvalSettings()
	settings.Workers = 4
	parallel, err := NewEvaluator(settings)
	require.NoError(t, err)
	got, err := parallel.EvaluateAll(context.Background(), cands, cs)
	require.NoError(t, err)

	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Status, got[i].Status)
		assert.Equal(t, want[i].Rejection, got[i].Rejection)
		assert.Equal(t, want[i].Performance, got[i].Performance)
	}
	for _, c := range cands {
		assert.Equal(t, model.Unevaluated, c.Status, "inputs must be left untouched")
	}
}

func TestEvaluateAll_Cancelled(t *testing.T) {
	cat := model.DefaultCatalog()
	cs := model.DefaultConstraints()
	cs.PrintMaterials = cat.PrintMaterials

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ev, err := NewEvaluator(model.DefaultEvalSettings())
	require.NoError(t, err)
	_, err = ev.EvaluateAll(ctx, Generate(&cat, cs), cs)
	assert.ErrorIs(t, err, context.Canceled)
}
