package study

import (
	"bytes"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/RotorSizer/internal/engine"
	"github.com/piwi3910/RotorSizer/internal/logging"
	"github.com/piwi3910/RotorSizer/internal/model"
	"github.com/piwi3910/RotorSizer/internal/observability"
	"github.com/piwi3910/RotorSizer/internal/units"
)

func qp(v float64, u units.Unit) *units.Quantity {
	q := units.Q(v, u)
	return &q
}

// testCatalog has one combo (0 N at 0 A to 5 N at 10 A, 11.1 V), one
// 2200 mAh 3S pack, one print material and one printer.
func testCatalog(t *testing.T) model.Catalog {
	t.Helper()
	kv := 900.0
	motor, err := model.NewMotor("Test Motor", qp(0.05, units.KilogramForce), &kv, qp(2.8, units.Centimeter), nil)
	require.NoError(t, err)
	prop, err := model.NewPropeller("Test Prop", qp(0.01, units.KilogramForce), qp(10, units.Inch), qp(4.5, units.Inch), 2, nil)
	require.NoError(t, err)
	combo, err := model.NewPropMotorCombo(model.ComboSpec{
		Motor:       motor,
		Propeller:   prop,
		TestVoltage: qp(11.1, units.Volt),
		Thrust:      units.Series{Values: []float64{0, 5}, Unit: units.Newton},
		Current:     units.Series{Values: []float64{0, 10}, Unit: units.Ampere},
	})
	require.NoError(t, err)
	bat, err := model.NewBattery(model.BatterySpec{
		Name:     "3S 2200",
		Capacity: qp(2200, units.MilliampHour),
		Voltage:  qp(11.1, units.Volt),
		XDim:     qp(10.5, units.Centimeter),
		YDim:     qp(3.4, units.Centimeter),
		ZDim:     qp(2.4, units.Centimeter),
	})
	require.NoError(t, err)
	pm, err := model.NewPrintMaterial("Test PLA", qp(1200, units.KgPerCubicM), nil)
	require.NoError(t, err)
	printer, err := model.NewPrinter("Test Printer", qp(30, units.Centimeter), qp(30, units.Centimeter), qp(30, units.Centimeter))
	require.NoError(t, err)

	return model.Catalog{
		Batteries:      []model.Battery{bat},
		Motors:         []model.Motor{motor},
		Propellers:     []model.Propeller{prop},
		Combos:         []model.PropMotorCombo{combo},
		PrintMaterials: []model.PrintMaterial{pm},
		Printers:       []model.Printer{printer},
	}
}

func looseStudy() model.Study {
	s := model.NewStudy("Loose")
	s.MaxWeight = units.Q(50, units.Newton)
	s.MaxSize = units.Q(2, units.Meter)
	s.MaxBuildTime = units.Q(100, units.Hour)
	s.EnduranceRequired = units.Q(1, units.Minute)
	s.PayloadRequired = units.Q(0, units.Newton)
	s.Maneuverability = model.ManeuverNormal
	s.Printer = "Test Printer"
	s.PrintMaterials = []string{"Test PLA"}
	return s
}

func TestRun_Feasible(t *testing.T) {
	cat := testCatalog(t)
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewStudyCollector(reg)
	require.NoError(t, err)

	var buf bytes.Buffer
	log := logging.NewWithWriter(logging.Config{Level: "info"}, &buf)
	runner := NewRunner(model.DefaultEvalSettings(), log, metrics)

	res, err := runner.Run(context.Background(), looseStudy(), &cat)
	require.NoError(t, err)

	require.Len(t, res.Candidates, 1)
	best := res.Candidates[0]
	assert.True(t, best.IsFeasible())
	assert.True(t, best.Scored)
	assert.Equal(t, 1.0, best.Score)
	assert.True(t, best.Pareto)
	assert.Equal(t, 1, res.Summary.Feasible)
	assert.Len(t, res.Envelope, len(model.Attributes()))
	assert.Equal(t, model.FramePlate, res.Frame)
	assert.Len(t, res.RunID, 8)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Generated))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Feasible))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BestScore))

	out := buf.String()
	assert.Contains(t, out, "1/1 feasible alternatives. Zero failures.")
	assert.Contains(t, out, "run_id="+res.RunID)
	assert.Contains(t, out, "plate frame tables are uncalibrated placeholders")
}

func TestRun_MeasuredTablesDoNotWarn(t *testing.T) {
	cat := testCatalog(t)
	settings := model.DefaultEvalSettings()
	settings.Tables.Placeholder = false

	var buf bytes.Buffer
	log := logging.NewWithWriter(logging.Config{Level: "info"}, &buf)
	_, err := NewRunner(settings, log, nil).Run(context.Background(), looseStudy(), &cat)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "placeholders")
}

func TestRun_CuttingMaterialsIgnoredOffLayeredFrames(t *testing.T) {
	cat := testCatalog(t)
	def := model.DefaultCatalog()
	cat.Cutters = def.Cutters
	cat.CuttingMaterials = def.CuttingMaterials

	s := looseStudy()
	s.Cutter = def.Cutters[0].Name
	for _, cm := range def.CuttingMaterials {
		s.CuttingMaterials = append(s.CuttingMaterials, cm.Name)
	}
	require.Len(t, s.CuttingMaterials, 2)

	runner := NewRunner(model.DefaultEvalSettings(), nil, nil)
	res, err := runner.Run(context.Background(), s, &cat)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.Total)
	require.Len(t, res.Candidates, 1)
	assert.Nil(t, res.Candidates[0].CuttingMaterial)

	s.Frame = model.FrameLayered
	res, err = runner.Run(context.Background(), s, &cat)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Summary.Total)
}

func TestRun_RejectedCandidatesFollowRanked(t *testing.T) {
	cat := testCatalog(t)
	s := looseStudy()
	s.Maneuverability = model.ManeuverAcrobatic

	res, err := NewRunner(model.DefaultEvalSettings(), nil, nil).Run(context.Background(), s, &cat)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Summary.Feasible)
	require.Len(t, res.Candidates, 1)
	assert.False(t, res.Candidates[0].IsFeasible())
	require.NotEmpty(t, res.Summary.Failures)
	assert.Equal(t, engine.ReasonPayload, res.Summary.Failures[0].Reason)
	assert.Empty(t, res.Envelope)
}

func TestRun_UnknownPrinter(t *testing.T) {
	cat := testCatalog(t)
	s := looseStudy()
	s.Printer = "Nope"

	_, err := NewRunner(model.DefaultEvalSettings(), nil, nil).Run(context.Background(), s, &cat)
	assert.ErrorContains(t, err, `printer "Nope"`)
}

func TestRun_InvalidWeightings(t *testing.T) {
	cat := testCatalog(t)
	s := looseStudy()
	s.Weightings = nil

	_, err := NewRunner(model.DefaultEvalSettings(), nil, nil).Run(context.Background(), s, &cat)
	assert.ErrorIs(t, err, model.ErrInvalidWeights)
}

func TestRun_Cancelled(t *testing.T) {
	cat := testCatalog(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(model.DefaultEvalSettings(), nil, nil).Run(ctx, looseStudy(), &cat)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_UnknownSortKey(t *testing.T) {
	cat := testCatalog(t)
	runner := NewRunner(model.DefaultEvalSettings(), nil, nil)
	runner.SortBy = "colour"

	_, err := runner.Run(context.Background(), looseStudy(), &cat)
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	cat := testCatalog(t)
	results, err := NewRunner(model.DefaultEvalSettings(), nil, nil).Compare(context.Background(), looseStudy(), &cat)
	require.NoError(t, err)

	require.Len(t, results, 5)
	assert.Equal(t, 1, results[0].Summary.Feasible)
	require.NotNil(t, results[0].Best)
	for _, r := range results {
		if r.Scenario.Constraints.Maneuverability == model.ManeuverAcrobatic {
			assert.Equal(t, 0, r.Summary.Feasible)
		}
	}
}
