package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/piwi3910/RotorSizer/internal/model"
	"github.com/piwi3910/RotorSizer/internal/units"
)

func qp(v float64, u units.Unit) *units.Quantity {
	q := units.Q(v, u)
	return &q
}

func fp(v float64) *float64 { return &v }

// scenarioCatalog has one combo (0 N at 0 A to 5 N at 10 A, 11.1 V), one
// 2200 mAh 3S pack and one 1200 kg/m^3 print material.
func scenarioCatalog(t *testing.T) model.Catalog {
	t.Helper()
	return scenarioCatalogWithCurve(t, []float64{0, 5}, []float64{0, 10}, 10)
}

func scenarioCatalogWithCurve(t *testing.T, thrustN, currentA []float64, propIn float64) model.Catalog {
	t.Helper()
	motor, err := model.NewMotor("Test Motor", qp(0.05, units.KilogramForce), fp(900), qp(2.8, units.Centimeter), nil)
	require.NoError(t, err)
	prop, err := model.NewPropeller("Test Prop", qp(0.01, units.KilogramForce), qp(propIn, units.Inch), qp(4.5, units.Inch), 2, nil)
	require.NoError(t, err)
	combo, err := model.NewPropMotorCombo(model.ComboSpec{
		Motor:       motor,
		Propeller:   prop,
		TestVoltage: qp(11.1, units.Volt),
		Thrust:      units.Series{Values: thrustN, Unit: units.Newton},
		Current:     units.Series{Values: currentA, Unit: units.Ampere},
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

	return model.Catalog{
		Batteries:      []model.Battery{bat},
		Motors:         []model.Motor{motor},
		Propellers:     []model.Propeller{prop},
		Combos:         []model.PropMotorCombo{combo},
		PrintMaterials: []model.PrintMaterial{pm},
	}
}

// looseConstraints are the permissive limits of the reference scenario.
func looseConstraints(cat model.Catalog) model.ConstraintSet {
	cs := model.DefaultConstraints()
	cs.MaxWeight = units.Q(50, units.Newton)
	cs.MaxSize = units.Q(2, units.Meter)
	cs.MaxBuildTime = units.Q(100, units.Hour)
	cs.EnduranceRequired = units.Q(1, units.Minute)
	cs.PayloadRequired = units.Q(0, units.Newton)
	cs.Maneuverability = model.ManeuverNormal
	cs.PrintMaterials = cat.PrintMaterials
	return cs
}

func evaluateOne(t *testing.T, settings model.EvalSettings, cat model.Catalog, cs model.ConstraintSet) model.Candidate {
	t.Helper()
	cands := Generate(&cat, cs)
	require.Len(t, cands, 1)
	ev, err := NewEvaluator(settings)
	require.NoError(t, err)
	c, err := ev.Evaluate(cands[0], cs)
	require.NoError(t, err)
	return c
}

// feasibleWith builds a feasible candidate with the given performance.
func feasibleWith(name string, weightN, enduranceMin float64) model.Candidate {
	c := model.Candidate{Name: name}
	return c.MarkFeasible(model.Performance{
		Weight:    units.Q(weightN, units.Newton),
		Payload:   units.Q(1, units.Newton),
		Endurance: units.Q(enduranceMin*60, units.Second),
		Size:      units.Q(0.5, units.Meter),
		BuildTime: units.Q(3600, units.Second),
	}, model.Geometry{})
}
