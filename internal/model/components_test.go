package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/RotorSizer/internal/units"
)

func batterySpec() BatterySpec {
	return BatterySpec{
		Name:     "3S 2200",
		Capacity: qp(2200, units.MilliampHour),
		Voltage:  qp(11.1, units.Volt),
		XDim:     qp(10.5, units.Centimeter),
		YDim:     qp(3.4, units.Centimeter),
		ZDim:     qp(2.4, units.Centimeter),
	}
}

func TestNewBattery_DerivesMassFromCapacity(t *testing.T) {
	b, err := NewBattery(batterySpec())
	require.NoError(t, err)

	assert.Equal(t, ChemistryLiPo, b.Chemistry)
	assert.Equal(t, 3, b.Cells)
	assert.Equal(t, units.WattHour, b.Capacity.Unit)
	assert.InDelta(t, 24.42, b.Capacity.Value, 1e-9)

	// Wh = 4.04 m^2 + 139 m + 0.0155 must hold for the derived mass.
	m := b.Weight.Value / 9.81
	assert.InDelta(t, b.Capacity.Value, 4.04*m*m+139*m+0.0155, 1e-9)
	assert.Equal(t, units.Newton, b.Weight.Unit)
	assert.InDelta(t, m, b.Mass.Value, 1e-12)

	mah, err := b.CapacityMAh()
	require.NoError(t, err)
	assert.InDelta(t, 2200, mah, 1e-9)

	assert.Equal(t, units.Meter, b.XDim.Unit)
	assert.InDelta(t, 0.105, b.XDim.Value, 1e-12)
}

func TestNewBattery_DerivesCapacityFromWeight(t *testing.T) {
	s := batterySpec()
	s.Capacity = nil
	s.Weight = qp(1.962, units.Newton)
	b, err := NewBattery(s)
	require.NoError(t, err)
	assert.InDelta(t, 4.04*0.04+139*0.2+0.0155, b.Capacity.Value, 1e-9)
}

func TestNewBattery_VoltageFromCells(t *testing.T) {
	s := batterySpec()
	s.Voltage = nil
	s.Cells = ip(4)
	b, err := NewBattery(s)
	require.NoError(t, err)
	assert.InDelta(t, 14.8, b.Voltage.Value, 1e-12)
	assert.Equal(t, 4, b.Cells)
}

func TestNewBattery_ValidationErrors(t *testing.T) {
	cases := map[string]func(*BatterySpec){
		"no name":             func(s *BatterySpec) { s.Name = " " },
		"no xdim":             func(s *BatterySpec) { s.XDim = nil },
		"no voltage or cells": func(s *BatterySpec) { s.Voltage = nil },
		"no capacity/weight":  func(s *BatterySpec) { s.Capacity = nil },
		"wrong family":        func(s *BatterySpec) { s.YDim = qp(3, units.Newton) },
		"non-lipo incomplete": func(s *BatterySpec) { s.Chemistry = "NiMH" },
		"capacity too small":  func(s *BatterySpec) { s.Capacity = qp(0.01, units.WattHour) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := batterySpec()
			mutate(&s)
			_, err := NewBattery(s)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
		})
	}
}

func TestNewBattery_UnknownUnitIsValidationError(t *testing.T) {
	s := batterySpec()
	s.Capacity = qp(2200, "mAh?")
	_, err := NewBattery(s)
	require.Error(t, err)
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}

func testCombo(t *testing.T) PropMotorCombo {
	t.Helper()
	motor, err := NewMotor("M", qp(0.05, units.KilogramForce), fp(900), qp(28, units.Centimeter), nil)
	require.NoError(t, err)
	prop, err := NewPropeller("P", qp(0.01, units.KilogramForce), qp(10, units.Inch), qp(4.5, units.Inch), 0, nil)
	require.NoError(t, err)
	c, err := NewPropMotorCombo(ComboSpec{
		Motor:       motor,
		Propeller:   prop,
		TestVoltage: qp(11.1, units.Volt),
		Thrust:      units.Series{Values: []float64{0, 1, 2}, Unit: units.PoundForce},
		Current:     units.Series{Values: []float64{0, 4000, 9000}, Unit: units.Milliampere},
		RPM:         []float64{0, 4000, 6000},
	})
	require.NoError(t, err)
	return c
}

func TestNewPropMotorCombo(t *testing.T) {
	c := testCombo(t)
	assert.Equal(t, "M/P", c.Name)
	assert.Equal(t, units.Newton, c.Thrust.Unit)
	assert.Equal(t, units.Ampere, c.Current.Unit)
	assert.InDelta(t, 2/0.2248, c.MaxThrust.Value, 1e-9)
	assert.InDelta(t, 9.0, c.Current.Values[2], 1e-12)
	assert.Equal(t, 2, c.Propeller.Blades)

	q, err := c.Attr("prop_diameter")
	require.NoError(t, err)
	assert.InDelta(t, 10/39.37, q.Value, 1e-12)

	_, err = c.Attr("colour")
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestNewPropMotorCombo_Validation(t *testing.T) {
	base := testCombo(t)
	spec := ComboSpec{
		Motor:       base.Motor,
		Propeller:   base.Propeller,
		TestVoltage: qp(11.1, units.Volt),
		Thrust:      units.Series{Values: []float64{0, 1, 2}, Unit: units.Newton},
		Current:     units.Series{Values: []float64{0, 1}, Unit: units.Ampere},
	}
	_, err := NewPropMotorCombo(spec)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "current", ve.Field)

	spec.Current = units.Series{Values: []float64{0, 1, 2}, Unit: units.Ampere}
	spec.Thrust = units.Series{Values: []float64{0, 2, 1}, Unit: units.Newton}
	_, err = NewPropMotorCombo(spec)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "thrust", ve.Field)

	spec.Thrust = units.Series{Values: []float64{0, 1, 2}, Unit: units.Newton}
	spec.TestVoltage = nil
	_, err = NewPropMotorCombo(spec)
	require.ErrorAs(t, err, &ve)

	spec.TestVoltage = qp(11.1, units.Volt)
	spec.Throttle = []float64{1}
	_, err = NewPropMotorCombo(spec)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "throttle", ve.Field)
}

func TestNewSensor_RejectsUnknownLayer(t *testing.T) {
	_, err := NewSensor("cam", qp(1, units.Newton), qp(1, units.Inch), qp(1, units.Inch), qp(1, units.Inch), "side", OrientAny)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "req_layer", ve.Field)
}

func TestComponentsExposeAttributes(t *testing.T) {
	cat := DefaultCatalog()
	for _, k := range Kinds() {
		for _, comp := range cat.Components(k) {
			assert.Equal(t, k, comp.Kind())
			assert.NotEmpty(t, comp.Key())
		}
	}

	pm := cat.FindPrintMaterial("PLA")
	require.NotNil(t, pm)
	d, err := pm.Attr("density")
	require.NoError(t, err)
	assert.Equal(t, units.KgPerCubicM, d.Unit)

	abs := cat.FindPrintMaterial("ABS")
	require.NotNil(t, abs)
	_, err = abs.Attr("cs_area")
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestDefaultCatalogIsValid(t *testing.T) {
	cat := DefaultCatalog()
	require.NoError(t, cat.Validate())
	for _, b := range cat.Batteries {
		assert.False(t, math.IsNaN(b.Weight.Value), b.Name)
		assert.Greater(t, b.Weight.Value, 0.0, b.Name)
	}
}
