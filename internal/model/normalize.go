package model

import (
	"fmt"

	"github.com/piwi3910/RotorSizer/internal/units"
)

// present maps a decoded quantity to the constructor form: a field missing
// from the JSON has no unit and reads as absent.
func present(q units.Quantity) *units.Quantity {
	if q.Unit == "" {
		return nil
	}
	return &q
}

func presentInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}

func presentFloat(f float64) *float64 {
	if f == 0 {
		return nil
	}
	return &f
}

// Normalize rebuilds a decoded battery through NewBattery.
func (b Battery) Normalize() (Battery, error) {
	return NewBattery(BatterySpec{
		Name:      b.Name,
		Chemistry: b.Chemistry,
		Weight:    present(b.Weight),
		Capacity:  present(b.Capacity),
		Voltage:   present(b.Voltage),
		Cells:     presentInt(b.Cells),
		Cost:      b.Cost,
		XDim:      present(b.XDim),
		YDim:      present(b.YDim),
		ZDim:      present(b.ZDim),
	})
}

// Normalize rebuilds a decoded motor through NewMotor.
func (m Motor) Normalize() (Motor, error) {
	return NewMotor(m.Name, present(m.Weight), presentFloat(m.Kv), present(m.BodyDiameter), m.Cost)
}

// Normalize rebuilds a decoded propeller through NewPropeller.
func (p Propeller) Normalize() (Propeller, error) {
	return NewPropeller(p.Name, present(p.Weight), present(p.Diameter), present(p.Pitch), p.Blades, p.Cost)
}

// Normalize rebuilds a decoded combo, its motor and propeller included.
// The name and maximum thrust are always derived again.
func (c PropMotorCombo) Normalize() (PropMotorCombo, error) {
	if c.Motor.Name == "" || c.Propeller.Name == "" {
		return PropMotorCombo{}, &ValidationError{Kind: KindPropMotorCombo, Name: c.Name, Msg: "motor and propeller are required"}
	}
	motor, err := c.Motor.Normalize()
	if err != nil {
		return PropMotorCombo{}, fmt.Errorf("pmcombo %q: %w", c.Name, err)
	}
	prop, err := c.Propeller.Normalize()
	if err != nil {
		return PropMotorCombo{}, fmt.Errorf("pmcombo %q: %w", c.Name, err)
	}
	return NewPropMotorCombo(ComboSpec{
		Motor:       motor,
		Propeller:   prop,
		TestVoltage: present(c.TestVoltage),
		Thrust:      c.Thrust,
		Current:     c.Current,
		Voltage:     c.Voltage,
		Power:       c.Power,
		RPM:         c.RPM,
		Throttle:    c.Throttle,
	})
}

// Normalize rebuilds a decoded sensor through NewSensor, keeping its cost.
func (s Sensor) Normalize() (Sensor, error) {
	out, err := NewSensor(s.Name, present(s.Weight), present(s.XDim), present(s.YDim), present(s.ZDim), s.Layer, s.Orientation)
	if err != nil {
		return Sensor{}, err
	}
	out.Cost = s.Cost
	return out, nil
}

func (p Printer) Normalize() (Printer, error) {
	return NewPrinter(p.Name, present(p.Length), present(p.Width), present(p.Height))
}

func (c Cutter) Normalize() (Cutter, error) {
	return NewCutter(c.Name, present(c.Length), present(c.Width))
}

func (m PrintMaterial) Normalize() (PrintMaterial, error) {
	var area *units.Quantity
	if m.CrossSectionArea != nil {
		area = present(*m.CrossSectionArea)
	}
	return NewPrintMaterial(m.Name, present(m.Density), area)
}

func (m CuttingMaterial) Normalize() (CuttingMaterial, error) {
	return NewCuttingMaterial(m.Name, present(m.Density), present(m.Thickness))
}

func normalizeAll[T any](items []T, norm func(T) (T, error)) error {
	for i := range items {
		v, err := norm(items[i])
		if err != nil {
			return err
		}
		items[i] = v
	}
	return nil
}

// Normalize rebuilds every record through its constructor, so records read
// from JSON, Redis or a backup get the same unit conversion, derived fields
// and required-field checks as records built in code. It then runs Validate.
func (c *Catalog) Normalize() error {
	steps := []func() error{
		func() error { return normalizeAll(c.Batteries, Battery.Normalize) },
		func() error { return normalizeAll(c.Motors, Motor.Normalize) },
		func() error { return normalizeAll(c.Propellers, Propeller.Normalize) },
		func() error { return normalizeAll(c.Combos, PropMotorCombo.Normalize) },
		func() error { return normalizeAll(c.Sensors, Sensor.Normalize) },
		func() error { return normalizeAll(c.Printers, Printer.Normalize) },
		func() error { return normalizeAll(c.Cutters, Cutter.Normalize) },
		func() error { return normalizeAll(c.PrintMaterials, PrintMaterial.Normalize) },
		func() error { return normalizeAll(c.CuttingMaterials, CuttingMaterial.Normalize) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return c.Validate()
}
