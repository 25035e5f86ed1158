package model

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/piwi3910/RotorSizer/internal/units"
)

// Kind identifies a component family.
type Kind string

const (
	KindBattery         Kind = "battery"
	KindMotor           Kind = "motor"
	KindPropeller       Kind = "propeller"
	KindPropMotorCombo  Kind = "pmcombo"
	KindSensor          Kind = "sensor"
	KindPrinter         Kind = "printer"
	KindCutter          Kind = "cutter"
	KindPrintMaterial   Kind = "print_material"
	KindCuttingMaterial Kind = "cutting_material"
)

// Component is implemented by every catalog record.
type Component interface {
	Kind() Kind
	Key() string
	// Attr returns a physical attribute by name, e.g. "weight" or "diameter".
	Attr(name string) (units.Quantity, error)
}

// ErrUnknownAttribute is returned by Attr for names a component does not carry.
var ErrUnknownAttribute = errors.New("unknown attribute")

// ValidationError reports a component that could not be constructed.
type ValidationError struct {
	Kind  Kind
	Name  string
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	name := e.Name
	if name == "" {
		name = "<unnamed>"
	}
	if e.Field == "" {
		return fmt.Sprintf("%s %s: %s", e.Kind, name, e.Msg)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Kind, name, e.Field, e.Msg)
}

func unknownAttr(k Kind, key, name string) error {
	return fmt.Errorf("%s %s: %w %q", k, key, ErrUnknownAttribute, name)
}

// required converts q to its canonical unit after checking that it is
// present and belongs to fam.
func required(k Kind, name, field string, q *units.Quantity, fam units.Family, opts ...units.Option) (units.Quantity, error) {
	if q == nil {
		return units.Quantity{}, &ValidationError{Kind: k, Name: name, Field: field, Msg: "is required"}
	}
	return canonicalOf(k, name, field, *q, fam, opts...)
}

func canonicalOf(k Kind, name, field string, q units.Quantity, fam units.Family, opts ...units.Option) (units.Quantity, error) {
	if err := q.Expect(fam); err != nil {
		return units.Quantity{}, &ValidationError{Kind: k, Name: name, Field: field, Msg: err.Error()}
	}
	c, err := units.ToCanonical(q, opts...)
	if err != nil {
		return units.Quantity{}, fmt.Errorf("%s %s: %s: %w", k, name, field, err)
	}
	return c, nil
}

func requireName(k Kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Kind: k, Field: "name", Msg: "is required"}
	}
	return nil
}

// Battery chemistries.
const (
	ChemistryLiPo = "LiPo"
)

// Nominal LiPo cell voltage.
const VoltsPerCell = 3.7

// Gur and Rosen fit of pack energy against mass: Wh = a*kg^2 + b*kg + c.
const (
	gurRosenA = 4.04
	gurRosenB = 139.0
	gurRosenC = 0.0155
)

// Battery is a flight battery pack.
type Battery struct {
	Name      string         `json:"name"`
	Chemistry string         `json:"chemistry"`
	Weight    units.Quantity `json:"weight"`
	Mass      units.Quantity `json:"mass"`
	Capacity  units.Quantity `json:"capacity"`
	Voltage   units.Quantity `json:"voltage"`
	Cells     int            `json:"cells"`
	Cost      *float64       `json:"cost,omitempty"`
	XDim      units.Quantity `json:"xdim"`
	YDim      units.Quantity `json:"ydim"`
	ZDim      units.Quantity `json:"zdim"`
}

// BatterySpec is the raw input for NewBattery. Nil fields are absent.
type BatterySpec struct {
	Name      string
	Chemistry string
	Weight    *units.Quantity
	Capacity  *units.Quantity
	Voltage   *units.Quantity
	Cells     *int
	Cost      *float64
	XDim      *units.Quantity
	YDim      *units.Quantity
	ZDim      *units.Quantity
}

// NewBattery validates a battery and derives the missing fields. For LiPo
// packs voltage and cell count are derived from each other, and mass from
// capacity (or capacity from mass) via the Gur and Rosen regression. Other
// chemistries must supply every field.
func NewBattery(s BatterySpec) (Battery, error) {
	const k = KindBattery
	if err := requireName(k, s.Name); err != nil {
		return Battery{}, err
	}
	b := Battery{Name: s.Name, Chemistry: s.Chemistry, Cost: s.Cost}

	var err error
	if b.XDim, err = required(k, s.Name, "xdim", s.XDim, units.Length); err != nil {
		return Battery{}, err
	}
	if b.YDim, err = required(k, s.Name, "ydim", s.YDim, units.Length); err != nil {
		return Battery{}, err
	}
	if b.ZDim, err = required(k, s.Name, "zdim", s.ZDim, units.Length); err != nil {
		return Battery{}, err
	}

	if s.Chemistry != "" && !strings.EqualFold(s.Chemistry, ChemistryLiPo) {
		if s.Weight == nil || s.Capacity == nil || s.Voltage == nil || s.Cells == nil {
			return Battery{}, &ValidationError{Kind: k, Name: s.Name, Msg: "non-LiPo batteries must give weight, capacity, voltage and cells"}
		}
	}
	if b.Chemistry == "" {
		b.Chemistry = ChemistryLiPo
	}

	switch {
	case s.Voltage == nil && s.Cells == nil:
		return Battery{}, &ValidationError{Kind: k, Name: s.Name, Field: "voltage", Msg: "a rated voltage or number of cells is required"}
	case s.Voltage == nil:
		b.Cells = *s.Cells
		b.Voltage = units.Q(float64(b.Cells)*VoltsPerCell, units.Volt)
	default:
		if b.Voltage, err = required(k, s.Name, "voltage", s.Voltage, units.Voltage); err != nil {
			return Battery{}, err
		}
		if s.Cells != nil {
			b.Cells = *s.Cells
		} else {
			b.Cells = int(math.Round(b.Voltage.Value / VoltsPerCell))
		}
	}
	volts := units.WithVoltage(b.Voltage.Value)

	switch {
	case s.Weight == nil && s.Capacity == nil:
		return Battery{}, &ValidationError{Kind: k, Name: s.Name, Field: "capacity", Msg: "a capacity and/or weight is required"}
	case s.Weight == nil:
		if b.Capacity, err = required(k, s.Name, "capacity", s.Capacity, units.Capacity, volts); err != nil {
			return Battery{}, err
		}
		disc := math.Sqrt(gurRosenB*gurRosenB - 4*gurRosenA*(gurRosenC-b.Capacity.Value))
		if math.IsNaN(disc) || disc <= math.Abs(gurRosenB) {
			return Battery{}, &ValidationError{Kind: k, Name: s.Name, Field: "capacity", Msg: "Battery capacity out of range"}
		}
		massKg := (-gurRosenB + disc) / (2 * gurRosenA)
		b.Weight = units.Q(massKg*9.81, units.Newton)
	case s.Capacity == nil:
		if b.Weight, err = required(k, s.Name, "weight", s.Weight, units.Force); err != nil {
			return Battery{}, err
		}
		m := b.Weight.Value / 9.81
		b.Capacity = units.Q(gurRosenA*m*m+gurRosenB*m+gurRosenC, units.WattHour)
	default:
		if b.Weight, err = required(k, s.Name, "weight", s.Weight, units.Force); err != nil {
			return Battery{}, err
		}
		if b.Capacity, err = required(k, s.Name, "capacity", s.Capacity, units.Capacity, volts); err != nil {
			return Battery{}, err
		}
	}
	b.Mass = units.Q(b.Weight.Value/9.81, units.KilogramForce)
	return b, nil
}

func (b Battery) Kind() Kind  { return KindBattery }
func (b Battery) Key() string { return b.Name }

func (b Battery) Attr(name string) (units.Quantity, error) {
	switch name {
	case "weight":
		return b.Weight, nil
	case "mass":
		return b.Mass, nil
	case "capacity":
		return b.Capacity, nil
	case "voltage":
		return b.Voltage, nil
	case "xdim":
		return b.XDim, nil
	case "ydim":
		return b.YDim, nil
	case "zdim":
		return b.ZDim, nil
	}
	return units.Quantity{}, unknownAttr(KindBattery, b.Name, name)
}

// CapacityMAh returns the pack capacity in milliamp-hours.
func (b Battery) CapacityMAh() (float64, error) {
	return b.Capacity.In(units.MilliampHour, units.WithVoltage(b.Voltage.Value))
}

// Motor is a brushless motor.
type Motor struct {
	Name         string         `json:"name"`
	Weight       units.Quantity `json:"weight"`
	Kv           float64        `json:"kv"`
	BodyDiameter units.Quantity `json:"body_diameter"`
	Cost         *float64       `json:"cost,omitempty"`
}

// NewMotor validates a motor. Weight, Kv and body diameter are required.
func NewMotor(name string, weight *units.Quantity, kv *float64, bodyDia *units.Quantity, cost *float64) (Motor, error) {
	const k = KindMotor
	if err := requireName(k, name); err != nil {
		return Motor{}, err
	}
	m := Motor{Name: name, Cost: cost}
	var err error
	if m.Weight, err = required(k, name, "weight", weight, units.Force); err != nil {
		return Motor{}, err
	}
	if kv == nil {
		return Motor{}, &ValidationError{Kind: k, Name: name, Field: "kv", Msg: "is required"}
	}
	m.Kv = *kv
	if m.BodyDiameter, err = required(k, name, "body_diameter", bodyDia, units.Length); err != nil {
		return Motor{}, err
	}
	return m, nil
}

func (m Motor) Kind() Kind  { return KindMotor }
func (m Motor) Key() string { return m.Name }

func (m Motor) Attr(name string) (units.Quantity, error) {
	switch name {
	case "weight":
		return m.Weight, nil
	case "body_diameter":
		return m.BodyDiameter, nil
	}
	return units.Quantity{}, unknownAttr(KindMotor, m.Name, name)
}

// Propeller is a fixed-pitch propeller.
type Propeller struct {
	Name     string         `json:"name"`
	Weight   units.Quantity `json:"weight"`
	Diameter units.Quantity `json:"diameter"`
	Pitch    units.Quantity `json:"pitch"`
	Blades   int            `json:"blades"`
	Cost     *float64       `json:"cost,omitempty"`
}

// NewPropeller validates a propeller. Blade count defaults to two.
func NewPropeller(name string, weight, diameter, pitch *units.Quantity, blades int, cost *float64) (Propeller, error) {
	const k = KindPropeller
	if err := requireName(k, name); err != nil {
		return Propeller{}, err
	}
	p := Propeller{Name: name, Blades: blades, Cost: cost}
	if p.Blades == 0 {
		p.Blades = 2
	}
	var err error
	if p.Weight, err = required(k, name, "weight", weight, units.Force); err != nil {
		return Propeller{}, err
	}
	if p.Diameter, err = required(k, name, "diameter", diameter, units.Length); err != nil {
		return Propeller{}, err
	}
	if p.Pitch, err = required(k, name, "pitch", pitch, units.Length); err != nil {
		return Propeller{}, err
	}
	return p, nil
}

func (p Propeller) Kind() Kind  { return KindPropeller }
func (p Propeller) Key() string { return p.Name }

func (p Propeller) Attr(name string) (units.Quantity, error) {
	switch name {
	case "weight":
		return p.Weight, nil
	case "diameter":
		return p.Diameter, nil
	case "pitch":
		return p.Pitch, nil
	}
	return units.Quantity{}, unknownAttr(KindPropeller, p.Name, name)
}

// PropMotorCombo is a motor and propeller pair with its bench-test data.
// Thrust is the independent variable of every telemetry vector.
type PropMotorCombo struct {
	Name        string         `json:"name"`
	Motor       Motor          `json:"motor"`
	Propeller   Propeller      `json:"propeller"`
	TestVoltage units.Quantity `json:"test_voltage"`
	Thrust      units.Series   `json:"thrust"`
	Current     units.Series   `json:"current"`
	Voltage     units.Series   `json:"voltage,omitempty"`
	Power       units.Series   `json:"power,omitempty"`
	RPM         []float64      `json:"rpm,omitempty"`
	Throttle    []float64      `json:"throttle,omitempty"`
	MaxThrust   units.Quantity `json:"max_thrust"`
}

// ComboSpec is the raw input for NewPropMotorCombo.
type ComboSpec struct {
	Motor       Motor
	Propeller   Propeller
	TestVoltage *units.Quantity
	Thrust      units.Series
	Current     units.Series
	Voltage     units.Series
	Power       units.Series
	RPM         []float64
	Throttle    []float64
}

// ComboName is the catalog key of a motor/propeller pair.
func ComboName(motor, prop string) string {
	return motor + "/" + prop
}

// NewPropMotorCombo validates the bench-test vectors and derives MaxThrust.
func NewPropMotorCombo(s ComboSpec) (PropMotorCombo, error) {
	const k = KindPropMotorCombo
	name := ComboName(s.Motor.Name, s.Propeller.Name)
	if s.Motor.Name == "" || s.Propeller.Name == "" {
		return PropMotorCombo{}, &ValidationError{Kind: k, Name: name, Msg: "motor and propeller are required"}
	}
	c := PropMotorCombo{Name: name, Motor: s.Motor, Propeller: s.Propeller, RPM: s.RPM, Throttle: s.Throttle}

	var err error
	if c.TestVoltage, err = required(k, name, "test_voltage", s.TestVoltage, units.Voltage); err != nil {
		return PropMotorCombo{}, err
	}

	n := s.Thrust.Len()
	if n == 0 {
		return PropMotorCombo{}, &ValidationError{Kind: k, Name: name, Field: "thrust", Msg: "is required"}
	}
	if s.Current.Len() != n {
		return PropMotorCombo{}, &ValidationError{Kind: k, Name: name, Field: "current",
			Msg: fmt.Sprintf("has %d samples, thrust has %d", s.Current.Len(), n)}
	}
	for i := 1; i < n; i++ {
		if s.Thrust.Values[i] < s.Thrust.Values[i-1] {
			return PropMotorCombo{}, &ValidationError{Kind: k, Name: name, Field: "thrust", Msg: "must be non-decreasing"}
		}
	}

	if c.Thrust, err = seriesOf(name, "thrust", s.Thrust, units.Force); err != nil {
		return PropMotorCombo{}, err
	}
	if c.Current, err = seriesOf(name, "current", s.Current, units.Current); err != nil {
		return PropMotorCombo{}, err
	}

	optional := []struct {
		field string
		in    units.Series
		out   *units.Series
		fam   units.Family
	}{
		{"voltage", s.Voltage, &c.Voltage, units.Voltage},
		{"power", s.Power, &c.Power, units.Power},
	}
	for _, o := range optional {
		if o.in.Len() == 0 {
			continue
		}
		if o.in.Len() != n {
			return PropMotorCombo{}, &ValidationError{Kind: k, Name: name, Field: o.field,
				Msg: fmt.Sprintf("has %d samples, thrust has %d", o.in.Len(), n)}
		}
		if *o.out, err = seriesOf(name, o.field, o.in, o.fam); err != nil {
			return PropMotorCombo{}, err
		}
	}
	for field, v := range map[string][]float64{"rpm": s.RPM, "throttle": s.Throttle} {
		if len(v) != 0 && len(v) != n {
			return PropMotorCombo{}, &ValidationError{Kind: k, Name: name, Field: field,
				Msg: fmt.Sprintf("has %d samples, thrust has %d", len(v), n)}
		}
	}

	c.MaxThrust = c.Thrust.Max()
	return c, nil
}

func seriesOf(name, field string, s units.Series, fam units.Family) (units.Series, error) {
	if err := (units.Quantity{Unit: s.Unit}).Expect(fam); err != nil {
		return units.Series{}, &ValidationError{Kind: KindPropMotorCombo, Name: name, Field: field, Msg: err.Error()}
	}
	return units.SeriesToCanonical(s)
}

func (c PropMotorCombo) Kind() Kind  { return KindPropMotorCombo }
func (c PropMotorCombo) Key() string { return c.Name }

func (c PropMotorCombo) Attr(name string) (units.Quantity, error) {
	switch name {
	case "test_voltage":
		return c.TestVoltage, nil
	case "max_thrust":
		return c.MaxThrust, nil
	case "motor_weight":
		return c.Motor.Weight, nil
	case "prop_weight":
		return c.Propeller.Weight, nil
	case "prop_diameter":
		return c.Propeller.Diameter, nil
	}
	return units.Quantity{}, unknownAttr(KindPropMotorCombo, c.Name, name)
}

// Layer is a sensor's mounting requirement on the hub.
type Layer string

const (
	LayerAny    Layer = ""
	LayerTop    Layer = "top"
	LayerBottom Layer = "bottom"
)

// Orientation constrains which way a sensor's long side points.
type Orientation string

const (
	OrientAny      Orientation = ""
	OrientForward  Orientation = "forward"
	OrientSideways Orientation = "sideways"
)

// Sensor is a payload sensor carried on or in the hub.
type Sensor struct {
	Name        string         `json:"name"`
	Weight      units.Quantity `json:"weight"`
	XDim        units.Quantity `json:"xdim"`
	YDim        units.Quantity `json:"ydim"`
	ZDim        units.Quantity `json:"zdim"`
	Layer       Layer          `json:"req_layer,omitempty"`
	Orientation Orientation    `json:"req_orient,omitempty"`
	Cost        *float64       `json:"cost,omitempty"`
}

// NewSensor validates a sensor.
func NewSensor(name string, weight, x, y, z *units.Quantity, layer Layer, orient Orientation) (Sensor, error) {
	const k = KindSensor
	if err := requireName(k, name); err != nil {
		return Sensor{}, err
	}
	switch layer {
	case LayerAny, LayerTop, LayerBottom:
	default:
		return Sensor{}, &ValidationError{Kind: k, Name: name, Field: "req_layer", Msg: fmt.Sprintf("unknown layer %q", layer)}
	}
	switch orient {
	case OrientAny, OrientForward, OrientSideways:
	default:
		return Sensor{}, &ValidationError{Kind: k, Name: name, Field: "req_orient", Msg: fmt.Sprintf("unknown orientation %q", orient)}
	}
	s := Sensor{Name: name, Layer: layer, Orientation: orient}
	var err error
	if s.Weight, err = required(k, name, "weight", weight, units.Force); err != nil {
		return Sensor{}, err
	}
	if s.XDim, err = required(k, name, "xdim", x, units.Length); err != nil {
		return Sensor{}, err
	}
	if s.YDim, err = required(k, name, "ydim", y, units.Length); err != nil {
		return Sensor{}, err
	}
	if s.ZDim, err = required(k, name, "zdim", z, units.Length); err != nil {
		return Sensor{}, err
	}
	return s, nil
}

func (s Sensor) Kind() Kind  { return KindSensor }
func (s Sensor) Key() string { return s.Name }

func (s Sensor) Attr(name string) (units.Quantity, error) {
	switch name {
	case "weight":
		return s.Weight, nil
	case "xdim":
		return s.XDim, nil
	case "ydim":
		return s.YDim, nil
	case "zdim":
		return s.ZDim, nil
	}
	return units.Quantity{}, unknownAttr(KindSensor, s.Name, name)
}

// Printer is an FDM printer build volume.
type Printer struct {
	Name   string         `json:"name"`
	Length units.Quantity `json:"length"`
	Width  units.Quantity `json:"width"`
	Height units.Quantity `json:"height"`
}

// NewPrinter validates a printer.
func NewPrinter(name string, length, width, height *units.Quantity) (Printer, error) {
	const k = KindPrinter
	if err := requireName(k, name); err != nil {
		return Printer{}, err
	}
	p := Printer{Name: name}
	var err error
	if p.Length, err = required(k, name, "length", length, units.Length); err != nil {
		return Printer{}, err
	}
	if p.Width, err = required(k, name, "width", width, units.Length); err != nil {
		return Printer{}, err
	}
	if p.Height, err = required(k, name, "height", height, units.Length); err != nil {
		return Printer{}, err
	}
	return p, nil
}

func (p Printer) Kind() Kind  { return KindPrinter }
func (p Printer) Key() string { return p.Name }

func (p Printer) Attr(name string) (units.Quantity, error) {
	switch name {
	case "length":
		return p.Length, nil
	case "width":
		return p.Width, nil
	case "height":
		return p.Height, nil
	}
	return units.Quantity{}, unknownAttr(KindPrinter, p.Name, name)
}

// Cutter is a laser cutter bed.
type Cutter struct {
	Name   string         `json:"name"`
	Length units.Quantity `json:"length"`
	Width  units.Quantity `json:"width"`
}

// NewCutter validates a cutter.
func NewCutter(name string, length, width *units.Quantity) (Cutter, error) {
	const k = KindCutter
	if err := requireName(k, name); err != nil {
		return Cutter{}, err
	}
	c := Cutter{Name: name}
	var err error
	if c.Length, err = required(k, name, "length", length, units.Length); err != nil {
		return Cutter{}, err
	}
	if c.Width, err = required(k, name, "width", width, units.Length); err != nil {
		return Cutter{}, err
	}
	return c, nil
}

func (c Cutter) Kind() Kind  { return KindCutter }
func (c Cutter) Key() string { return c.Name }

func (c Cutter) Attr(name string) (units.Quantity, error) {
	switch name {
	case "length":
		return c.Length, nil
	case "width":
		return c.Width, nil
	}
	return units.Quantity{}, unknownAttr(KindCutter, c.Name, name)
}

// PrintMaterial is a filament used for printed structure.
type PrintMaterial struct {
	Name             string          `json:"name"`
	Density          units.Quantity  `json:"density"`
	CrossSectionArea *units.Quantity `json:"cs_area,omitempty"`
}

// NewPrintMaterial validates a print material. The filament cross-section
// area is optional.
func NewPrintMaterial(name string, density, csArea *units.Quantity) (PrintMaterial, error) {
	const k = KindPrintMaterial
	if err := requireName(k, name); err != nil {
		return PrintMaterial{}, err
	}
	m := PrintMaterial{Name: name}
	var err error
	if m.Density, err = required(k, name, "density", density, units.Density); err != nil {
		return PrintMaterial{}, err
	}
	if csArea != nil {
		a, err := canonicalOf(k, name, "cs_area", *csArea, units.Area)
		if err != nil {
			return PrintMaterial{}, err
		}
		m.CrossSectionArea = &a
	}
	return m, nil
}

func (m PrintMaterial) Kind() Kind  { return KindPrintMaterial }
func (m PrintMaterial) Key() string { return m.Name }

func (m PrintMaterial) Attr(name string) (units.Quantity, error) {
	switch name {
	case "density":
		return m.Density, nil
	case "cs_area":
		if m.CrossSectionArea != nil {
			return *m.CrossSectionArea, nil
		}
	}
	return units.Quantity{}, unknownAttr(KindPrintMaterial, m.Name, name)
}

// CuttingMaterial is sheet stock for laser-cut hub plates.
type CuttingMaterial struct {
	Name      string         `json:"name"`
	Density   units.Quantity `json:"density"`
	Thickness units.Quantity `json:"thickness"`
}

// NewCuttingMaterial validates a cutting material.
func NewCuttingMaterial(name string, density, thickness *units.Quantity) (CuttingMaterial, error) {
	const k = KindCuttingMaterial
	if err := requireName(k, name); err != nil {
		return CuttingMaterial{}, err
	}
	m := CuttingMaterial{Name: name}
	var err error
	if m.Density, err = required(k, name, "density", density, units.Density); err != nil {
		return CuttingMaterial{}, err
	}
	if m.Thickness, err = required(k, name, "thickness", thickness, units.Length); err != nil {
		return CuttingMaterial{}, err
	}
	return m, nil
}

func (m CuttingMaterial) Kind() Kind  { return KindCuttingMaterial }
func (m CuttingMaterial) Key() string { return m.Name }

func (m CuttingMaterial) Attr(name string) (units.Quantity, error) {
	switch name {
	case "density":
		return m.Density, nil
	case "thickness":
		return m.Thickness, nil
	}
	return units.Quantity{}, unknownAttr(KindCuttingMaterial, m.Name, name)
}
