// Package units converts physical quantities between the units used by
// component data sheets and the canonical metric representation stored in
// the catalog.
package units

import (
	"errors"
	"fmt"
	"math"
)

// Unit is a unit tag such as "N", "in" or "kg*m^-3".
type Unit string

// Family groups units that can be converted into each other.
type Family string

const (
	Force    Family = "force"
	Length   Family = "length"
	Capacity Family = "capacity"
	Density  Family = "density"
	Area     Family = "area"
	Time     Family = "time"
	Voltage  Family = "voltage"
	Current  Family = "current"
	Power    Family = "power"
	Volume   Family = "volume"
)

// Supported units.
const (
	Newton         Unit = "N"
	PoundForce     Unit = "lbf"
	KilogramForce  Unit = "kg"
	Meter          Unit = "m"
	Centimeter     Unit = "cm"
	Inch           Unit = "in"
	Foot           Unit = "ft"
	WattHour       Unit = "Wh"
	MilliampHour   Unit = "mAh"
	KgPerCubicM    Unit = "kg*m^-3"
	SlugPerCubicFt Unit = "slug*ft^-3"
	LbfPerCubicFt  Unit = "lbf*ft^-3"
	SquareMeter    Unit = "m^2"
	SquareCm       Unit = "cm^2"
	SquareInch     Unit = "in^2"
	SquareFoot     Unit = "ft^2"
	Second         Unit = "s"
	Minute         Unit = "min"
	Hour           Unit = "hr"
	Volt           Unit = "V"
	Ampere         Unit = "A"
	Milliampere    Unit = "mA"
	Watt           Unit = "W"
	CubicMeter     Unit = "m^3"
	CubicCm        Unit = "cm^3"
	CubicInch      Unit = "in^3"

	// StdMetric is a pseudo-target meaning "the canonical unit of the
	// source unit's family".
	StdMetric Unit = "std_metric"
)

// Factors are expressed as "units per canonical unit", so converting
// a value from A to B is value * factor[B] / factor[A].
var tables = map[Family]map[Unit]float64{
	Force:   {Newton: 1, PoundForce: 0.2248, KilogramForce: 1 / 9.81},
	Length:  {Meter: 1, Centimeter: 100, Inch: 39.37, Foot: 3.281},
	Density: {KgPerCubicM: 1, SlugPerCubicFt: 0.00194, LbfPerCubicFt: 0.00194 * 32.2},
	Area:    {SquareMeter: 1, SquareCm: 10000, SquareInch: 1550, SquareFoot: 10.764},
	Time:    {Second: 1, Minute: 1.0 / 60, Hour: 1.0 / 3600},
	Voltage: {Volt: 1},
	Current: {Ampere: 1, Milliampere: 1000},
	Power:   {Watt: 1},
	Volume:  {CubicMeter: 1, CubicCm: 1e6, CubicInch: 1 / 1.63871e-5},
	// Capacity factors for mAh depend on the pack voltage; see factor.
	Capacity: {WattHour: 1, MilliampHour: math.NaN()},
}

var canonical = map[Family]Unit{
	Force:    Newton,
	Length:   Meter,
	Capacity: WattHour,
	Density:  KgPerCubicM,
	Area:     SquareMeter,
	Time:     Second,
	Voltage:  Volt,
	Current:  Ampere,
	Power:    Watt,
	Volume:   CubicMeter,
}

// ErrConversion is matched by every conversion failure.
var ErrConversion = errors.New("unit conversion failed")

// ConversionError reports an unknown unit or a conversion across families.
type ConversionError struct {
	From, To Unit
	Reason   string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %q to %q: %s", e.From, e.To, e.Reason)
}

func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

// CapacityConversionError reports an energy/charge conversion attempted
// without the voltage needed to relate the two.
type CapacityConversionError struct {
	From, To Unit
}

func (e *CapacityConversionError) Error() string {
	return fmt.Sprintf("converting %s to %s requires a voltage", e.From, e.To)
}

func (e *CapacityConversionError) Is(target error) bool { return target == ErrConversion }

// Option tunes a single conversion.
type Option func(*options)

type options struct {
	voltage    float64
	hasVoltage bool
}

// WithVoltage supplies the pack voltage used for mAh <-> Wh conversions.
func WithVoltage(v float64) Option {
	return func(o *options) {
		o.voltage = v
		o.hasVoltage = true
	}
}

// FamilyOf returns the family a unit belongs to.
func FamilyOf(u Unit) (Family, bool) {
	for fam, t := range tables {
		if _, ok := t[u]; ok {
			return fam, true
		}
	}
	return "", false
}

// Canonical returns the canonical metric unit of u's family.
func Canonical(u Unit) (Unit, error) {
	fam, ok := FamilyOf(u)
	if !ok {
		return "", &ConversionError{From: u, To: StdMetric, Reason: "unknown unit"}
	}
	return canonical[fam], nil
}

// CanonicalFor returns the canonical metric unit of a family.
func CanonicalFor(fam Family) Unit {
	return canonical[fam]
}

// Convert converts value from one unit to another. Passing StdMetric as the
// target converts to the canonical unit of the source family.
func Convert(value float64, from, to Unit, opts ...Option) (float64, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	fromFam, ok := FamilyOf(from)
	if !ok {
		return 0, &ConversionError{From: from, To: to, Reason: "unknown source unit"}
	}
	if to == StdMetric {
		to = canonical[fromFam]
	}
	if from == to {
		return value, nil
	}
	toFam, ok := FamilyOf(to)
	if !ok {
		return 0, &ConversionError{From: from, To: to, Reason: "unknown target unit"}
	}
	if fromFam != toFam {
		return 0, &ConversionError{From: from, To: to, Reason: fmt.Sprintf("%s is not %s", fromFam, toFam)}
	}

	fFrom, err := factor(fromFam, from, to, o)
	if err != nil {
		return 0, err
	}
	fTo, err := factor(toFam, to, from, o)
	if err != nil {
		return 0, err
	}
	return value * fTo / fFrom, nil
}

func factor(fam Family, u, other Unit, o options) (float64, error) {
	if fam == Capacity && u == MilliampHour {
		if !o.hasVoltage || o.voltage <= 0 {
			return 0, &CapacityConversionError{From: u, To: other}
		}
		// 1 Wh = 1000/V mAh
		return 1000 / o.voltage, nil
	}
	return tables[fam][u], nil
}

// ConvertPtr converts an optional value; nil passes through unchanged.
func ConvertPtr(value *float64, from, to Unit, opts ...Option) (*float64, error) {
	if value == nil {
		return nil, nil
	}
	v, err := Convert(*value, from, to, opts...)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
