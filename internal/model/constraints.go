package model

import (
	"errors"
	"fmt"

	"github.com/piwi3910/RotorSizer/internal/units"
)

// Maneuverability is the requested agility class of the vehicle.
type Maneuverability string

const (
	ManeuverNormal    Maneuverability = "Normal"
	ManeuverHigh      Maneuverability = "High"
	ManeuverAcrobatic Maneuverability = "Acrobatic"
)

// ThrustMargin returns the ratio of available to hover thrust demanded by
// the class.
func (m Maneuverability) ThrustMargin() (float64, error) {
	switch m {
	case ManeuverNormal:
		return 1.29, nil
	case ManeuverHigh:
		return 1.66, nil
	case ManeuverAcrobatic:
		return 2.09, nil
	}
	return 0, fmt.Errorf("unknown maneuverability %q", string(m))
}

// ConstraintSet captures the mission requirements for one study. All
// quantities are unit-tagged; the evaluator converts them once.
type ConstraintSet struct {
	EnduranceRequired units.Quantity  `json:"endurance_required"`
	PayloadRequired   units.Quantity  `json:"payload_required"`
	MaxWeight         units.Quantity  `json:"max_weight"`
	MaxSize           units.Quantity  `json:"max_size"`
	Maneuverability   Maneuverability `json:"maneuverability"`
	PrinterLength     units.Quantity  `json:"printer_length"`
	PrinterWidth      units.Quantity  `json:"printer_width"`
	PrinterHeight     units.Quantity  `json:"printer_height"`
	MaxBuildTime      units.Quantity  `json:"max_build_time"`
	Sensors           []Sensor        `json:"sensors"`
	PrintMaterials    []PrintMaterial `json:"print_materials"`
	CoverPlate        bool            `json:"cover_plate"`

	// Laser-cut hub frames only.
	CutterLength     *units.Quantity   `json:"cutter_length,omitempty"`
	CutterWidth      *units.Quantity   `json:"cutter_width,omitempty"`
	CuttingMaterials []CuttingMaterial `json:"cutting_materials,omitempty"`
}

// ErrInvalidConstraints is wrapped by every ConstraintSet.Validate failure.
var ErrInvalidConstraints = errors.New("invalid constraint set")

// Validate checks that each requirement carries a unit of the right family
// and that the maneuverability class is known.
func (cs ConstraintSet) Validate() error {
	checks := []struct {
		field string
		q     units.Quantity
		fam   units.Family
	}{
		{"endurance_required", cs.EnduranceRequired, units.Time},
		{"payload_required", cs.PayloadRequired, units.Force},
		{"max_weight", cs.MaxWeight, units.Force},
		{"max_size", cs.MaxSize, units.Length},
		{"printer_length", cs.PrinterLength, units.Length},
		{"printer_width", cs.PrinterWidth, units.Length},
		{"printer_height", cs.PrinterHeight, units.Length},
		{"max_build_time", cs.MaxBuildTime, units.Time},
	}
	for _, c := range checks {
		if err := c.q.Expect(c.fam); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConstraints, c.field, err)
		}
	}
	for field, q := range map[string]*units.Quantity{"cutter_length": cs.CutterLength, "cutter_width": cs.CutterWidth} {
		if q == nil {
			continue
		}
		if err := q.Expect(units.Length); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConstraints, field, err)
		}
	}
	if len(cs.CuttingMaterials) > 0 && (cs.CutterLength == nil || cs.CutterWidth == nil) {
		return fmt.Errorf("%w: cutting materials selected without cutter dimensions", ErrInvalidConstraints)
	}
	if _, err := cs.Maneuverability.ThrustMargin(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConstraints, err)
	}
	return nil
}

// WithPrinter copies a printer's build volume into the constraint set.
func (cs ConstraintSet) WithPrinter(p Printer) ConstraintSet {
	cs.PrinterLength = p.Length
	cs.PrinterWidth = p.Width
	cs.PrinterHeight = p.Height
	return cs
}

// WithCutter copies a cutter's bed size into the constraint set.
func (cs ConstraintSet) WithCutter(c Cutter) ConstraintSet {
	l, w := c.Length, c.Width
	cs.CutterLength = &l
	cs.CutterWidth = &w
	return cs
}

// ForFrame drops the cutting materials unless the frame is layered; no
// other frame cuts a hub plate, and each material would otherwise
// duplicate every candidate.
func (cs ConstraintSet) ForFrame(kind FrameKind) ConstraintSet {
	if kind != FrameLayered {
		cs.CuttingMaterials = nil
	}
	return cs
}

// SensorWeight sums the weight of the selected sensors in newtons.
func (cs ConstraintSet) SensorWeight() (units.Quantity, error) {
	total := 0.0
	for _, s := range cs.Sensors {
		w, err := s.Weight.In(units.Newton)
		if err != nil {
			return units.Quantity{}, fmt.Errorf("sensor %s: %w", s.Name, err)
		}
		total += w
	}
	return units.Q(total, units.Newton), nil
}

// DefaultConstraints returns a permissive starting point for a new study.
func DefaultConstraints() ConstraintSet {
	return ConstraintSet{
		EnduranceRequired: units.Q(10, units.Minute),
		PayloadRequired:   units.Q(0, units.Newton),
		MaxWeight:         units.Q(50, units.Newton),
		MaxSize:           units.Q(1, units.Meter),
		Maneuverability:   ManeuverNormal,
		PrinterLength:     units.Q(0.3, units.Meter),
		PrinterWidth:      units.Q(0.3, units.Meter),
		PrinterHeight:     units.Q(0.3, units.Meter),
		MaxBuildTime:      units.Q(24, units.Hour),
		Sensors:           []Sensor{},
		PrintMaterials:    []PrintMaterial{},
	}
}
