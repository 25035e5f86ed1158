package model

import (
	"fmt"

	"github.com/piwi3910/RotorSizer/internal/units"
)

// FrameKind selects the structural model used to size and weigh the airframe.
type FrameKind string

const (
	FramePlate    FrameKind = "plate"    // Printed arms on base/top plates; tabulated volumes and build times
	FrameOnePiece FrameKind = "onepiece" // Single printed body; closed-form regressions
	FrameLayered  FrameKind = "layered"  // Laser-cut layered hub with printed arms
)

// HubLayoutMode selects how the layered hub is sized.
type HubLayoutMode string

const (
	HubLayoutSimple HubLayoutMode = "simple" // Two layers sized from the largest component
	HubLayoutGrid   HubLayoutMode = "grid"   // Full occupancy-grid placement of sensors
)

// FrameTables holds per-part volume and build-time curves indexed by
// propeller diameter, used by the plate frame.
type FrameTables struct {
	PropDiameter       units.Series `json:"prop_diameter"`
	ArmVolume          units.Series `json:"arm_volume"`
	BasePlateVolume    units.Series `json:"base_plate_volume"`
	TopPlateVolume     units.Series `json:"top_plate_volume"`
	CoverVolume        units.Series `json:"cover_volume"`
	ArmBuildTime       units.Series `json:"arm_build_time"`
	BasePlateBuildTime units.Series `json:"base_plate_build_time"`
	TopPlateBuildTime  units.Series `json:"top_plate_build_time"`
	CoverBuildTime     units.Series `json:"cover_build_time"`

	// Placeholder marks the built-in curves. Tables read from a file never
	// carry it.
	Placeholder bool `json:"-"`
}

// Validate checks that every curve matches the index length and unit family.
func (t FrameTables) Validate() error {
	if err := (units.Quantity{Unit: t.PropDiameter.Unit}).Expect(units.Length); err != nil {
		return fmt.Errorf("frame tables: prop_diameter: %w", err)
	}
	n := t.PropDiameter.Len()
	if n < 2 {
		return fmt.Errorf("frame tables: need at least two prop diameters, got %d", n)
	}
	for i := 1; i < n; i++ {
		if t.PropDiameter.Values[i] <= t.PropDiameter.Values[i-1] {
			return fmt.Errorf("frame tables: prop diameters must be strictly increasing")
		}
	}
	curves := []struct {
		name string
		s    units.Series
		fam  units.Family
	}{
		{"arm_volume", t.ArmVolume, units.Volume},
		{"base_plate_volume", t.BasePlateVolume, units.Volume},
		{"top_plate_volume", t.TopPlateVolume, units.Volume},
		{"cover_volume", t.CoverVolume, units.Volume},
		{"arm_build_time", t.ArmBuildTime, units.Time},
		{"base_plate_build_time", t.BasePlateBuildTime, units.Time},
		{"top_plate_build_time", t.TopPlateBuildTime, units.Time},
		{"cover_build_time", t.CoverBuildTime, units.Time},
	}
	for _, c := range curves {
		if c.s.Len() != n {
			return fmt.Errorf("frame tables: %s has %d values, want %d", c.name, c.s.Len(), n)
		}
		if err := (units.Quantity{Unit: c.s.Unit}).Expect(c.fam); err != nil {
			return fmt.Errorf("frame tables: %s: %w", c.name, err)
		}
	}
	return nil
}

// DefaultFrameTables returns placeholder curves for the plate frame,
// covering 5 to 16 inch propellers. They are not calibrated against a
// measured frame: plate-frame weights and build times computed from them
// are estimates until real tables are loaded from a file.
func DefaultFrameTables() FrameTables {
	in3 := func(v ...float64) units.Series { return units.Series{Values: v, Unit: units.CubicInch} }
	hr := func(v ...float64) units.Series { return units.Series{Values: v, Unit: units.Hour} }
	return FrameTables{
		PropDiameter:       units.Series{Values: []float64{5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}, Unit: units.Inch},
		ArmVolume:          in3(2.15, 2.4, 2.65, 2.9, 3.15, 3.4, 3.65, 3.9, 4.15, 4.4, 4.65, 4.9),
		BasePlateVolume:    in3(3.1, 3.1, 3.2, 3.2, 3.3, 3.4, 3.5, 3.6, 3.7, 3.8, 3.9, 4.0),
		TopPlateVolume:     in3(2.2, 2.2, 2.3, 2.3, 2.4, 2.5, 2.5, 2.6, 2.7, 2.8, 2.9, 3.0),
		CoverVolume:        in3(4.8, 4.8, 4.9, 5.0, 5.1, 5.2, 5.3, 5.4, 5.5, 5.6, 5.7, 5.8),
		ArmBuildTime:       hr(1.5, 1.62, 1.74, 1.86, 1.98, 2.1, 2.22, 2.34, 2.46, 2.58, 2.7, 2.82),
		BasePlateBuildTime: hr(2.0, 2.0, 2.1, 2.1, 2.2, 2.2, 2.3, 2.3, 2.4, 2.4, 2.5, 2.6),
		TopPlateBuildTime:  hr(1.5, 1.5, 1.6, 1.6, 1.7, 1.7, 1.8, 1.8, 1.9, 1.9, 2.0, 2.1),
		CoverBuildTime:     hr(3.0, 3.0, 3.1, 3.2, 3.3, 3.4, 3.5, 3.6, 3.7, 3.8, 3.9, 4.0),
		Placeholder:        true,
	}
}

// EvalSettings configures the feasibility evaluator.
type EvalSettings struct {
	Frame     FrameKind     `json:"frame"`
	HubLayout HubLayoutMode `json:"hub_layout"` // Layered frame only
	Tables    FrameTables   `json:"tables"`     // Plate frame only
	Workers   int           `json:"workers"`    // Parallel evaluations; 0 or 1 runs serially
}

// DefaultEvalSettings returns the plate frame with the built-in tables.
func DefaultEvalSettings() EvalSettings {
	return EvalSettings{
		Frame:     FramePlate,
		HubLayout: HubLayoutSimple,
		Tables:    DefaultFrameTables(),
		Workers:   1,
	}
}
