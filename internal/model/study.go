package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/piwi3910/RotorSizer/internal/units"
)

// Study is a saved trade study: mission requirements expressed against
// catalog names, the ranking weights and the frame model to evaluate with.
type Study struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`

	EnduranceRequired units.Quantity  `json:"endurance_required"`
	PayloadRequired   units.Quantity  `json:"payload_required"`
	MaxWeight         units.Quantity  `json:"max_weight"`
	MaxSize           units.Quantity  `json:"max_size"`
	Maneuverability   Maneuverability `json:"maneuverability"`
	MaxBuildTime      units.Quantity  `json:"max_build_time"`
	CoverPlate        bool            `json:"cover_plate"`

	Printer          string   `json:"printer"`
	Cutter           string   `json:"cutter,omitempty"`
	Sensors          []string `json:"sensors"`
	PrintMaterials   []string `json:"print_materials"`
	CuttingMaterials []string `json:"cutting_materials,omitempty"`

	Frame      FrameKind     `json:"frame"`
	HubLayout  HubLayoutMode `json:"hub_layout,omitempty"`
	Weightings []Weighting   `json:"weightings"`
}

// NewStudy creates a study with default requirements and weightings.
func NewStudy(name string) Study {
	now := time.Now().UTC().Format(time.RFC3339)
	def := DefaultConstraints()
	return Study{
		ID:                uuid.New().String()[:8],
		Name:              name,
		CreatedAt:         now,
		UpdatedAt:         now,
		EnduranceRequired: def.EnduranceRequired,
		PayloadRequired:   def.PayloadRequired,
		MaxWeight:         def.MaxWeight,
		MaxSize:           def.MaxSize,
		Maneuverability:   def.Maneuverability,
		MaxBuildTime:      def.MaxBuildTime,
		Sensors:           []string{},
		PrintMaterials:    []string{},
		Frame:             FramePlate,
		HubLayout:         HubLayoutSimple,
		Weightings:        DefaultWeightings(),
	}
}

// Resolve looks up every named component in the catalog and builds the
// constraint set for a run.
func (s Study) Resolve(cat *Catalog) (ConstraintSet, error) {
	cs := ConstraintSet{
		EnduranceRequired: s.EnduranceRequired,
		PayloadRequired:   s.PayloadRequired,
		MaxWeight:         s.MaxWeight,
		MaxSize:           s.MaxSize,
		Maneuverability:   s.Maneuverability,
		MaxBuildTime:      s.MaxBuildTime,
		CoverPlate:        s.CoverPlate,
		Sensors:           make([]Sensor, 0, len(s.Sensors)),
		PrintMaterials:    make([]PrintMaterial, 0, len(s.PrintMaterials)),
	}

	printer := cat.FindPrinter(s.Printer)
	if printer == nil {
		return ConstraintSet{}, fmt.Errorf("study %s: printer %q not in catalog", s.Name, s.Printer)
	}
	cs = cs.WithPrinter(*printer)

	if s.Cutter != "" {
		cutter := cat.FindCutter(s.Cutter)
		if cutter == nil {
			return ConstraintSet{}, fmt.Errorf("study %s: cutter %q not in catalog", s.Name, s.Cutter)
		}
		cs = cs.WithCutter(*cutter)
	}

	for _, name := range s.Sensors {
		sensor := cat.FindSensor(name)
		if sensor == nil {
			return ConstraintSet{}, fmt.Errorf("study %s: sensor %q not in catalog", s.Name, name)
		}
		cs.Sensors = append(cs.Sensors, *sensor)
	}
	for _, name := range s.PrintMaterials {
		pm := cat.FindPrintMaterial(name)
		if pm == nil {
			return ConstraintSet{}, fmt.Errorf("study %s: print material %q not in catalog", s.Name, name)
		}
		cs.PrintMaterials = append(cs.PrintMaterials, *pm)
	}
	for _, name := range s.CuttingMaterials {
		cm := cat.FindCuttingMaterial(name)
		if cm == nil {
			return ConstraintSet{}, fmt.Errorf("study %s: cutting material %q not in catalog", s.Name, name)
		}
		cs.CuttingMaterials = append(cs.CuttingMaterials, *cm)
	}

	if err := cs.Validate(); err != nil {
		return ConstraintSet{}, fmt.Errorf("study %s: %w", s.Name, err)
	}
	return cs, nil
}

// EvalSettings returns evaluator settings for this study on top of base.
func (s Study) EvalSettings(base EvalSettings) EvalSettings {
	if s.Frame != "" {
		base.Frame = s.Frame
	}
	if s.HubLayout != "" {
		base.HubLayout = s.HubLayout
	}
	return base
}

// Touch updates the modification timestamp.
func (s *Study) Touch() {
	s.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}
