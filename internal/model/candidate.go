package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/piwi3910/RotorSizer/internal/units"
)

// VoltageTolerance is the largest battery/test-voltage mismatch, in volts,
// for which a battery may drive a prop/motor combo.
const VoltageTolerance = 0.1

// Status is the evaluation state of a Candidate.
type Status int

const (
	Unevaluated Status = iota
	Feasible
	Infeasible
)

func (s Status) String() string {
	switch s {
	case Feasible:
		return "feasible"
	case Infeasible:
		return "infeasible"
	default:
		return "unevaluated"
	}
}

// Rejection is the first constraint a candidate failed and the value it
// measured when failing it.
type Rejection struct {
	Reason string         `json:"reason"`
	Value  units.Quantity `json:"value"`
}

// Performance is the set of metrics computed for a feasible design, in
// canonical metric units.
type Performance struct {
	Weight    units.Quantity `json:"weight"`
	Payload   units.Quantity `json:"max_payload"`
	Endurance units.Quantity `json:"max_endurance"`
	Size      units.Quantity `json:"max_dimension"`
	BuildTime units.Quantity `json:"build_time"`
}

// Attr returns the metric named by a.
func (p Performance) Attr(a Attribute) (units.Quantity, error) {
	switch a {
	case AttrWeight:
		return p.Weight, nil
	case AttrPayload:
		return p.Payload, nil
	case AttrEndurance:
		return p.Endurance, nil
	case AttrSize:
		return p.Size, nil
	case AttrBuildTime:
		return p.BuildTime, nil
	}
	return units.Quantity{}, fmt.Errorf("performance: %w %q", ErrUnknownAttribute, string(a))
}

// Geometry is the sized airframe of a feasible design.
type Geometry struct {
	HubLength     units.Quantity `json:"hub_length"`
	HubWidth      units.Quantity `json:"hub_width"`
	HubSeparation units.Quantity `json:"hub_separation"`
	ArmLength     units.Quantity `json:"arm_length"`
	HubLayers     int            `json:"hub_layers"`
}

// Candidate is one combination of components under evaluation.
type Candidate struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Combo           PropMotorCombo   `json:"pmcombo"`
	Battery         Battery          `json:"battery"`
	PrintMaterial   PrintMaterial    `json:"print_material"`
	CuttingMaterial *CuttingMaterial `json:"cutting_material,omitempty"`

	Status      Status       `json:"status"`
	Rejection   *Rejection   `json:"rejection,omitempty"`
	Performance *Performance `json:"performance,omitempty"`
	Geometry    *Geometry    `json:"geometry,omitempty"`

	Score  float64 `json:"score"`
	Pareto bool    `json:"pareto"`
	Scored bool    `json:"scored"`
}

// NewCandidate wraps a component combination as an unevaluated candidate.
func NewCandidate(combo PropMotorCombo, bat Battery, pm PrintMaterial, cm *CuttingMaterial) Candidate {
	return Candidate{
		ID:              uuid.New().String()[:8],
		Name:            fmt.Sprintf("(%s, %s)", combo.Name, bat.Name),
		Combo:           combo,
		Battery:         bat,
		PrintMaterial:   pm,
		CuttingMaterial: cm,
		Status:          Unevaluated,
	}
}

// Compatible reports whether a battery can power a combo at its test voltage.
func Compatible(combo PropMotorCombo, bat Battery) bool {
	d := bat.Voltage.Value - combo.TestVoltage.Value
	if d < 0 {
		d = -d
	}
	return d < VoltageTolerance
}

// IsFeasible reports whether the candidate passed every check.
func (c Candidate) IsFeasible() bool { return c.Status == Feasible }

// MarkFeasible records the computed performance and geometry.
func (c Candidate) MarkFeasible(p Performance, g Geometry) Candidate {
	c.Status = Feasible
	c.Performance = &p
	c.Geometry = &g
	c.Rejection = nil
	return c
}

// MarkInfeasible records the first failed check.
func (c Candidate) MarkInfeasible(reason string, value units.Quantity) Candidate {
	c.Status = Infeasible
	c.Rejection = &Rejection{Reason: reason, Value: value}
	c.Performance = nil
	c.Geometry = nil
	return c
}

// FeasibleOnly returns the feasible subset, preserving order.
func FeasibleOnly(cands []Candidate) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.IsFeasible() {
			out = append(out, c)
		}
	}
	return out
}
