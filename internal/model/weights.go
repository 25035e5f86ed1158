package model

import (
	"errors"
	"fmt"
)

// Attribute names a performance metric used for ranking.
type Attribute string

const (
	AttrEndurance Attribute = "max_endurance"
	AttrPayload   Attribute = "max_payload"
	AttrWeight    Attribute = "weight"
	AttrSize      Attribute = "max_dimension"
	AttrBuildTime Attribute = "build_time"
)

// Attributes lists every rankable metric.
func Attributes() []Attribute {
	return []Attribute{AttrEndurance, AttrPayload, AttrWeight, AttrSize, AttrBuildTime}
}

// Label is the display name of a metric.
func (a Attribute) Label() string {
	switch a {
	case AttrEndurance:
		return "Endurance"
	case AttrPayload:
		return "Payload"
	case AttrWeight:
		return "Weight"
	case AttrSize:
		return "Max Dimension"
	case AttrBuildTime:
		return "Build Time"
	}
	return string(a)
}

// Direction is the preferred direction of a metric.
type Direction string

const (
	Maximize Direction = "high"
	Minimize Direction = "low"
)

// Weighting is one entry of an ordered importance list.
type Weighting struct {
	Attribute  Attribute `json:"attribute"`
	Importance float64   `json:"importance"`
	Direction  Direction `json:"direction"`
}

// ErrInvalidWeights is wrapped by ValidateWeightings failures.
var ErrInvalidWeights = errors.New("invalid weightings")

// DefaultWeightings gives every metric the same importance.
func DefaultWeightings() []Weighting {
	return []Weighting{
		{Attribute: AttrEndurance, Importance: 50, Direction: Maximize},
		{Attribute: AttrPayload, Importance: 50, Direction: Maximize},
		{Attribute: AttrWeight, Importance: 50, Direction: Minimize},
		{Attribute: AttrSize, Importance: 50, Direction: Minimize},
		{Attribute: AttrBuildTime, Importance: 50, Direction: Minimize},
	}
}

// ValidateWeightings rejects empty lists, unknown or repeated attributes,
// negative importances and an all-zero total.
func ValidateWeightings(ws []Weighting) error {
	if len(ws) == 0 {
		return fmt.Errorf("%w: no attributes", ErrInvalidWeights)
	}
	known := make(map[Attribute]bool)
	for _, a := range Attributes() {
		known[a] = true
	}
	seen := make(map[Attribute]bool)
	total := 0.0
	for _, w := range ws {
		if !known[w.Attribute] {
			return fmt.Errorf("%w: unknown attribute %q", ErrInvalidWeights, w.Attribute)
		}
		if seen[w.Attribute] {
			return fmt.Errorf("%w: %q listed twice", ErrInvalidWeights, w.Attribute)
		}
		seen[w.Attribute] = true
		if w.Importance < 0 {
			return fmt.Errorf("%w: %s importance %.3f is negative", ErrInvalidWeights, w.Attribute, w.Importance)
		}
		if w.Direction != Maximize && w.Direction != Minimize {
			return fmt.Errorf("%w: %s direction %q", ErrInvalidWeights, w.Attribute, w.Direction)
		}
		total += w.Importance
	}
	if total <= 0 {
		return fmt.Errorf("%w: importances sum to zero", ErrInvalidWeights)
	}
	return nil
}

// NormalizedImportances returns the importances scaled to sum to one.
func NormalizedImportances(ws []Weighting) []float64 {
	total := 0.0
	for _, w := range ws {
		total += w.Importance
	}
	out := make([]float64, len(ws))
	for i, w := range ws {
		out[i] = w.Importance / total
	}
	return out
}
