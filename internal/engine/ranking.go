package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/piwi3910/RotorSizer/internal/model"
)

// ErrNotFeasible is returned when Score is given an infeasible candidate.
var ErrNotFeasible = errors.New("only feasible candidates can be scored")

// Score ranks feasible candidates by relative closeness to the ideal design
// (TOPSIS with vector normalization) and flags the Pareto-optimal ones. The
// input is not modified; scored copies are returned in the same order.
func Score(cands []model.Candidate, ws []model.Weighting) ([]model.Candidate, error) {
	if err := model.ValidateWeightings(ws); err != nil {
		return nil, err
	}
	out := make([]model.Candidate, len(cands))
	copy(out, cands)
	if len(out) == 0 {
		return out, nil
	}

	values, err := attributeMatrix(out, ws)
	if err != nil {
		return nil, err
	}

	weights := model.NormalizedImportances(ws)
	dPos := make([]float64, len(out))
	dNeg := make([]float64, len(out))
	for j, w := range ws {
		col := values[j]
		norm := 0.0
		for _, v := range col {
			norm += v * v
		}
		norm = math.Sqrt(norm)

		weighted := make([]float64, len(col))
		if norm > 0 {
			for i, v := range col {
				weighted[i] = weights[j] * v / norm
			}
		}
		lo, hi := minMax(weighted)
		pos, neg := hi, lo
		if w.Direction == model.Minimize {
			pos, neg = lo, hi
		}
		for i, v := range weighted {
			dPos[i] += (v - pos) * (v - pos)
			dNeg[i] += (v - neg) * (v - neg)
		}
	}

	for i := range out {
		p, n := math.Sqrt(dPos[i]), math.Sqrt(dNeg[i])
		if p+n == 0 {
			out[i].Score = 1
		} else {
			out[i].Score = n / (p + n)
		}
		out[i].Scored = true
	}
	markPareto(out, values, ws)
	return out, nil
}

// attributeMatrix returns one column of raw canonical values per weighting.
func attributeMatrix(cands []model.Candidate, ws []model.Weighting) ([][]float64, error) {
	values := make([][]float64, len(ws))
	for j, w := range ws {
		values[j] = make([]float64, len(cands))
		for i, c := range cands {
			if !c.IsFeasible() || c.Performance == nil {
				return nil, fmt.Errorf("%s: %w", c.Name, ErrNotFeasible)
			}
			q, err := c.Performance.Attr(w.Attribute)
			if err != nil {
				return nil, err
			}
			values[j][i] = q.Value
		}
	}
	return values, nil
}

func minMax(vs []float64) (float64, float64) {
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// SortKey selects the ordering applied by Sort.
type SortKey string

const (
	SortScore     SortKey = "score"
	SortEndurance SortKey = "max_endurance"
	SortPayload   SortKey = "max_payload"
	SortBuildTime SortKey = "build_time"
	SortWeight    SortKey = "weight"
	SortSize      SortKey = "max_dimension"
)

// SortKeys lists every supported key.
func SortKeys() []SortKey {
	return []SortKey{SortScore, SortEndurance, SortPayload, SortBuildTime, SortWeight, SortSize}
}

// Sort orders candidates best first by key: highest score, endurance and
// payload; lowest build time, weight and size. Candidates without
// performance sort last. The sort is stable.
func Sort(cands []model.Candidate, key SortKey) error {
	var (
		value  func(model.Candidate) float64
		higher bool
	)
	switch key {
	case SortScore:
		value, higher = func(c model.Candidate) float64 { return c.Score }, true
	case SortEndurance, SortPayload, SortBuildTime, SortWeight, SortSize:
		attr := model.Attribute(key)
		value = func(c model.Candidate) float64 {
			q, _ := c.Performance.Attr(attr)
			return q.Value
		}
		higher = key == SortEndurance || key == SortPayload
	default:
		return fmt.Errorf("unknown sort key %q", key)
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.Performance == nil || b.Performance == nil {
			return a.Performance != nil && b.Performance == nil
		}
		if higher {
			return value(a) > value(b)
		}
		return value(a) < value(b)
	})
	return nil
}
