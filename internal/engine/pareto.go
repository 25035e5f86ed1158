package engine

import (
	"math"

	"github.com/piwi3910/RotorSizer/internal/model"
)

const relTol = 1e-9

// nearlyEqual reports whether a and b are equal within a relative tolerance.
func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= relTol*math.Max(math.Abs(a), math.Abs(b))
}

// dominates reports whether candidate b dominates candidate a: b is at least
// as good in every weighted attribute and strictly better in one.
func dominates(values [][]float64, ws []model.Weighting, b, a int) bool {
	better := false
	for j, w := range ws {
		va, vb := values[j][a], values[j][b]
		if nearlyEqual(va, vb) {
			continue
		}
		bBetter := vb > va
		if w.Direction == model.Minimize {
			bBetter = vb < va
		}
		if !bBetter {
			return false
		}
		better = true
	}
	return better
}

func markPareto(cands []model.Candidate, values [][]float64, ws []model.Weighting) {
	for a := range cands {
		cands[a].Pareto = true
		for b := range cands {
			if a != b && dominates(values, ws, b, a) {
				cands[a].Pareto = false
				break
			}
		}
	}
}

// ParetoFront returns the Pareto-optimal subset of scored candidates.
func ParetoFront(cands []model.Candidate) []model.Candidate {
	out := make([]model.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Pareto {
			out = append(out, c)
		}
	}
	return out
}
