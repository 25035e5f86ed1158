package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/piwi3910/RotorSizer/internal/model"
	"github.com/piwi3910/RotorSizer/internal/units"
)

// FailureStat aggregates the candidates rejected for one reason.
type FailureStat struct {
	Reason    string          `json:"reason"`
	Count     int             `json:"count"`
	Mean      units.Quantity  `json:"mean"`                // mean measured value, canonical units
	Threshold *units.Quantity `json:"threshold,omitempty"` // the constraint that was violated
}

// Summary describes the outcome of one evaluation run.
type Summary struct {
	Total    int           `json:"total"`
	Feasible int           `json:"feasible"`
	Failures []FailureStat `json:"failures"` // most frequent first
}

// Summarize groups the rejected candidates by reason. Ties in count keep
// the order in which reasons were first seen.
func Summarize(cands []model.Candidate, cs model.ConstraintSet) Summary {
	s := Summary{Total: len(cands), Failures: []FailureStat{}}
	index := make(map[string]int)
	sums := []float64{}
	for _, c := range cands {
		if c.IsFeasible() {
			s.Feasible++
			continue
		}
		if c.Rejection == nil {
			continue
		}
		i, ok := index[c.Rejection.Reason]
		if !ok {
			i = len(s.Failures)
			index[c.Rejection.Reason] = i
			s.Failures = append(s.Failures, FailureStat{
				Reason:    c.Rejection.Reason,
				Mean:      units.Quantity{Unit: c.Rejection.Value.Unit},
				Threshold: threshold(c.Rejection.Reason, cs),
			})
			sums = append(sums, 0)
		}
		s.Failures[i].Count++
		sums[i] += c.Rejection.Value.Value
	}
	for i := range s.Failures {
		s.Failures[i].Mean.Value = sums[i] / float64(s.Failures[i].Count)
	}
	sort.SliceStable(s.Failures, func(i, j int) bool { return s.Failures[i].Count > s.Failures[j].Count })
	return s
}

// threshold maps a rejection reason to the limit it measures against.
func threshold(reason string, cs model.ConstraintSet) *units.Quantity {
	var q units.Quantity
	switch reason {
	case ReasonTooLarge:
		q = cs.MaxSize
	case ReasonTooHeavy:
		q = cs.MaxWeight
	case ReasonPayload:
		q = cs.PayloadRequired
	case ReasonEndurance:
		q = cs.EnduranceRequired
	case ReasonBuildTime:
		q = cs.MaxBuildTime
	case ReasonArmsPrinter, ReasonHubPrinter:
		l, w, ok := bed(cs.PrinterLength, cs.PrinterWidth)
		if !ok {
			return nil
		}
		q = units.Q(math.Max(l, w), units.Meter)
	case ReasonBodyPrinter:
		l, w, ok := bed(cs.PrinterLength, cs.PrinterWidth)
		if !ok {
			return nil
		}
		q = units.Q(math.Hypot(l, w), units.Meter)
	case ReasonHubCutter:
		if cs.CutterLength == nil || cs.CutterWidth == nil {
			return nil
		}
		l, w, ok := bed(*cs.CutterLength, *cs.CutterWidth)
		if !ok {
			return nil
		}
		q = units.Q(math.Min(l, w), units.Meter)
	default:
		return nil
	}
	c, err := units.ToCanonical(q)
	if err != nil {
		return nil
	}
	return &c
}

// bed returns a printer or cutter bed in metres.
func bed(length, width units.Quantity) (l, w float64, ok bool) {
	l, errL := length.In(units.Meter)
	w, errW := width.In(units.Meter)
	return l, w, errL == nil && errW == nil
}

// Headline is the one-line summary shown after a run.
func (s Summary) Headline() string {
	head := fmt.Sprintf("%d/%d feasible alternatives.", s.Feasible, s.Total)
	if len(s.Failures) == 0 {
		return head + " Zero failures."
	}
	top := s.Failures[0]
	return fmt.Sprintf("%s Most popular fail: %s (%d)", head, top.Reason, top.Count)
}

// AttributeRange is the spread of one metric across the feasible set.
type AttributeRange struct {
	Attribute model.Attribute `json:"attribute"`
	Min       units.Quantity  `json:"min"`
	Max       units.Quantity  `json:"max"`
}

// Envelope returns the min and max of every performance metric over the
// feasible candidates, in model.Attributes order. It is empty when nothing
// is feasible.
func Envelope(cands []model.Candidate) []AttributeRange {
	feasible := model.FeasibleOnly(cands)
	out := []AttributeRange{}
	if len(feasible) == 0 {
		return out
	}
	for _, a := range model.Attributes() {
		var r AttributeRange
		r.Attribute = a
		for i, c := range feasible {
			q, err := c.Performance.Attr(a)
			if err != nil {
				continue
			}
			if i == 0 || q.Value < r.Min.Value {
				r.Min = q
			}
			if i == 0 || q.Value > r.Max.Value {
				r.Max = q
			}
		}
		out = append(out, r)
	}
	return out
}
