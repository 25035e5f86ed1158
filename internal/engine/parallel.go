package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/RotorSizer/internal/model"
)

// EvaluateAll evaluates every candidate against cs, spreading the work over
// Settings.Workers goroutines. The result keeps the input order. The first
// evaluation error cancels the remaining work and is returned.
func (e *Evaluator) EvaluateAll(ctx context.Context, cands []model.Candidate, cs model.ConstraintSet) ([]model.Candidate, error) {
	l, err := newLimits(cs)
	if err != nil {
		return nil, err
	}

	out := make([]model.Candidate, len(cands))
	workers := e.Settings.Workers
	if workers <= 1 {
		for i, c := range cands {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if out[i], err = e.evaluate(c, &l); err != nil {
				return nil, fmt.Errorf("failed to evaluate candidates: %w", err)
			}
		}
		return out, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range cands {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := e.evaluate(cands[i], &l)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to evaluate candidates: %w", err)
	}
	return out, nil
}
