// Package interp provides one-dimensional linear interpolation over sampled
// curves such as motor thrust-versus-current test data.
package interp

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is matched by OutOfRangeError.
	ErrOutOfRange = errors.New("insufficient data")

	// ErrMismatchedSamples is returned when xs and ys differ in length or are empty.
	ErrMismatchedSamples = errors.New("sample vectors must be non-empty and of equal length")
)

// OutOfRangeError reports a query point outside the sampled domain.
type OutOfRangeError struct {
	X        float64
	Min, Max float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("insufficient data: %g outside [%g, %g]", e.X, e.Min, e.Max)
}

func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }

// Linear returns y at x by linear interpolation between the bracketing
// samples. Samples are scanned in array order; an exact match on a sample
// returns that sample's y unchanged.
func Linear(xs, ys []float64, x float64) (float64, error) {
	if len(xs) == 0 || len(xs) != len(ys) {
		return 0, ErrMismatchedSamples
	}

	lo, hi := xs[0], xs[0]
	for _, v := range xs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if x < lo || x > hi {
		return 0, &OutOfRangeError{X: x, Min: lo, Max: hi}
	}

	for i, v := range xs {
		if v == x {
			return ys[i], nil
		}
	}

	for i := 1; i < len(xs); i++ {
		if xs[i] > x {
			x0, x1 := xs[i-1], xs[i]
			y0, y1 := ys[i-1], ys[i]
			return y0 + (x-x0)*(y1-y0)/(x1-x0), nil
		}
	}
	// Reachable only for unsorted samples where no later point exceeds x.
	return 0, &OutOfRangeError{X: x, Min: lo, Max: hi}
}

// Scalar interpolates over a single sample pair. It succeeds only when x
// equals x0.
func Scalar(x0, y0, x float64) (float64, error) {
	return Linear([]float64{x0}, []float64{y0}, x)
}

// Table is a named curve indexed by X.
type Table struct {
	Name string    `json:"name"`
	X    []float64 `json:"x"`
	Y    []float64 `json:"y"`
}

// At interpolates the table at x.
func (t Table) At(x float64) (float64, error) {
	y, err := Linear(t.X, t.Y, x)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", t.Name, err)
	}
	return y, nil
}

// Validate checks that the table can be interpolated.
func (t Table) Validate() error {
	if len(t.X) == 0 || len(t.X) != len(t.Y) {
		return fmt.Errorf("table %q: %w", t.Name, ErrMismatchedSamples)
	}
	for i := 1; i < len(t.X); i++ {
		if t.X[i] <= t.X[i-1] {
			return fmt.Errorf("table %q: x values must be strictly increasing", t.Name)
		}
	}
	return nil
}
