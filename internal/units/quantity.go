package units

import "fmt"

// Quantity is a value tagged with its unit.
type Quantity struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// Q is shorthand for Quantity{Value: v, Unit: u}.
func Q(v float64, u Unit) Quantity {
	return Quantity{Value: v, Unit: u}
}

// In returns the quantity expressed in unit u.
func (q Quantity) In(u Unit, opts ...Option) (float64, error) {
	return Convert(q.Value, q.Unit, u, opts...)
}

// MustIn is In for conversions known to be valid, such as between
// two canonical units of the same family. It panics on error.
func (q Quantity) MustIn(u Unit) float64 {
	v, err := q.In(u)
	if err != nil {
		panic(err)
	}
	return v
}

// IsZero reports whether the quantity was never set.
func (q Quantity) IsZero() bool {
	return q.Unit == "" && q.Value == 0
}

// Family returns the family of the quantity's unit.
func (q Quantity) Family() (Family, bool) {
	return FamilyOf(q.Unit)
}

// Expect fails unless the quantity belongs to the given family.
func (q Quantity) Expect(fam Family) error {
	got, ok := FamilyOf(q.Unit)
	if !ok {
		return &ConversionError{From: q.Unit, To: canonical[fam], Reason: "unknown unit"}
	}
	if got != fam {
		return &ConversionError{From: q.Unit, To: canonical[fam], Reason: fmt.Sprintf("expected a %s unit", fam)}
	}
	return nil
}

func (q Quantity) String() string {
	return fmt.Sprintf("%.4g %s", q.Value, q.Unit)
}

// ToCanonical converts q to its family's canonical metric unit.
func ToCanonical(q Quantity, opts ...Option) (Quantity, error) {
	to, err := Canonical(q.Unit)
	if err != nil {
		return Quantity{}, err
	}
	v, err := Convert(q.Value, q.Unit, to, opts...)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: v, Unit: to}, nil
}

// Series is a sampled vector sharing a single unit, such as a thrust curve.
type Series struct {
	Values []float64 `json:"values"`
	Unit   Unit      `json:"unit"`
}

// In returns a copy of the samples expressed in unit u.
func (s Series) In(u Unit, opts ...Option) ([]float64, error) {
	out := make([]float64, len(s.Values))
	for i, v := range s.Values {
		c, err := Convert(v, s.Unit, u, opts...)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.Values) }

// Max returns the largest sample as a Quantity. An empty series yields zero.
func (s Series) Max() Quantity {
	if len(s.Values) == 0 {
		return Quantity{Unit: s.Unit}
	}
	m := s.Values[0]
	for _, v := range s.Values[1:] {
		if v > m {
			m = v
		}
	}
	return Quantity{Value: m, Unit: s.Unit}
}

// SeriesToCanonical converts every sample of s to the canonical unit.
func SeriesToCanonical(s Series, opts ...Option) (Series, error) {
	to, err := Canonical(s.Unit)
	if err != nil {
		return Series{}, err
	}
	vals, err := s.In(to, opts...)
	if err != nil {
		return Series{}, err
	}
	return Series{Values: vals, Unit: to}, nil
}
