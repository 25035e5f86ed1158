package units

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_KnownFactors(t *testing.T) {
	v, err := Convert(1, Newton, PoundForce)
	require.NoError(t, err)
	assert.InDelta(t, 0.2248, v, 1e-12)

	v, err = Convert(39.37, Inch, Meter)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-12)

	v, err = Convert(90, Minute, Hour)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, v, 1e-12)

	v, err = Convert(1200, KgPerCubicM, SlugPerCubicFt)
	require.NoError(t, err)
	assert.InDelta(t, 2.328, v, 1e-9)
}

func TestConvert_RoundTripWithinFamily(t *testing.T) {
	for fam, table := range tables {
		for a := range table {
			for b := range table {
				x := 12.345
				there, err := Convert(x, a, b, WithVoltage(11.1))
				require.NoError(t, err, "%s: %s -> %s", fam, a, b)
				back, err := Convert(there, b, a, WithVoltage(11.1))
				require.NoError(t, err, "%s: %s -> %s", fam, b, a)
				assert.InDelta(t, x, back, 1e-9, "%s: %s <-> %s", fam, a, b)
			}
		}
	}
}

func TestConvert_CapacityNeedsVoltage(t *testing.T) {
	_, err := Convert(2200, MilliampHour, WattHour)
	var capErr *CapacityConversionError
	require.ErrorAs(t, err, &capErr)
	assert.True(t, errors.Is(err, ErrConversion))

	_, err = Convert(2200, MilliampHour, StdMetric)
	require.ErrorAs(t, err, &capErr)

	wh, err := Convert(2200, MilliampHour, WattHour, WithVoltage(11.1))
	require.NoError(t, err)
	assert.InDelta(t, 24.42, wh, 1e-9)

	// Same unit needs no context.
	v, err := Convert(2200, MilliampHour, MilliampHour)
	require.NoError(t, err)
	assert.Equal(t, 2200.0, v)
}

func TestConvert_UnknownAndCrossFamily(t *testing.T) {
	_, err := Convert(1, "furlong", Meter)
	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)

	_, err = Convert(1, Meter, "parsec")
	require.ErrorAs(t, err, &convErr)

	_, err = Convert(1, Newton, Meter)
	require.ErrorAs(t, err, &convErr)
	assert.ErrorIs(t, err, ErrConversion)
}

func TestConvert_StdMetric(t *testing.T) {
	v, err := Convert(10, Inch, StdMetric)
	require.NoError(t, err)
	assert.InDelta(t, 10/39.37, v, 1e-12)

	v, err = Convert(2, Hour, StdMetric)
	require.NoError(t, err)
	assert.InDelta(t, 7200, v, 1e-9)
}

func TestConvertPtr_NilPassesThrough(t *testing.T) {
	out, err := ConvertPtr(nil, "bogus", Meter)
	require.NoError(t, err)
	assert.Nil(t, out)

	in := 1.0
	out, err = ConvertPtr(&in, Foot, Inch)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.InDelta(t, 39.37/3.281, *out, 1e-12)
}

func TestToCanonical(t *testing.T) {
	q, err := ToCanonical(Q(1, PoundForce))
	require.NoError(t, err)
	assert.Equal(t, Newton, q.Unit)
	assert.InDelta(t, 1/0.2248, q.Value, 1e-12)

	_, err = ToCanonical(Q(1, "stone"))
	assert.ErrorIs(t, err, ErrConversion)
}

func TestQuantity_Expect(t *testing.T) {
	assert.NoError(t, Q(3, Inch).Expect(Length))
	assert.Error(t, Q(3, Inch).Expect(Force))
	assert.Error(t, Q(3, "").Expect(Force))
}

func TestSeries(t *testing.T) {
	s := Series{Values: []float64{0, 5, 2.5}, Unit: Newton}
	assert.Equal(t, Q(5, Newton), s.Max())
	assert.Equal(t, 3, s.Len())

	lbf, err := s.In(PoundForce)
	require.NoError(t, err)
	assert.InDelta(t, 5*0.2248, lbf[1], 1e-12)

	c, err := SeriesToCanonical(Series{Values: []float64{1000}, Unit: Milliampere})
	require.NoError(t, err)
	assert.Equal(t, Ampere, c.Unit)
	assert.InDelta(t, 1.0, c.Values[0], 1e-12)

	assert.Equal(t, Quantity{Unit: Newton}, Series{Unit: Newton}.Max())
}
