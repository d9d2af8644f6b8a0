package fixedpoint

import "math"

// Codec is a saturating fixed-point format with 2^Shift steps per unit.
type Codec struct {
	Shift uint
	Min   float64
	Max   float64
}

var (
	// Weight is the s15.16 format used for weight matrices.
	Weight = Codec{Shift: 16, Min: -32768.0, Max: 32768.0 - 1.0/(1<<16)}
	// Fpreal is the s16.15 format used for integration steps, clamp
	// strengths, initial nets and stop criteria.
	Fpreal = Codec{Shift: 15, Min: -65536.0, Max: 65536.0 - 1.0/(1<<15)}
	// Activation is the s0.15 format used for unit outputs.
	Activation = Codec{Shift: 15, Min: -1.0, Max: 1.0 - 1.0/(1<<15)}
)

// ShortFprealShift is the scale of the 16-bit hyper-parameter format.
const ShortFprealShift = 12

func (c Codec) scale() float64 {
	return float64(int64(1) << c.Shift)
}

// LSB returns the value of one unit of least precision.
func (c Codec) LSB() float64 {
	return 1 / c.scale()
}

// Encode converts v to fixed point. The second result is true when v lay
// outside [Min, Max] and was clamped to the nearest bound. NaN encodes as
// zero and is reported as saturated.
func (c Codec) Encode(v float64) (int32, bool) {
	switch {
	case math.IsNaN(v):
		return 0, true
	case v > c.Max:
		return c.bound(c.Max), true
	case v < c.Min:
		return c.bound(c.Min), true
	}

	q := math.Round(v * c.scale())
	lo, hi := float64(c.bound(c.Min)), float64(c.bound(c.Max))
	if q > hi {
		q = hi
	} else if q < lo {
		q = lo
	}
	return int32(q), false
}

// Decode converts a fixed-point value back to a float.
func (c Codec) Decode(q int32) float64 {
	return float64(q) / c.scale()
}

func (c Codec) bound(b float64) int32 {
	return int32(math.Trunc(b * c.scale()))
}

// ShortFpreal encodes a hyper-parameter (learning rate, decay, momentum) as
// the raw bits of a 16-bit s3.12 value. The product is truncated toward zero
// and only its low 16 bits are kept.
func ShortFpreal(v float64) uint16 {
	return uint16(int64(v*(1<<ShortFprealShift)) & 0xffff)
}

// ShortFprealFits reports whether ShortFpreal keeps v's value, that is
// whether the truncated product lies within the int16 range.
func ShortFprealFits(v float64) bool {
	q := int64(v * (1 << ShortFprealShift))
	return q >= math.MinInt16 && q <= math.MaxInt16
}
