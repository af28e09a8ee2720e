package vmath

import (
	"math"
	"math/bits"
)

// Fixed is a Q51.13 fixed point number
type Fixed int64

const (
	Shift = 13
	One   = Fixed(1 << Shift)
	Half  = Fixed(1 << (Shift - 1))
	Mask  = One - 1

	ScaleF = float64(One)

	// Epsilon is the smallest representable step
	Epsilon = Fixed(1)

	MaxFixed = Fixed(math.MaxInt64)
	MinFixed = Fixed(math.MinInt64)
)

// --- Conversion ---

func FromInt(i int) Fixed       { return Fixed(int64(i) << Shift) }
func FromFloat(f float64) Fixed { return Fixed(math.Round(f * ScaleF)) }

// FromRatio returns n/d without going through float
func FromRatio(n, d int) Fixed {
	if d == 0 {
		return 0
	}
	return Fixed((int64(n) << Shift) / int64(d))
}

// FromMillis converts milliseconds to fixed point seconds
func FromMillis(ms int) Fixed { return FromRatio(ms, 1000) }

// Int truncates toward negative infinity
func (f Fixed) Int() int { return int(f >> Shift) }

// Round returns the nearest integer, halves away from zero, saturating at the range ends
func (f Fixed) Round() int {
	if f < 0 {
		if f < -(MaxFixed - Half) {
			return MinFixed.Int()
		}
		return -int((-f + Half) >> Shift)
	}
	if f > MaxFixed-Half {
		return MaxFixed.Int()
	}
	return int((f + Half) >> Shift)
}

func (f Fixed) Float() float64 { return float64(f) / ScaleF }

// --- Arithmetic ---

// Mul multiplies with a 128-bit intermediate
func Mul(a, b Fixed) Fixed {
	if a == 0 || b == 0 {
		return 0
	}
	negative := (a < 0) != (b < 0)
	ua, ub := uabs(a), uabs(b)

	hi, lo := bits.Mul64(ua, ub)
	if hi>>(Shift-1) != 0 {
		// Saturate, product does not fit in 64 bits after the shift
		if negative {
			return MinFixed
		}
		return MaxFixed
	}
	result := Fixed((hi << (64 - Shift)) | (lo >> Shift))
	if negative {
		return -result
	}
	return result
}

// Div divides with a 128-bit intermediate, division by zero yields zero
func Div(a, b Fixed) Fixed {
	if b == 0 {
		return 0
	}
	negative := (a < 0) != (b < 0)
	ua, ub := uabs(a), uabs(b)

	// a << Shift as 128-bit
	hi := ua >> (64 - Shift)
	lo := ua << Shift

	if hi >= ub {
		if negative {
			return MinFixed
		}
		return MaxFixed
	}

	quo, _ := bits.Div64(hi, lo, ub)
	if quo > math.MaxInt64 {
		if negative {
			return MinFixed
		}
		return MaxFixed
	}
	if negative {
		return -Fixed(quo)
	}
	return Fixed(quo)
}

// MulDiv computes (a * b) / c with a 128-bit intermediate
func MulDiv(a, b, c Fixed) Fixed {
	if c == 0 {
		return 0
	}
	neg := ((a < 0) != (b < 0)) != (c < 0)
	hi, lo := bits.Mul64(uabs(a), uabs(b))
	uc := uabs(c)
	if hi >= uc {
		if neg {
			return MinFixed
		}
		return MaxFixed
	}
	q, _ := bits.Div64(hi, lo, uc)
	if neg {
		return -Fixed(q)
	}
	return Fixed(q)
}

func uabs(x Fixed) uint64 {
	if x < 0 {
		return uint64(-x)
	}
	return uint64(x)
}

func Abs(x Fixed) Fixed {
	if x < 0 {
		return -x
	}
	return x
}

// Sign returns -One, 0, or One
func Sign(x Fixed) Fixed {
	if x < 0 {
		return -One
	}
	if x > 0 {
		return One
	}
	return 0
}

func Min(a, b Fixed) Fixed {
	if a < b {
		return a
	}
	return b
}

func Max(a, b Fixed) Fixed {
	if a > b {
		return a
	}
	return b
}

func Clamp(x, lo, hi Fixed) Fixed {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Sqrt returns the fixed point square root using integer Newton iteration on the raw value
// sqrt(x / 2^13) * 2^13 == sqrt(x * 2^13)
func Sqrt(x Fixed) Fixed {
	if x <= 0 {
		return 0
	}
	n := uint64(x)
	hi, lo := n>>(64-Shift), n<<Shift
	if hi != 0 {
		// Out of range for the integer path, accept float precision
		return FromFloat(math.Sqrt(x.Float()))
	}
	return Fixed(isqrt(lo))
}

func isqrt(n uint64) uint64 {
	if n < 2 {
		return n
	}
	// Initial guess from bit length
	r := uint64(1) << ((bits.Len64(n) + 1) / 2)
	for {
		next := (r + n/r) >> 1
		if next >= r {
			return r
		}
		r = next
	}
}
