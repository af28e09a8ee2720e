package vmath

import (
	"math"
)

const (
	LUTSize = 1024
	LUTMask = LUTSize - 1
)

func init() {
	for i := 0; i < LUTSize; i++ {
		rad := 2.0 * math.Pi * float64(i) / LUTSize
		SinLUT[i] = FromFloat(math.Sin(rad))
		CosLUT[i] = FromFloat(math.Cos(rad))
	}
}

// SinLUT and CosLUT hold one full turn in fixed point
var (
	SinLUT [LUTSize]Fixed
	CosLUT [LUTSize]Fixed
)

// Angle is a rotation in LUT units, LUTSize units per full turn
// Negative angles and angles beyond one turn wrap
type Angle int32

const (
	QuarterTurn = Angle(LUTSize / 4)
	HalfTurn    = Angle(LUTSize / 2)
	FullTurn    = Angle(LUTSize)
)

// DegreesToAngle converts whole degrees to LUT units
func DegreesToAngle(deg int) Angle {
	return Angle(deg * LUTSize / 360)
}

func Sin(a Angle) Fixed { return SinLUT[int32(a)&LUTMask] }
func Cos(a Angle) Fixed { return CosLUT[int32(a)&LUTMask] }
